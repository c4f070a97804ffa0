package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/facegate/server/internal/facegate/actuator"
	"github.com/facegate/server/internal/facegate/attempt"
	"github.com/facegate/server/internal/facegate/authz"
	"github.com/facegate/server/internal/facegate/face"
	"github.com/facegate/server/internal/facegate/match"
	"github.com/facegate/server/internal/facegate/store"
	"github.com/facegate/server/internal/facegate/types"
)

var (
	ErrInvalidOrigin = errors.New("origin is required")
	ErrEmptyFrame    = errors.New("frame is required")

	// ErrInfrastructure marks faults in the decision's data dependencies
	// (detector, stores). A decision cannot be trusted without them, so
	// these propagate to the caller instead of producing an outcome.
	ErrInfrastructure = errors.New("infrastructure dependency failed")
)

// DefaultDoorOffset maps a zone code to its physical door number:
// door = zone code + offset.
const DefaultDoorOffset = 3

// DoorSignaler is the actuator seam. Production wires *actuator.Gateway.
type DoorSignaler interface {
	Send(door int, cmd actuator.Command) error
}

// DecisionService sequences one validation attempt: detect, resolve device,
// match, authorize, escalate, audit, signal the door.
type DecisionService struct {
	detector   face.Detector
	gallery    store.GalleryStore
	devices    *DeviceDirectory
	matcher    *match.Matcher
	authorizer *authz.Engine
	tracker    *attempt.Tracker
	audit      store.AuditEventStore
	doors      DoorSignaler
	doorOffset int
	logger     *zap.Logger
}

type DecisionDeps struct {
	Detector   face.Detector
	Gallery    store.GalleryStore
	Devices    *DeviceDirectory
	Matcher    *match.Matcher
	Authorizer *authz.Engine
	Tracker    *attempt.Tracker
	Audit      store.AuditEventStore
	Doors      DoorSignaler
	DoorOffset int // zero means DefaultDoorOffset
	Logger     *zap.Logger
}

func NewDecisionService(d DecisionDeps) *DecisionService {
	offset := d.DoorOffset
	if offset == 0 {
		offset = DefaultDoorOffset
	}
	return &DecisionService{
		detector:   d.Detector,
		gallery:    d.Gallery,
		devices:    d.Devices,
		matcher:    d.Matcher,
		authorizer: d.Authorizer,
		tracker:    d.Tracker,
		audit:      d.Audit,
		doors:      d.Doors,
		doorOffset: offset,
		logger:     d.Logger,
	}
}

// DoorForZone returns the physical door number a zone's actuator answers to.
func (s *DecisionService) DoorForZone(zoneCode int) int {
	return zoneCode + s.doorOffset
}

// Validate runs one access attempt end to end. Expected conditions (no
// face, unknown subject, no grant, unregistered device) come back as
// outcomes, never as errors; only infrastructure faults return an error,
// wrapped in ErrInfrastructure.
func (s *DecisionService) Validate(ctx context.Context, req types.ValidationRequest) (types.ValidationResponse, error) {
	if req.Origin == "" {
		return types.ValidationResponse{}, ErrInvalidOrigin
	}
	if len(req.Frame) == 0 {
		return types.ValidationResponse{}, ErrEmptyFrame
	}

	now := time.Now().UTC()

	// 1. Face detection. Zero or multiple faces short-circuit before any
	// matching is attempted.
	detections, err := s.detector.Detect(ctx, req.Frame)
	if err != nil {
		return types.ValidationResponse{}, fmt.Errorf("%w: detect: %v", ErrInfrastructure, err)
	}
	switch {
	case len(detections) == 0:
		s.recordAudit(ctx, auditParams{outcome: types.OutcomeNoFace, frame: req.Frame, at: now,
			notes: "no face detected"})
		return s.respond(types.OutcomeNoFace, "no face detected", now), nil
	case len(detections) > 1:
		s.recordAudit(ctx, auditParams{outcome: types.OutcomeMultipleFaces, frame: req.Frame, at: now,
			notes: fmt.Sprintf("%d faces in frame", len(detections))})
		return s.respond(types.OutcomeMultipleFaces, "only one person may face the camera", now), nil
	}
	detection := detections[0]

	// 2. Resolve the requesting origin to an active device.
	device, err := s.devices.ActiveByOrigin(ctx, req.Origin)
	if err != nil {
		return types.ValidationResponse{}, fmt.Errorf("%w: device lookup: %v", ErrInfrastructure, err)
	}
	if device == nil {
		s.logger.Warn("validation from unregistered origin", zap.String("origin", req.Origin))
		s.recordAudit(ctx, auditParams{outcome: types.OutcomeDeviceNotRegistered, frame: req.Frame, at: now,
			notes: fmt.Sprintf("origin %s not registered as an active device", req.Origin)})
		resp := s.respond(types.OutcomeDeviceNotRegistered,
			fmt.Sprintf("origin %s not registered as an active device", req.Origin), now)
		resp.Box = &detection.BoundingBox
		return resp, nil
	}
	if err := s.devices.NoteSeen(ctx, device.DeviceID); err != nil {
		s.logger.Warn("device last_check update failed", zap.Int64("device_id", device.DeviceID), zap.Error(err))
	}

	// 3. Match the probe against the active gallery.
	gallery, err := s.gallery.ActiveSubjects(ctx)
	if err != nil {
		return types.ValidationResponse{}, fmt.Errorf("%w: gallery: %v", ErrInfrastructure, err)
	}
	probe := match.Normalize(detection.Embedding)
	if probe == nil {
		return types.ValidationResponse{}, fmt.Errorf("%w: detector returned a degenerate embedding", ErrInfrastructure)
	}
	matched, ok := s.matcher.Match(probe, gallery)
	if !ok {
		s.recordAudit(ctx, auditParams{outcome: types.OutcomeUnknownSubject, device: device,
			frame: req.Frame, at: now, notes: "face not recognized"})
		resp := s.respond(types.OutcomeUnknownSubject, "face not recognized", now)
		resp.Box = &detection.BoundingBox
		resp.ZoneCode = device.ZoneCode
		resp.ZoneName = device.ZoneName
		return resp, nil
	}

	// 4. Authorization plus escalation.
	granted, err := s.authorizer.Authorize(ctx, matched.SubjectID, device.ZoneCode)
	if err != nil {
		return types.ValidationResponse{}, fmt.Errorf("%w: grant lookup: %v", ErrInfrastructure, err)
	}

	key := attempt.Key{Origin: req.Origin, SubjectID: matched.SubjectID}
	outcome := types.OutcomeGranted
	reason := "access granted"
	var tracked attempt.Result

	if granted {
		tracked = s.tracker.Record(key, types.OutcomeGranted)
	} else {
		tracked = s.tracker.Record(key, types.OutcomeDenied)
		if tracked.State == attempt.StateAlertTriggered {
			outcome = types.OutcomeAlert
			reason = fmt.Sprintf("repeated denials for zone %d", device.ZoneCode)
			s.logger.Warn("escalation alert",
				zap.String("origin", req.Origin),
				zap.Int64("subject_id", matched.SubjectID),
				zap.Int("zone", device.ZoneCode))
		} else {
			outcome = types.OutcomeDenied
			reason = fmt.Sprintf("no grant for zone %d", device.ZoneCode)
		}
	}

	// 5. Exactly one audit event per attempt. An alert resets the live
	// counter, so the audit row records the threshold that fired instead.
	attempts := tracked.Count
	if outcome == types.OutcomeAlert {
		attempts = s.tracker.Threshold()
	}
	if attempts == 0 {
		attempts = 1
	}
	s.recordAudit(ctx, auditParams{
		outcome:  outcome,
		subject:  &matched.SubjectID,
		device:   device,
		attempts: attempts,
		frame:    req.Frame,
		at:       now,
		notes:    reason,
	})

	// 6. Best-effort door signal. Actuator faults never change the
	// decision already made.
	s.signalDoor(device.ZoneCode, outcome)

	resp := s.respond(outcome, reason, now)
	resp.SubjectID = &matched.SubjectID
	resp.DisplayName = matched.DisplayName
	resp.ZoneCode = device.ZoneCode
	resp.ZoneName = device.ZoneName
	resp.Box = &detection.BoundingBox
	resp.AttemptCount = tracked.Count
	return resp, nil
}

func (s *DecisionService) respond(outcome types.Outcome, reason string, now time.Time) types.ValidationResponse {
	return types.ValidationResponse{
		Outcome:    outcome,
		Result:     outcome.String(),
		Reason:     reason,
		ServerTime: now.Format(time.RFC3339Nano),
	}
}

func (s *DecisionService) signalDoor(zoneCode int, outcome types.Outcome) {
	var cmd actuator.Command
	switch outcome {
	case types.OutcomeGranted:
		cmd = actuator.CommandGrant
	case types.OutcomeDenied:
		cmd = actuator.CommandDeny
	case types.OutcomeAlert:
		cmd = actuator.CommandAlert
	default:
		return // pre-biometric rejections drive no hardware
	}

	door := s.DoorForZone(zoneCode)
	if err := s.doors.Send(door, cmd); err != nil {
		s.logger.Warn("door signal failed",
			zap.Int("door", door),
			zap.String("command", string(cmd)),
			zap.Error(err))
	}
}

type auditParams struct {
	outcome  types.Outcome
	subject  *int64
	device   *store.DeviceRecord
	attempts int
	frame    []byte
	at       time.Time
	notes    string
}

// recordAudit persists the decision to the audit log. Errors go to the
// operational log, never to the caller; a failed audit write must not
// prevent the device from receiving its decision.
func (s *DecisionService) recordAudit(ctx context.Context, p auditParams) {
	result := store.ResultDenied
	if p.outcome == types.OutcomeGranted {
		result = store.ResultApproved
	}

	rec := store.AuditEventRecord{
		SubjectID:    p.subject,
		EventType:    store.EventTypeEntry,
		Result:       result,
		AttemptCount: p.attempts,
		OccurredAt:   p.at,
		CaptureImage: p.frame,
		Notes:        p.notes + " [" + p.outcome.String() + "]",
	}
	if p.device != nil {
		rec.DeviceID = &p.device.DeviceID
		zone := p.device.ZoneCode
		rec.ZoneCode = &zone
	}

	if err := s.audit.RecordEvent(ctx, rec); err != nil {
		s.logger.Error("audit write failed", zap.String("outcome", p.outcome.String()), zap.Error(err))
	}
}
