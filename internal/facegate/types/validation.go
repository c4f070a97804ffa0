package types

// BoundingBox locates a detected face within the captured frame, in pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ValidationRequest is one access attempt: a captured frame plus the
// network origin of the device that captured it.
type ValidationRequest struct {
	Origin string // device network origin (IP address)
	Frame  []byte // raw captured image bytes
}

// ValidationResponse carries everything the caller needs to render a
// decision: the outcome plus display fields that are only set when known.
type ValidationResponse struct {
	Outcome      Outcome      `json:"-"`
	Result       string       `json:"result"`
	SubjectID    *int64       `json:"subject_id,omitempty"`
	DisplayName  string       `json:"display_name,omitempty"`
	ZoneCode     int          `json:"zone_code,omitempty"`
	ZoneName     string       `json:"zone_name,omitempty"`
	Box          *BoundingBox `json:"box,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	AttemptCount int          `json:"attempt_count,omitempty"`
	ServerTime   string       `json:"server_time"`
}
