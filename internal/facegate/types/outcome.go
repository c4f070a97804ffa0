package types

// Outcome is the closed set of results a validation attempt can produce.
// Every consumer (HTTP response, audit writer, actuator mapper) switches
// over this type rather than comparing strings.
type Outcome int

const (
	OutcomeGranted Outcome = iota
	OutcomeDenied
	OutcomeAlert
	OutcomeNoFace
	OutcomeMultipleFaces
	OutcomeUnknownSubject
	OutcomeDeviceNotRegistered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGranted:
		return "GRANTED"
	case OutcomeDenied:
		return "DENIED"
	case OutcomeAlert:
		return "ALERT"
	case OutcomeNoFace:
		return "NO_FACE"
	case OutcomeMultipleFaces:
		return "MULTIPLE_FACES"
	case OutcomeUnknownSubject:
		return "UNKNOWN_SUBJECT"
	case OutcomeDeviceNotRegistered:
		return "DEVICE_NOT_REGISTERED"
	default:
		return "UNKNOWN"
	}
}

// Granted reports whether the outcome opens the door.
func (o Outcome) Granted() bool { return o == OutcomeGranted }

// Identified reports whether the outcome carries a matched subject.
// Only identified outcomes drive the attempt escalation tracker.
func (o Outcome) Identified() bool {
	return o == OutcomeGranted || o == OutcomeDenied || o == OutcomeAlert
}
