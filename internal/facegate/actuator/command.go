package actuator

import "fmt"

// Command is the wire vocabulary understood by the door controllers. The
// controller firmware parses the literal Spanish words, so these values are
// part of the hardware protocol and must not be translated.
type Command string

const (
	CommandGrant Command = "verde"     // grant, open
	CommandDeny  Command = "rojo"      // deny
	CommandBlink Command = "parpadear" // retry / ambiguous
	CommandAlert Command = "alerta"    // escalation
)

func (c Command) valid() bool {
	switch c {
	case CommandGrant, CommandDeny, CommandBlink, CommandAlert:
		return true
	}
	return false
}

// frame renders the command for one door as transmitted on the wire,
// e.g. "verde4\n".
func (c Command) frame(door int) []byte {
	return []byte(fmt.Sprintf("%s%d\n", c, door))
}
