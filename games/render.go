/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

// Mover repositions a rendered marker.
type Mover interface {
	MoveMarker(id int, x, y float64)
}

// Renderer draws markers. Calls are made while the Machine holds its lock,
// so implementations must not call back into the Machine.
type Renderer interface {
	Mover
	CreateMarker(m Marker)
	SetLabelVisible(id int, visible bool)
	SetDisabled(id int, disabled bool)
	Clear()
}

// PhaseObserver is implemented by renderers that want to know when the game
// moves to a new phase.
type PhaseObserver interface {
	PhaseChanged(s Session)
}

// Notifier shows a short message to the player.
type Notifier interface {
	Notify(msg Message)
}

type Message int

const (
	MessageInvalidCount Message = iota
	MessageIncorrectOrder
	MessageVictory
)

func (m Message) String() string {
	switch m {
	case MessageInvalidCount:
		return "invalid_count"
	case MessageIncorrectOrder:
		return "incorrect_order"
	case MessageVictory:
		return "victory"
	default:
		return "unknown"
	}
}

// Text is the user-facing wording for the message.
func (m Message) Text() string {
	switch m {
	case MessageInvalidCount:
		return "Please enter a number between 3 and 7."
	case MessageIncorrectOrder:
		return "Wrong order!"
	case MessageVictory:
		return "Excellent memory!"
	default:
		return ""
	}
}

func (m Message) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
