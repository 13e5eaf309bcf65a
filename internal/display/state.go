// Package display turns the event stream into screens and drives the panel
// through its wake, draw and hibernate cycle.
package display

import (
	"fmt"

	"github.com/mobil-koeln/ojp-sign/internal/events"
)

// State selects the screen
type State int

const (
	Boot State = iota
	Setup
	Dashboard
	Error
	Info
)

var stateNames = []string{"boot", "setup", "dashboard", "error", "info"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ErrConnectionLost is the message shown after the link drops
const ErrConnectionLost = "connection lost"

// Transition returns the state after ev. msg is the error message that
// travels with the Error state and is empty otherwise. DataAvailable is not
// special here; the caller pulls the snapshot.
func Transition(cur State, curMsg string, ev events.Event) (next State, msg string) {
	switch ev {
	case events.Init:
		return Boot, ""
	case events.WifiApMode:
		return Setup, ""
	case events.WifiConnected:
		if cur == Boot || cur == Setup {
			return Dashboard, ""
		}
	case events.WifiLost:
		return Error, ErrConnectionLost
	case events.DataAvailable:
		return Dashboard, ""
	}
	return cur, curMsg
}
