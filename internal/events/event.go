// Package events defines the sign's event tags and the bounded channel that
// carries them from the producing workers to the display.
package events

import "fmt"

// Event is a payload-free notification. The set is closed.
type Event int

const (
	ButtonMenu Event = iota
	ButtonExit
	ButtonRotary
	Init
	UpdateTrigger
	DataAvailable
	WifiConnected
	WifiLost
	WifiApMode
	InternetOk
	TimeSynced

	numEvents
)

var eventNames = [numEvents]string{
	ButtonMenu:    "ButtonMenu",
	ButtonExit:    "ButtonExit",
	ButtonRotary:  "ButtonRotary",
	Init:          "Init",
	UpdateTrigger: "UpdateTrigger",
	DataAvailable: "DataAvailable",
	WifiConnected: "WifiConnected",
	WifiLost:      "WifiLost",
	WifiApMode:    "WifiApMode",
	InternetOk:    "InternetOk",
	TimeSynced:    "TimeSynced",
}

// String returns the tag name
func (e Event) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// Valid reports whether e is one of the defined tags
func (e Event) Valid() bool {
	return e >= 0 && e < numEvents
}

// All returns every defined event in declaration order
func All() []Event {
	out := make([]Event, 0, numEvents)
	for e := Event(0); e < numEvents; e++ {
		out = append(out, e)
	}
	return out
}
