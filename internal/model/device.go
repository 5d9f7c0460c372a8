package model

import "time"

// Device is the enrollment state the relay tracks per UDID.
type Device struct {
	UDID     string `json:"udid"`
	Enrolled bool   `json:"enrolled"`
}

// DeviceEvent is the audit record published after a registry mutation.
type DeviceEvent struct {
	EventID  string    `json:"event_id"`
	Topic    Topic     `json:"topic"`
	UDID     string    `json:"udid"`
	Enrolled bool      `json:"enrolled"`
	Created  bool      `json:"created"` // record did not exist before this event
	At       time.Time `json:"at"`
}
