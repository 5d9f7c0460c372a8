package model

import (
	"errors"
	"strings"
	"time"
)

// Topic is the closed set of webhook topics the relay acts on.
type Topic string

const (
	TopicAuthenticate Topic = "mdm.Authenticate"
	TopicTokenUpdate  Topic = "mdm.TokenUpdate"
	TopicConnect      Topic = "mdm.Connect"
	TopicCheckOut     Topic = "mdm.CheckOut"
	TopicUnrecognized Topic = "unrecognized"
)

func (t Topic) String() string { return string(t) }

// ParseTopic maps a wire topic onto a known Topic; anything else is TopicUnrecognized.
func ParseTopic(s string) Topic {
	switch Topic(strings.TrimSpace(s)) {
	case TopicAuthenticate:
		return TopicAuthenticate
	case TopicTokenUpdate:
		return TopicTokenUpdate
	case TopicConnect:
		return TopicConnect
	case TopicCheckOut:
		return TopicCheckOut
	default:
		return TopicUnrecognized
	}
}

var (
	ErrMissingCheckin     = errors.New("envelope missing checkin_event")
	ErrMissingAcknowledge = errors.New("envelope missing acknowledge_event")
)

// Envelope is one webhook delivery as posted by MicroMDM.
type Envelope struct {
	Topic            string            `json:"topic"`
	EventID          string            `json:"event_id"`
	CreatedAt        time.Time         `json:"created_at"`
	CheckinEvent     *CheckinEvent     `json:"checkin_event,omitempty"`
	AcknowledgeEvent *AcknowledgeEvent `json:"acknowledge_event,omitempty"`
}

// Kind returns the parsed topic of the envelope.
func (e Envelope) Kind() Topic { return ParseTopic(e.Topic) }

// CheckinUDID returns the device id of a checkin envelope.
func (e Envelope) CheckinUDID() (string, error) {
	if e.CheckinEvent == nil {
		return "", ErrMissingCheckin
	}
	return e.CheckinEvent.UDID, nil
}

type CheckinEvent struct {
	UDID       string            `json:"udid"`
	Params     map[string]string `json:"url_params,omitempty"`
	RawPayload string            `json:"raw_payload,omitempty"` // base64 plist
}

// AcknowledgeEvent carries the device response to a previously queued command.
// RawPayload stays base64 text so a bad encoding does not fail envelope parsing.
type AcknowledgeEvent struct {
	UDID        string            `json:"udid"`
	Status      string            `json:"status"`
	CommandUUID string            `json:"command_uuid"`
	Params      map[string]string `json:"url_params,omitempty"`
	RawPayload  string            `json:"raw_payload"`
}
