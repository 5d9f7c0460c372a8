package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	cases := []struct {
		in   string
		want Topic
	}{
		{"mdm.Authenticate", TopicAuthenticate},
		{"mdm.TokenUpdate", TopicTokenUpdate},
		{" mdm.Connect ", TopicConnect},
		{"mdm.CheckOut", TopicCheckOut},
		{"mdm.Foo", TopicUnrecognized},
		{"mdm.checkout", TopicUnrecognized},
		{"", TopicUnrecognized},
		{"unrecognized", TopicUnrecognized},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseTopic(tc.in), tc.in)
	}
}

func TestEnvelope_DecodeCheckin(t *testing.T) {
	body := `{
		"topic": "mdm.TokenUpdate",
		"event_id": "0b4d7a1c-0e52-4b57-9a1e-7f3f3c6d9a11",
		"created_at": "2026-03-01T10:00:00Z",
		"checkin_event": {"udid": "ABC123", "url_params": {"tenant": "x"}, "raw_payload": "PHBsaXN0Lz4="}
	}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))

	assert.Equal(t, TopicTokenUpdate, env.Kind())
	assert.Equal(t, "0b4d7a1c-0e52-4b57-9a1e-7f3f3c6d9a11", env.EventID)
	assert.Equal(t, 2026, env.CreatedAt.Year())
	assert.Nil(t, env.AcknowledgeEvent)

	udid, err := env.CheckinUDID()
	require.NoError(t, err)
	assert.Equal(t, "ABC123", udid)
	assert.Equal(t, "x", env.CheckinEvent.Params["tenant"])
}

func TestEnvelope_DecodeAcknowledgeKeepsRawPayloadText(t *testing.T) {
	body := `{"topic":"mdm.Connect","acknowledge_event":{"udid":"ABC123","status":"Acknowledged","command_uuid":"c-1","raw_payload":"not base64!"}}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))

	require.NotNil(t, env.AcknowledgeEvent)
	assert.Equal(t, "not base64!", env.AcknowledgeEvent.RawPayload)
	assert.Equal(t, "c-1", env.AcknowledgeEvent.CommandUUID)

	_, err := env.CheckinUDID()
	assert.ErrorIs(t, err, ErrMissingCheckin)
}

func TestParseRequestType(t *testing.T) {
	assert.Equal(t, RequestInstalledApplicationList, ParseRequestType(""))
	assert.Equal(t, RequestDeviceInformation, ParseRequestType(" DeviceInformation "))
	assert.Equal(t, RequestType("RestartDevice"), ParseRequestType("RestartDevice"))
}

func TestRequestType_Known(t *testing.T) {
	for _, rt := range []RequestType{RequestInstalledApplicationList, RequestDeviceInformation, RequestProfileList, RequestSecurityInfo} {
		assert.True(t, rt.Known(), rt)
	}
	assert.False(t, RequestType("RestartDevice").Known())
	assert.False(t, RequestType("devicinformation").Known())

	assert.Equal(t, "InstalledApplicationList|DeviceInformation|ProfileList|SecurityInfo", RequestTypeNames("|"))
}

func TestCommandRequest_JSON(t *testing.T) {
	b, err := json.Marshal(CommandRequest{UDID: "ABC123", RequestType: RequestInstalledApplicationList})
	require.NoError(t, err)
	assert.JSONEq(t, `{"udid":"ABC123","request_type":"InstalledApplicationList"}`, string(b))
}
