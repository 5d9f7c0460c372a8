package model

import "strings"

type RequestType string

const (
	RequestInstalledApplicationList RequestType = "InstalledApplicationList"
	RequestDeviceInformation        RequestType = "DeviceInformation"
	RequestProfileList              RequestType = "ProfileList"
	RequestSecurityInfo             RequestType = "SecurityInfo"
)

// KnownRequestTypes are the commands the relay's CLI offers by name.
var KnownRequestTypes = []RequestType{
	RequestInstalledApplicationList,
	RequestDeviceInformation,
	RequestProfileList,
	RequestSecurityInfo,
}

func (t RequestType) String() string { return string(t) }

// Known reports whether t is one of KnownRequestTypes.
func (t RequestType) Known() bool {
	for _, k := range KnownRequestTypes {
		if t == k {
			return true
		}
	}
	return false
}

// RequestTypeNames returns KnownRequestTypes joined by sep.
func RequestTypeNames(sep string) string {
	names := make([]string, len(KnownRequestTypes))
	for i, k := range KnownRequestTypes {
		names[i] = string(k)
	}
	return strings.Join(names, sep)
}

// ParseRequestType normalizes input; empty => InstalledApplicationList.
// Unknown names are passed through as-is since the MDM server owns the command catalogue.
func ParseRequestType(s string) RequestType {
	s = strings.TrimSpace(s)
	if s == "" {
		return RequestInstalledApplicationList
	}
	return RequestType(s)
}

// CommandRequest is the JSON body POSTed to {server_url}/v1/commands.
type CommandRequest struct {
	UDID        string      `json:"udid"`
	RequestType RequestType `json:"request_type"`
}
