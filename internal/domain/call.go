package domain

import "time"

type CallStatus string

const (
	CallRinging   CallStatus = "ringing"
	CallAccepted  CallStatus = "accepted"
	CallDeclined  CallStatus = "declined"
	CallCancelled CallStatus = "cancelled"
)

// Terminal reports whether no further transition may leave s.
func (s CallStatus) Terminal() bool {
	return s == CallAccepted || s == CallDeclined || s == CallCancelled
}

// CanTransition allows only ringing -> terminal.
func (s CallStatus) CanTransition(to CallStatus) bool {
	return s == CallRinging && to.Terminal()
}

type CallOffer struct {
	CallID            string     `json:"callId"`
	ChannelName       string     `json:"channelName"`
	CallerIdentity    Identity   `json:"callerId"`
	CalleeIdentity    Identity   `json:"calleeId"`
	CallerDisplayName string     `json:"callerName"`
	CalleeDisplayName string     `json:"calleeName"`
	Status            CallStatus `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	ResolvedAt        time.Time  `json:"resolvedAt,omitzero"`
}

// CallChannelName derives the media channel of a call; ids are never reused.
func CallChannelName(callID string) string { return "call_" + callID }
