package domain

import "time"

type LiveSession struct {
	SessionID       string    `json:"sessionId"`
	ChannelName     string    `json:"channelName"`
	HostIdentity    Identity  `json:"hostUserId"`
	HostDisplayName string    `json:"hostDisplayName"`
	StartedAt       time.Time `json:"startedAt"`
}

func LiveChannelName(sessionID string) string { return "live_" + sessionID }
