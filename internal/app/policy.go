package app

import (
	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
)

type BackpressureAction int

// DropEvent is the zero value: unless a policy asks otherwise the event is lost
// and the connection stays open.
const (
	DropEvent BackpressureAction = iota
	Disconnect
)

// Policy decides what happens to a connection whose outbound queue is full.
type Policy interface {
	OnBackPressure(cid core.ConnectionID, identity domain.Identity) BackpressureAction
}

// SimplePolicy disconnects slow consumers; the client reconnects and re-registers.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnectionID, domain.Identity) BackpressureAction {
	return Disconnect
}

// TolerantPolicy drops the event and keeps the connection.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(core.ConnectionID, domain.Identity) BackpressureAction {
	return DropEvent
}
