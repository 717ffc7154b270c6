package signal

import (
	"context"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/rs/zerolog/log"
)

type registeredPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, core.Envelope{Type: "pong"})
}

func (ctl *SignalWSController) handleRegister(ctx context.Context, conn *WsSignalConn, idToken string) {
	if !ctl.limiter.Allow(conn.id) {
		log.Warn().Str("module", "signal").Str("cid", string(conn.id)).Msg("register rate limited")
		ctl.sendJSON(conn, core.Envelope{Type: "registered", Data: registeredPayload{Error: "rate_limited"}})
		return
	}
	identity, err := ctl.Registry.Register(ctx, conn.id, idToken)
	if err != nil {
		ctl.sendJSON(conn, core.Envelope{Type: "registered", Data: registeredPayload{Error: domain.KindOf(err)}})
		return
	}
	log.Debug().Str("module", "signal").Str("cid", string(conn.id)).Str("identity", string(identity)).Msg("register ok")
	ctl.sendJSON(conn, core.Envelope{Type: "registered", Data: registeredPayload{OK: true}})
}
