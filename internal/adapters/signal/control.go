package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
)

type stateMessage struct {
	Type  string           `json:"type"`
	State domain.RoomState `json:"state"`
}

func stateMsg(st domain.RoomState) stateMessage {
	return stateMessage{Type: "state", State: st}
}

func (ctl *SessionWSController) sendError(c *WsSessionConn, msg string) {
	ctl.sendJSON(c, struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{
		Type:  "error",
		Error: msg,
	})
}

func (ctl *SessionWSController) handlePing(
	conn *WsSessionConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

// handleConnect runs the handshake off the read loop so a disconnect can
// arrive while it is in flight. Progress reaches the client via the watch.
func (ctl *SessionWSController) handleConnect(ctx context.Context, sid core.SessionID, c *WsSessionConn, data []byte) {
	var req domain.ConnectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		ctl.sendError(c, "bad connect payload")
		return
	}
	go func() {
		if _, err := ctl.Orch.Connect(ctx, sid, req); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("connect rejected")
			ctl.sendError(c, err.Error())
		}
	}()
}

func (ctl *SessionWSController) handleDisconnect(ctx context.Context, sid core.SessionID, c *WsSessionConn) {
	if _, err := ctl.Orch.Disconnect(ctx, sid); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *SessionWSController) handleState(sid core.SessionID, c *WsSessionConn) {
	st, err := ctl.Orch.State(sid)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	ctl.sendJSON(c, stateMsg(st))
}
