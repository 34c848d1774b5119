package app

import (
	"encoding/json"
	"sync"
	"time"

	"ephemeral_chat/internal/chat/domain"
	"ephemeral_chat/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// WSRequest is one action from the rendering boundary.
type WSRequest struct {
	Action     string  `json:"action"`
	Value      string  `json:"value,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
	Deliberate bool    `json:"deliberate,omitempty"`
	Focused    bool    `json:"focused,omitempty"`
}

// WSResponse is one push to the rendering boundary: a fresh snapshot, an
// audio cue, or an action error. Groups carries the snapshot's messages
// pre-partitioned into render runs.
type WSResponse struct {
	Action   string             `json:"action"`
	Success  bool               `json:"success"`
	Snapshot *Snapshot          `json:"snapshot,omitempty"`
	Groups   [][]domain.Message `json:"groups,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// ChatWebsocketHandler bridges the engine to a local rendering layer over
// one websocket: snapshots and cues go out, submit / input / scroll /
// navigation callbacks come in.
type ChatWebsocketHandler struct {
	controller *SessionController

	connMu sync.Mutex
	conn   *websocket.Conn
}

// NewChatWebsocketHandler create the handler and wire the engine's push
// callbacks to the active connection.
func NewChatWebsocketHandler(controller *SessionController) *ChatWebsocketHandler {
	h := &ChatWebsocketHandler{controller: controller}
	controller.SetOnChange(func(snap Snapshot) {
		h.send(snapshotResponse(snap))
	})
	controller.SetOnCue(func() {
		h.send(WSResponse{Action: "cue", Success: true})
	})
	return h
}

// HandleConnection is the websocket entry point. One rendering layer at a
// time; a new connection replaces the previous one.
func (h *ChatWebsocketHandler) HandleConnection(conn *websocket.Conn) {
	h.connMu.Lock()
	h.conn = conn
	h.connMu.Unlock()

	defer func() {
		h.connMu.Lock()
		if h.conn == conn {
			h.conn = nil
		}
		h.connMu.Unlock()
		conn.Close()
	}()

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	h.send(snapshotResponse(h.controller.Snapshot()))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Info("rendering connection closed")
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}

		var req WSRequest
		if err := json.Unmarshal(message, &req); err != nil {
			h.send(WSResponse{Action: "error", Error: "bad request"})
			continue
		}
		h.dispatch(req)
	}
}

func snapshotResponse(snap Snapshot) WSResponse {
	return WSResponse{
		Action:   "snapshot",
		Success:  true,
		Snapshot: &snap,
		Groups:   domain.GroupMessages(snap.Messages),
	}
}

func (h *ChatWebsocketHandler) dispatch(req WSRequest) {
	switch req.Action {
	case "navigate":
		if err := h.controller.Navigate(req.Value, req.Deliberate); err != nil {
			h.send(WSResponse{Action: req.Action, Error: err.Error()})
		}
	case "navigate_path":
		if err := h.controller.NavigateFromPath(req.Value); err != nil {
			h.send(WSResponse{Action: req.Action, Error: err.Error()})
		}
	case "input":
		h.controller.InputChanged(req.Value)
	case "submit":
		if err := h.controller.Submit(); err != nil {
			h.send(WSResponse{Action: req.Action, Error: err.Error()})
		}
	case "scroll":
		h.controller.Scroll(req.Distance)
	case "focus":
		h.controller.SetFocused(req.Focused)
	case "clear_notice":
		h.controller.ClearNotice()
	default:
		h.send(WSResponse{Action: req.Action, Error: "unknown action"})
	}
}

func (h *ChatWebsocketHandler) send(resp WSResponse) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.conn == nil {
		return
	}
	if err := h.conn.WriteJSON(resp); err != nil {
		logger.Log.Warn("websocket write failed", zap.Error(err))
	}
}
