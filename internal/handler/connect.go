package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/rcarmo/go-utf16/internal/codec/utf16"
	"github.com/rcarmo/go-utf16/internal/encoding"
)

const (
	webSocketReadBufferSize  = 8192
	webSocketWriteBufferSize = 8192 * 2

	closeWriteWait = time.Second
	// maxCloseReason is the longest reason a close frame can carry.
	maxCloseReason = 123
)

// Stream upgrades GET /stream to a WebSocket and encodes every frame it
// receives. Each non-empty output is sent back as a binary frame. An empty
// binary frame flushes the stream and closes the connection normally.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !OriginAllowed(origin, h.cfg.Security.AllowedOrigins) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	enc, err := h.encoderFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  webSocketReadBufferSize,
		WriteBufferSize: webSocketWriteBufferSize,
		// origin was checked above
		CheckOrigin: func(*http.Request) bool { return true },
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("%v", fmt.Errorf("upgrade websocket: %w", err))
		return
	}

	defer func() {
		if err = wsConn.Close(); err != nil {
			h.log.Debug("%v", fmt.Errorf("error closing websocket: %w", err))
		}
	}()

	session := ulid.Make().String()
	h.log.Info("stream %s opened (%s, fatal=%t, bom=%t)", session, enc.Name(), enc.Fatal(), enc.PrependBOM())

	if h.cfg.Encoder.MaxBodyBytes > 0 {
		wsConn.SetReadLimit(h.cfg.Encoder.MaxBodyBytes)
	}

	stream := encoding.NewStream(enc, h.cfg.Encoder.BufferSize)
	h.serveStream(session, wsConn, stream)
}

func (h *Handler) serveStream(session string, wsConn *websocket.Conn, stream *encoding.Stream) {
	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Info("stream %s closed by peer", session)
				return
			}

			h.log.Warn("stream %s: %v", session, fmt.Errorf("error reading message from ws: %w", err))
			return
		}

		if len(data) == 0 {
			if msgType != websocket.BinaryMessage {
				continue
			}

			out, err := stream.Flush()
			if !h.send(session, wsConn, out) {
				return
			}
			if err != nil {
				h.closeWithError(session, wsConn, err)
				return
			}

			h.log.Info("stream %s finished", session)
			h.close(session, wsConn, websocket.CloseNormalClosure, "")
			return
		}

		out, err := stream.EncodeBytes(data)
		if !h.send(session, wsConn, out) {
			return
		}
		if err != nil {
			h.closeWithError(session, wsConn, err)
			return
		}
	}
}

// send writes out as a binary frame; empty output is skipped. It reports
// whether the connection is still usable.
func (h *Handler) send(session string, wsConn *websocket.Conn, out []byte) bool {
	if len(out) == 0 {
		return true
	}

	if err := wsConn.WriteMessage(websocket.BinaryMessage, out); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return false
		}

		h.log.Warn("stream %s: %v", session, fmt.Errorf("failed sending message to ws: %w", err))
		return false
	}

	return true
}

func (h *Handler) closeWithError(session string, wsConn *websocket.Conn, err error) {
	code := websocket.CloseInternalServerErr
	if errors.Is(err, utf16.ErrLoneSurrogate) {
		code = websocket.CloseInvalidFramePayloadData
	}

	h.log.Info("stream %s failed: %v", session, err)
	h.close(session, wsConn, code, err.Error())
}

func (h *Handler) close(session string, wsConn *websocket.Conn, code int, reason string) {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}

	msg := websocket.FormatCloseMessage(code, reason)
	if err := wsConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait)); err != nil {
		h.log.Debug("stream %s: %v", session, fmt.Errorf("write close: %w", err))
	}
}
