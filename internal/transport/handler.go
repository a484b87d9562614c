package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gorilla/websocket"

	"github.com/machanirobotics-labs/sttgateway/internal/config"
	"github.com/machanirobotics-labs/sttgateway/internal/engine"
	"github.com/machanirobotics-labs/sttgateway/internal/logging"
	"github.com/machanirobotics-labs/sttgateway/internal/session"
)

var errMissingType = errors.New("transport: control message missing \"type\"")

// Conn is the narrow slice of *websocket.Conn the handler needs, so tests
// can substitute a fake without standing up a real socket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Handler binds one transport connection to one Session Core. It owns no
// transport-level concerns beyond frame dispatch; upgrade, deadlines, and
// accept loop belong to the server loop.
type Handler struct {
	conn   Conn
	sess   *session.Session
	userID uint64
}

// NewHandler constructs a Handler for one freshly accepted connection. It
// does not send the "connected" welcome message; call Run for that.
func NewHandler(conn Conn, userID uint64, params config.Params, eng engine.Engine) *Handler {
	return &Handler{
		conn:   conn,
		sess:   session.New(userID, params, eng),
		userID: userID,
	}
}

// Run sends the welcome message and then services inbound frames until the
// connection closes or a fatal transport error occurs. No implicit flush
// happens on close; the Session is simply dropped.
func (h *Handler) Run(ctx context.Context) error {
	welcome := newConnected(h.userID, h.sess.SampleRate())
	if err := h.conn.WriteJSON(welcome); err != nil {
		return fmt.Errorf("transport: write welcome: %w", err)
	}

	for {
		msgType, data, err := h.conn.ReadMessage()
		if err != nil {
			return err
		}
		switch msgType {
		case websocket.TextMessage:
			h.handleText(ctx, data)
		case websocket.BinaryMessage:
			h.handleBinary(ctx, data)
		default:
			// ping/pong/close opcodes are handled by the websocket library
			// itself; nothing else reaches here.
		}
	}
}

func (h *Handler) handleText(ctx context.Context, data []byte) {
	msg, err := parseControlMessage(data)
	if err != nil {
		h.sendError(fmt.Sprintf("malformed control message: %v", err))
		return
	}

	switch msg.Type {
	case "config":
		logging.Infow("transport: config message received",
			"user_id", h.userID, "language", msg.Language, "translate", msg.Translate)
		h.send(newConfigUpdated())
	case "flush":
		text, err := h.sess.Flush(ctx)
		if err != nil {
			h.sendError(fmt.Sprintf("flush failed: %v", err))
			return
		}
		h.send(newFlushComplete(h.userID, text))
	case "reset":
		h.sess.Reset()
		h.send(newResetAck())
	default:
		h.sendError(fmt.Sprintf("unrecognized message type %q", msg.Type))
	}
}

func (h *Handler) handleBinary(ctx context.Context, data []byte) {
	switch {
	case len(data)%4 == 0:
		h.sess.PushAudio(decodeFloat32LE(data))
	case len(data)%2 == 0:
		h.sess.PushAudioInt16(decodeInt16LE(data))
	default:
		h.sendError(fmt.Sprintf("unsupported frame length %d bytes", len(data)))
		return
	}

	text, err := h.sess.DrainIfReady(ctx)
	if err != nil {
		h.sendError(fmt.Sprintf("drain failed: %v", err))
		return
	}
	if text != "" {
		h.send(newTranscription(h.userID, text))
	}
}

func (h *Handler) send(v interface{}) {
	if err := h.conn.WriteJSON(v); err != nil {
		logging.Warnw("transport: write failed", "user_id", h.userID, "err", err)
	}
}

func (h *Handler) sendError(message string) {
	h.send(newError(message))
}

func decodeFloat32LE(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func decodeInt16LE(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return out
}
