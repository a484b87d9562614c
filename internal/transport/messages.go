// Package transport implements the Connection Handler: it binds one
// WebSocket connection to one Session Core, decodes inbound frames, and
// encodes outbound responses.
package transport

import "encoding/json"

// Outbound message shapes. Each carries its own "type" so a client can
// dispatch on it without per-message schemas.

type connectedMessage struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id"`
	Message    string `json:"message"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

type transcriptionMessage struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	UserID uint64 `json:"user_id"`
}

type flushCompleteMessage struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	UserID uint64 `json:"user_id"`
}

type statusMessage struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newConnected(userID uint64, sampleRate int) connectedMessage {
	return connectedMessage{
		Type:       "connected",
		UserID:     userID,
		Message:    "ready",
		Format:     "pcm",
		SampleRate: sampleRate,
	}
}

func newTranscription(userID uint64, text string) transcriptionMessage {
	return transcriptionMessage{Type: "transcription", Text: text, UserID: userID}
}

func newFlushComplete(userID uint64, text string) flushCompleteMessage {
	return flushCompleteMessage{Type: "flush_complete", Text: text, UserID: userID}
}

func newResetAck() statusMessage {
	return statusMessage{Type: "reset", Status: "ok"}
}

func newConfigUpdated() statusMessage {
	return statusMessage{Type: "config_updated", Status: "ok"}
}

func newError(message string) errorMessage {
	return errorMessage{Type: "error", Message: message}
}

// controlMessage is the inbound text-frame shape. translate and language
// are accepted but, matching the original stream server's behavior, not
// applied mid-stream; they are logged only.
type controlMessage struct {
	Type      string `json:"type"`
	Language  string `json:"language,omitempty"`
	Translate *bool  `json:"translate,omitempty"`
}

func parseControlMessage(data []byte) (controlMessage, error) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return controlMessage{}, err
	}
	if msg.Type == "" {
		return controlMessage{}, errMissingType
	}
	return msg, nil
}
