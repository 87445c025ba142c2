package session

import (
	"bufio"
	"fmt"

	"github.com/coregx/chatbroker/internal/chatmsg"
	"github.com/coregx/chatbroker/internal/wireframe"
)

func isValidUsername(name string) bool {
	if len(name) < 3 {
		return false
	}
	for _, r := range name {
		if !isAlphanumeric(r) {
			return false
		}
	}
	return true
}

func isAlphanumeric(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	default:
		return false
	}
}

// readUsername reads and validates the handshake frame, returning the
// proposed name without yet reserving it in the registry.
func readUsername(r *bufio.Reader, maxPayload uint64) (string, error) {
	payload, err := wireframe.ReadFrame(r, maxPayload)
	if err != nil {
		return "", fmt.Errorf("read handshake frame: %w", err)
	}

	msg, err := chatmsg.Decode(payload)
	if err != nil {
		return "", fmt.Errorf("decode handshake frame: %w", err)
	}

	text, ok := msg.Content.(chatmsg.Text)
	if !ok || !isValidUsername(text.Body) {
		return "", ErrInvalidUsername
	}

	return text.Body, nil
}

// writeRejection sends a single Text frame explaining why the handshake
// failed. Errors from the write itself are ignored: the connection is
// being torn down either way.
func writeRejection(w *bufio.Writer, reason string) {
	msg := chatmsg.Message{Sender: "server", Content: chatmsg.Text{Body: reason}}
	payload, err := chatmsg.Encode(msg)
	if err != nil {
		return
	}
	_ = wireframe.WriteFrame(w, payload)
}
