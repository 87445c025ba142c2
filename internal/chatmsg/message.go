package chatmsg

import (
	"encoding/binary"
	"time"
	"unicode/utf8"
)

// Message is the unit the router operates on (spec §3). It pairs a
// sender name, a point in time, and one Content variant.
type Message struct {
	Sender    string
	Timestamp time.Time
	Content   Content
}

// Record layout (all integers big-endian):
//
//	1 byte   content tag (Kind)
//	4 bytes  timestamp, unsigned seconds since epoch
//	2 bytes  sender length
//	N bytes  sender (UTF-8)
//	...      content-specific tail
//
// Text tail:   4 bytes body length, then body (UTF-8)
// File tail:   2 bytes name length, then name, 8 bytes data length, then data
// Signal tail: 1 byte code
//
// This is a fixed, self-describing encoding: a reader never needs anything
// beyond the bytes of one record to reconstruct it, matching the frame
// boundary wireframe already establishes around each record (spec §4.1).
const (
	headerFixedLen = 1 + 4 + 2 // tag + timestamp + sender length
)

// Encode serializes m into its wire form. It fails with ErrUnknownTag
// when m.Content is not a Text, File or Signal value, and never otherwise.
func Encode(m Message) ([]byte, error) {
	if m.Content == nil {
		return nil, ErrUnknownTag
	}
	sender := []byte(m.Sender)
	buf := make([]byte, 0, headerFixedLen+len(sender)+32)

	buf = append(buf, byte(m.Content.Kind()))
	buf = appendUint32(buf, uint32(m.Timestamp.Unix()))
	buf = appendUint16(buf, uint16(len(sender)))
	buf = append(buf, sender...)

	switch c := m.Content.(type) {
	case Text:
		body := []byte(c.Body)
		buf = appendUint32(buf, uint32(len(body)))
		buf = append(buf, body...)
	case File:
		name := []byte(c.Name)
		buf = appendUint16(buf, uint16(len(name)))
		buf = append(buf, name...)
		buf = appendUint64(buf, uint64(len(c.Data)))
		buf = append(buf, c.Data...)
	case Signal:
		buf = append(buf, c.Code)
	default:
		return nil, ErrUnknownTag
	}

	return buf, nil
}

// Decode reconstructs a Message from bytes produced by Encode. It returns
// ErrTruncated if b ends before a declared length is satisfied, and
// ErrUnknownTag if the leading tag byte names no known Kind.
func Decode(b []byte) (Message, error) {
	if len(b) < headerFixedLen {
		return Message{}, ErrTruncated
	}

	tag := Kind(b[0])
	ts := binary.BigEndian.Uint32(b[1:5])
	senderLen := int(binary.BigEndian.Uint16(b[5:7]))
	b = b[7:]

	if len(b) < senderLen {
		return Message{}, ErrTruncated
	}
	sender := string(b[:senderLen])
	b = b[senderLen:]

	// sender may legitimately be empty here: the handshake frame (spec
	// §4.4) has no authenticated username yet. Decode only establishes
	// wire validity; internal/session.readLoop is what pins Sender to
	// the handshake-authenticated name before a message is ever routed.
	if !utf8.ValidString(sender) {
		return Message{}, ErrInvalidUTF8
	}

	m := Message{
		Sender:    sender,
		Timestamp: time.Unix(int64(ts), 0).UTC(),
	}

	switch tag {
	case KindText:
		if len(b) < 4 {
			return Message{}, ErrTruncated
		}
		bodyLen := int(binary.BigEndian.Uint32(b[:4]))
		b = b[4:]
		if len(b) < bodyLen {
			return Message{}, ErrTruncated
		}
		body := string(b[:bodyLen])
		if !utf8.ValidString(body) {
			return Message{}, ErrInvalidUTF8
		}
		m.Content = Text{Body: body}

	case KindFile:
		if len(b) < 2 {
			return Message{}, ErrTruncated
		}
		nameLen := int(binary.BigEndian.Uint16(b[:2]))
		b = b[2:]
		if len(b) < nameLen {
			return Message{}, ErrTruncated
		}
		name := string(b[:nameLen])
		b = b[nameLen:]

		if len(b) < 8 {
			return Message{}, ErrTruncated
		}
		dataLen := int(binary.BigEndian.Uint64(b[:8]))
		b = b[8:]
		if len(b) < dataLen {
			return Message{}, ErrTruncated
		}
		data := make([]byte, dataLen)
		copy(data, b[:dataLen])
		m.Content = File{Name: name, Data: data}

	case KindSignal:
		if len(b) < 1 {
			return Message{}, ErrTruncated
		}
		m.Content = Signal{Code: b[0]}

	default:
		return Message{}, ErrUnknownTag
	}

	return m, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
