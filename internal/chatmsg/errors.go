// Package chatmsg implements the wire codec for chat messages (spec §4.1).
//
// Package chatmsg provides a bidirectional mapping between Message values
// and byte strings. It performs no I/O: callers pair it with package
// wireframe to move the encoded bytes over a stream.
package chatmsg

import "errors"

// Decode error types.
//
// These are returned by Decode when the supplied bytes cannot be
// reconstructed into a Message. Encode returns only ErrUnknownTag, and
// only for a Message whose Content is not a Text, File or Signal value.
var (
	// ErrTruncated indicates the byte string ended before a declared
	// length was satisfied (sender, text body, file name, or file data).
	ErrTruncated = errors.New("chatmsg: truncated record")

	// ErrUnknownTag indicates the content tag byte did not match any of
	// Text, File, or Signal.
	ErrUnknownTag = errors.New("chatmsg: unknown content tag")

	// ErrInvalidUTF8 indicates the sender or text body is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("chatmsg: invalid UTF-8")
)
