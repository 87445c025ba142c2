// Package wireframe implements the length-prefixed frame transport that
// carries chatmsg records over a stream connection (spec §4.2).
//
// A frame is an 8-byte big-endian length prefix followed by that many
// payload bytes. wireframe never interprets the payload; it only
// establishes where one record ends and the next begins.
package wireframe

import "errors"

// Transport errors (spec §7 "Transport: Closed / Truncated / Io").
var (
	// ErrClosed indicates the peer closed the connection cleanly between
	// frames (io.EOF read exactly at a frame boundary).
	ErrClosed = errors.New("wireframe: connection closed")

	// ErrTruncated indicates the connection ended mid-frame: fewer bytes
	// arrived than the length prefix promised.
	ErrTruncated = errors.New("wireframe: truncated frame")

	// ErrFrameTooLarge indicates a length prefix exceeded the configured
	// maximum payload size, refused before any allocation is made.
	ErrFrameTooLarge = errors.New("wireframe: frame exceeds maximum payload size")

	// ErrEmptyFrame indicates a length prefix of zero, which spec §3
	// names invalid on the wire: every frame must carry a payload.
	ErrEmptyFrame = errors.New("wireframe: empty frame")
)
