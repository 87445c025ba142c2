package session

import "errors"

// Handshake errors (spec §4.4, §7: "fatal to the connection only").
var (
	// ErrInvalidUsername is sent back to the client when the proposed
	// name is shorter than three characters or contains anything other
	// than letters and digits.
	ErrInvalidUsername = errors.New("session: invalid username")

	// ErrUsernameTaken is sent back to the client when another
	// connection already holds the requested name.
	ErrUsernameTaken = errors.New("session: username already taken")
)

// Liveness error (spec §4.4, §7: "fatal to the connection; triggers
// teardown").
var ErrHeartbeatTimeout = errors.New("session: heartbeat timeout")
