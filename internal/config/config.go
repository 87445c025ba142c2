// Package config loads the broker's optional TOML configuration file,
// layered under CLI flags (SPEC_FULL.md "AMBIENT STACK", spec §9 design
// note: "implementations may expose both as configuration").
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the tunables spec.md's Design Notes call out as
// implementation-defined: the heartbeat ratio, bind address, and frame
// size limits.
type Config struct {
	// ListenAddress is the TCP address the broker binds (spec §4.6).
	ListenAddress string `toml:"listen_address"`

	// HeartbeatInterval is how often a well-behaved client is expected
	// to send a Signal (spec §3 Participant lifecycle: "1s heartbeat").
	HeartbeatInterval time.Duration `toml:"heartbeat_interval"`

	// HeartbeatTimeout is how long the watchdog waits without any
	// inbound frame before it tears the connection down (spec §4.4:
	// "10s idle timeout").
	HeartbeatTimeout time.Duration `toml:"heartbeat_timeout"`

	// MaxFramePayload bounds a single frame's payload (spec §4.2).
	MaxFramePayload uint64 `toml:"max_frame_payload"`

	// WriteChunkSize is loaded from the file but not read by any
	// package: wireframe.WriteFrame always writes payloads in its own
	// fixed 8192-byte chunks.
	WriteChunkSize int `toml:"write_chunk_size"`
}

// Default returns the configuration the broker uses when no file and no
// overriding flags are supplied.
func Default() Config {
	return Config{
		ListenAddress:     "0.0.0.0:6000",
		HeartbeatInterval: 1 * time.Second,
		HeartbeatTimeout:  10 * time.Second,
		MaxFramePayload:   32 * 1024 * 1024,
		WriteChunkSize:    8192,
	}
}

// Load reads a TOML file at path and overlays it onto Default(). A field
// absent from the file keeps the default; a field present in the file
// replaces it, even when its value is zero.
func Load(path string) (Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
