// Package telemetry wires the logging and metrics shared across
// registry, session, and broker: one named logger per package, in the
// style of xendarboh-katzenpost's op/go-logging setup, plus a small set
// of Prometheus collectors covering the broker's lifecycle events.
package telemetry

import (
	"os"

	logging "gopkg.in/op/go-logging.v1"
)

// Loggers, one per subsystem, matching xendarboh-katzenpost's
// module-scoped naming convention.
var (
	Registry = logging.MustGetLogger("registry")
	Session  = logging.MustGetLogger("session")
	Broker   = logging.MustGetLogger("broker")
)

const logFormat = `%{color}%{time:15:04:05.000} %{level:.4s} %{module}%{color:reset} %{message}`

func init() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter(logFormat)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.INFO, "")
	logging.SetBackend(leveled)
}

// SetLevel sets the minimum log level for all telemetry loggers. Called
// by cmd/chatbroker when a verbosity flag is set.
func SetLevel(level logging.Level) {
	logging.SetLevel(level, "registry")
	logging.SetLevel(level, "session")
	logging.SetLevel(level, "broker")
}
