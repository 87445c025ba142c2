// Package broker implements the top-level server (spec §4.6): bind,
// accept loop, and graceful shutdown.
package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/coregx/chatbroker/internal/chatmsg"
	"github.com/coregx/chatbroker/internal/config"
	"github.com/coregx/chatbroker/internal/registry"
	"github.com/coregx/chatbroker/internal/session"
	"github.com/coregx/chatbroker/internal/telemetry"
)

// shutdownDrain is how long Shutdown waits after enqueuing the shutdown
// notice before clearing the registry, giving writer activities time to
// flush it (spec §4.6).
const shutdownDrain = 1 * time.Second

// Broker owns the listener and the participant registry, and runs every
// accepted connection through session.Serve.
type Broker struct {
	cfg      config.Config
	reg      *registry.Registry
	listener net.Listener

	wg sync.WaitGroup

	shutdownOnce sync.Once
}

// New constructs a Broker with the given configuration. It does not bind
// a listener until Start is called.
func New(cfg config.Config) *Broker {
	return &Broker{cfg: cfg, reg: registry.New()}
}

// Start binds the listener. A bind failure is fatal (spec §7) and is
// returned directly, never logged-and-continued.
func (b *Broker) Start() error {
	ln, err := net.Listen("tcp", b.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("broker: bind %s: %w", b.cfg.ListenAddress, err)
	}
	b.listener = ln
	telemetry.Broker.Infof("listening on %s", b.cfg.ListenAddress)
	return nil
}

// Run accepts connections until ctx is cancelled, at which point it
// closes the listener, runs the graceful shutdown sequence, then cancels
// every in-flight connection and waits for them to finish. Accept
// errors that are not the result of the listener closing are logged and
// non-fatal (spec §7): the loop keeps accepting.
func (b *Broker) Run(ctx context.Context) error {
	// Connections run under their own context, cancelled only after
	// Shutdown's drain window, so their writers can still deliver the
	// shutdown notice.
	sessCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()

	go func() {
		<-ctx.Done()
		_ = b.listener.Close()
	}()

	for {
		conn, err := b.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errListenerClosed(err) {
				break
			}
			telemetry.AcceptErrors.Inc()
			telemetry.Broker.Warningf("accept: %v", err)
			continue
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := session.Serve(sessCtx, conn, b.reg, b.cfg); err != nil {
				telemetry.Broker.Debugf("connection ended: %v", err)
			}
		}()
	}

	b.Shutdown()
	cancelSessions()
	b.wg.Wait()
	return nil
}

// Shutdown runs the graceful drain sequence exactly once: snapshot the
// registry, enqueue a shutdown notice to everyone, wait briefly for
// writers to flush it, then clear the registry (spec §4.6). It does not
// close individual connections itself; Run cancels the connections'
// context once Shutdown returns, and each session.Serve call then tears
// its own connection down.
func (b *Broker) Shutdown() {
	b.shutdownOnce.Do(func() {
		telemetry.Broker.Info("shutting down")

		notice := chatmsg.Message{
			Sender:    "server",
			Timestamp: time.Now(),
			Content:   chatmsg.Text{Body: "Server is shutting down..."},
		}
		payload, err := chatmsg.Encode(notice)
		if err == nil {
			b.reg.BroadcastToAll(payload)
		}

		time.Sleep(shutdownDrain)

		for _, p := range b.reg.Snapshot() {
			b.reg.Remove(p.Name)
		}
	})
}

// Addr returns the bound listener's address. Start must have succeeded
// first.
func (b *Broker) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// errListenerClosed reports whether err is the sentinel net package
// returns from Accept after Close, used so Run can distinguish a
// deliberate shutdown from a genuine accept failure.
func errListenerClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
