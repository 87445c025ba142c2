// Package session implements the per-connection handler (spec §4.4):
// handshake, then three cooperating activities (inbound reader, outbound
// writer, liveness watchdog), then teardown.
//
// The shape is the teacher's websocket.Conn generalized from a single
// Read/Write pair guarded by one mutex into three independent
// goroutines coordinated by golang.org/x/sync/errgroup, since spec §5
// requires any one activity's failure to promptly cancel the other two
// without ever skipping teardown — errgroup.WithContext is the idiomatic
// way to get "first error wins, everyone else is cancelled" in Go.
package session

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/coregx/chatbroker/internal/chatmsg"
	"github.com/coregx/chatbroker/internal/config"
	"github.com/coregx/chatbroker/internal/outbox"
	"github.com/coregx/chatbroker/internal/registry"
	"github.com/coregx/chatbroker/internal/router"
	"github.com/coregx/chatbroker/internal/telemetry"
	"github.com/coregx/chatbroker/internal/wireframe"
)

// Serve drives one accepted connection end to end: handshake, the three
// activities, and teardown. It returns only after the connection is
// fully torn down and removed from reg. Serve never panics past this
// call: a panic in any activity is recovered and reported as a
// transport failure, so one misbehaving connection can never take the
// broker down with it.
func Serve(ctx context.Context, conn net.Conn, reg *registry.Registry, cfg config.Config) (err error) {
	id := uuid.New()
	log := telemetry.Session

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("conn %s: recovered panic: %v", id, r)
			err = fmt.Errorf("session: panic: %v", r)
		}
	}()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	name, herr := readUsername(reader, cfg.MaxFramePayload)
	if herr != nil {
		log.Warningf("conn %s: handshake failed: %v", id, herr)
		writeRejection(writer, ErrInvalidUsername.Error())
		_ = conn.Close()
		return herr
	}

	ob := outbox.New()
	participant, herr := reg.Insert(name, ob)
	if herr != nil {
		log.Warningf("conn %s: handshake failed for %q: %v", id, name, herr)
		writeRejection(writer, ErrUsernameTaken.Error())
		_ = conn.Close()
		return fmt.Errorf("%w: %w", ErrUsernameTaken, herr)
	}

	log.Infof("conn %s: %q joined", id, name)
	telemetry.ConnectedParticipants.Inc()

	defer func() {
		reg.Remove(name)
		ob.Close()
		telemetry.ConnectedParticipants.Dec()
		log.Infof("conn %s: %q left", id, name)
		reg.BroadcastToOthers(name, encodeLeave(name))
	}()

	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())

	// Each activity runs in its own goroutine, out of reach of the
	// recover above, so each one recovers its own panics.
	guard := func(activity func() error) func() error {
		return func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("conn %s: recovered panic: %v", id, r)
					err = fmt.Errorf("session: panic: %v", r)
				}
			}()
			return activity()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(func() error { return readLoop(gctx, reader, reg, participant, cfg, &lastActivity) }))
	g.Go(guard(func() error { return writeLoop(gctx, writer, ob) }))
	g.Go(guard(func() error { return watchdog(gctx, &lastActivity, cfg.HeartbeatTimeout) }))

	// readLoop blocks in a network Read with no deadline of its own; if
	// the writer or watchdog activity fails first, closing conn here is
	// what actually unblocks it, rather than waiting for the deferred
	// cleanup below (which can't run until all three have returned).
	unblock := make(chan struct{})
	go func() {
		select {
		case <-gctx.Done():
			_ = conn.Close()
		case <-unblock:
		}
	}()

	err = g.Wait()
	close(unblock)
	_ = conn.Close()

	if err != nil {
		log.Warningf("conn %s: %q disconnected: %v", id, name, err)
	}
	return err
}

// readLoop is the inbound activity: decode frames, route them, and
// enqueue the resulting deliveries. It returns (ending the session) on
// any transport or decode error (spec §7).
func readLoop(ctx context.Context, r *bufio.Reader, reg *registry.Registry, self *registry.Participant, cfg config.Config, lastActivity *atomic.Int64) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		payload, err := wireframe.ReadFrame(r, cfg.MaxFramePayload)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		msg, err := chatmsg.Decode(payload)
		if err != nil {
			return fmt.Errorf("decode message: %w", err)
		}

		lastActivity.Store(time.Now().UnixNano())

		// Always trust the registry binding, never whatever the client
		// put in its own record: a forged non-empty Sender must not
		// pass through to routing (spec §4.4(b)(1), "defensive sender
		// field").
		msg.Sender = self.Name

		deliveries := router.Route(msg, reg.Snapshot())
		observeRouted(msg)

		for _, d := range deliveries {
			encoded, err := chatmsg.Encode(d.Message)
			if err != nil {
				continue
			}
			d.To.Outbox.Push(encoded)
		}
	}
}

// writeLoop is the outbound activity: drain the participant's Outbox and
// write each payload as a frame. It returns cleanly once the Outbox is
// closed (normal teardown), or with an error if the write itself fails.
//
// ob.Pop blocks until an item arrives, so writeLoop also watches ctx: if
// the reader or watchdog activity fails first, ctx is cancelled and this
// goroutine closes ob itself to unblock its own Pop rather than wait for
// Serve's deferred cleanup, which only runs after all three activities
// have already returned.
func writeLoop(ctx context.Context, w *bufio.Writer, ob *outbox.Outbox) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ob.Close()
		case <-stop:
		}
	}()

	for {
		payload, ok := ob.Pop()
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		}

		if err := wireframe.WriteFrame(w, payload); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
}

// watchdog is the liveness activity: it tears the connection down if no
// inbound frame has arrived within the configured timeout (spec §4.4:
// "10s idle timeout versus a 1s client heartbeat").
func watchdog(ctx context.Context, lastActivity *atomic.Int64, timeout time.Duration) error {
	ticker := time.NewTicker(timeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			last := time.Unix(0, lastActivity.Load())
			if time.Since(last) > timeout {
				telemetry.HeartbeatTimeouts.Inc()
				return ErrHeartbeatTimeout
			}
		}
	}
}

func encodeLeave(name string) []byte {
	msg := chatmsg.Message{
		Sender:    "server",
		Timestamp: time.Now(),
		Content:   chatmsg.Text{Body: fmt.Sprintf("%s has left the chat.", name)},
	}
	payload, err := chatmsg.Encode(msg)
	if err != nil {
		return nil
	}
	return payload
}

func observeRouted(msg chatmsg.Message) {
	switch c := msg.Content.(type) {
	case chatmsg.Signal:
		telemetry.MessagesRouted.WithLabelValues(telemetry.OutcomeSignal).Inc()
	case chatmsg.File:
		telemetry.MessagesRouted.WithLabelValues(telemetry.OutcomeFile).Inc()
	case chatmsg.Text:
		if len(c.Body) > 0 && c.Body[0] == '@' {
			telemetry.MessagesRouted.WithLabelValues(telemetry.OutcomeWhisper).Inc()
			return
		}
		telemetry.MessagesRouted.WithLabelValues(telemetry.OutcomeBroadcast).Inc()
	}
}
