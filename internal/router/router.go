// Package router implements the routing rules (spec §4.5) as pure
// functions: given one inbound Message and a point-in-time registry
// snapshot, compute the set of outbound deliveries. Router never touches
// an Outbox or a socket, and reads the clock only to timestamp its own
// "User not found" replies — it returns data for the caller to act on,
// which is what keeps it unit-testable without any network or
// concurrency fixture.
package router

import (
	"strings"
	"time"

	"github.com/coregx/chatbroker/internal/chatmsg"
	"github.com/coregx/chatbroker/internal/registry"
)

// whisperNotFound is the literal text sent back to a whisperer whose
// target does not resolve, per spec §4.5 rule 2.
const whisperNotFound = "User not found"

// Delivery names one recipient and the message to hand them.
type Delivery struct {
	To      *registry.Participant
	Message chatmsg.Message
}

// Route applies the routing rules in order and returns the resulting
// deliveries. snapshot must include the sender if the sender is still
// connected; Route looks the sender up by name when it needs to reply
// directly (e.g. a malformed or misaddressed whisper).
//
// Rules, in priority order:
//  1. Signal content is a liveness no-op: no deliveries.
//  2. Text starting with "@" is a whisper: "@target rest". A body with
//     no space after the leading "@" is malformed and is answered with
//     whisperNotFound to the sender. An unresolvable target is answered
//     the same way. A resolvable target receives rest as a single
//     targeted Text, and no one else sees it.
//  3. Any other Text is broadcast to every other connected participant.
//  4. File is broadcast to every other connected participant, sharing
//     the same underlying byte slice rather than copying it per
//     recipient.
func Route(msg chatmsg.Message, snapshot []*registry.Participant) []Delivery {
	switch c := msg.Content.(type) {
	case chatmsg.Signal:
		return nil

	case chatmsg.Text:
		if strings.HasPrefix(c.Body, "@") {
			return routeWhisper(msg, c, snapshot)
		}
		return broadcast(msg, snapshot, msg.Sender)

	case chatmsg.File:
		return broadcast(msg, snapshot, msg.Sender)

	default:
		return nil
	}
}

func routeWhisper(msg chatmsg.Message, c chatmsg.Text, snapshot []*registry.Participant) []Delivery {
	rest := c.Body[1:] // drop leading '@'
	target, body, ok := strings.Cut(rest, " ")
	if !ok {
		return replyNotFound(msg, snapshot)
	}

	for _, p := range snapshot {
		if p.Name != target {
			continue
		}
		return []Delivery{{
			To: p,
			Message: chatmsg.Message{
				Sender:    msg.Sender,
				Timestamp: msg.Timestamp,
				Content:   chatmsg.Text{Body: body},
			},
		}}
	}

	return replyNotFound(msg, snapshot)
}

func replyNotFound(msg chatmsg.Message, snapshot []*registry.Participant) []Delivery {
	for _, p := range snapshot {
		if p.Name != msg.Sender {
			continue
		}
		return []Delivery{{
			To: p,
			Message: chatmsg.Message{
				Sender:    "server",
				Timestamp: time.Now(),
				Content:   chatmsg.Text{Body: whisperNotFound},
			},
		}}
	}
	// Sender has already disconnected; nothing to deliver.
	return nil
}

func broadcast(msg chatmsg.Message, snapshot []*registry.Participant, except string) []Delivery {
	deliveries := make([]Delivery, 0, len(snapshot))
	for _, p := range snapshot {
		if p.Name == except {
			continue
		}
		deliveries = append(deliveries, Delivery{To: p, Message: msg})
	}
	return deliveries
}
