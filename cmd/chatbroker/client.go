package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/coregx/chatbroker/internal/chatmsg"
	"github.com/coregx/chatbroker/internal/wireframe"
)

// dialRetries and dialBackoff mirror the original client's reconnect
// behavior (original_source/src/client.rs::connect_with_retry): a fixed
// number of attempts with a fixed delay between them, no jitter or
// backoff growth.
const (
	dialRetries = 5
	dialBackoff = 2 * time.Second
)

var clientCommand = &cli.Command{
	Name:      "client",
	Usage:     "connect to a chat broker",
	ArgsUsage: "[address]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "username to join as",
			Required: true,
		},
	},
	Action: runClient,
}

func runClient(c *cli.Context) error {
	addr := c.Args().First()
	if addr == "" {
		addr = "127.0.0.1:6000"
	}
	name := c.String("name")

	conn, err := dialWithRetry(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	w := bufio.NewWriter(conn)
	if err := sendText(w, "", name); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	done := make(chan struct{})
	go readAndPrint(conn, done)
	writeFromStdin(conn, name)
	<-done

	return nil
}

func dialWithRetry(addr string) (net.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= dialRetries; attempt++ {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		fmt.Fprintf(os.Stderr, "connect attempt %d/%d failed: %v\n", attempt, dialRetries, err)
		if attempt < dialRetries {
			time.Sleep(dialBackoff)
		}
	}
	return nil, fmt.Errorf("could not connect to %s after %d attempts: %w", addr, dialRetries, lastErr)
}

func readAndPrint(conn net.Conn, done chan<- struct{}) {
	defer close(done)
	r := bufio.NewReader(conn)
	for {
		payload, err := wireframe.ReadFrame(r, 0)
		if err != nil {
			return
		}
		msg, err := chatmsg.Decode(payload)
		if err != nil {
			continue
		}
		printMessage(msg)
	}
}

func printMessage(msg chatmsg.Message) {
	switch c := msg.Content.(type) {
	case chatmsg.Text:
		fmt.Printf("%s: %s\n", msg.Sender, c.Body)
	case chatmsg.File:
		fmt.Printf("%s sent a file: %s (%d bytes)\n", msg.Sender, c.Name, len(c.Data))
	case chatmsg.Signal:
		// Liveness marker; nothing to show the user.
	}
}

func writeFromStdin(conn net.Conn, name string) {
	w := bufio.NewWriter(conn)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()

		if path, ok := strings.CutPrefix(line, "/file "); ok {
			if err := sendFile(w, name, strings.TrimSpace(path)); err != nil {
				fmt.Fprintf(os.Stderr, "send file: %v\n", err)
			}
			continue
		}

		if err := sendText(w, name, line); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			return
		}
	}
}

func sendText(w *bufio.Writer, sender, body string) error {
	msg := chatmsg.Message{Sender: sender, Timestamp: time.Now(), Content: chatmsg.Text{Body: body}}
	payload, err := chatmsg.Encode(msg)
	if err != nil {
		return err
	}
	return wireframe.WriteFrame(w, payload)
}

func sendFile(w *bufio.Writer, sender, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	msg := chatmsg.Message{
		Sender:    sender,
		Timestamp: time.Now(),
		Content:   chatmsg.File{Name: path, Data: data},
	}
	payload, err := chatmsg.Encode(msg)
	if err != nil {
		return err
	}
	return wireframe.WriteFrame(w, payload)
}
