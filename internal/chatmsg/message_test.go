package chatmsg

import (
	"bytes"
	"testing"
	"time"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "text",
			msg:  Message{Sender: "alice", Timestamp: now, Content: Text{Body: "hello room"}},
		},
		{
			name: "empty text body",
			msg:  Message{Sender: "bob", Timestamp: now, Content: Text{Body: ""}},
		},
		{
			name: "file",
			msg: Message{Sender: "carol", Timestamp: now, Content: File{
				Name: "notes.txt",
				Data: []byte("line one\nline two\n"),
			}},
		},
		{
			name: "empty file",
			msg:  Message{Sender: "carol", Timestamp: now, Content: File{Name: "empty.bin", Data: nil}},
		},
		{
			name: "signal",
			msg:  Message{Sender: "dave", Timestamp: now, Content: Signal{Code: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if decoded.Sender != tt.msg.Sender {
				t.Errorf("Sender = %q, want %q", decoded.Sender, tt.msg.Sender)
			}
			if !decoded.Timestamp.Equal(tt.msg.Timestamp) {
				t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, tt.msg.Timestamp)
			}
			if decoded.Content.Kind() != tt.msg.Content.Kind() {
				t.Errorf("Kind = %v, want %v", decoded.Content.Kind(), tt.msg.Content.Kind())
			}

			switch want := tt.msg.Content.(type) {
			case Text:
				got, ok := decoded.Content.(Text)
				if !ok || got.Body != want.Body {
					t.Errorf("Text = %+v, want %+v", decoded.Content, want)
				}
			case File:
				got, ok := decoded.Content.(File)
				if !ok || got.Name != want.Name || !bytes.Equal(got.Data, want.Data) {
					t.Errorf("File = %+v, want %+v", decoded.Content, want)
				}
			case Signal:
				got, ok := decoded.Content.(Signal)
				if !ok || got.Code != want.Code {
					t.Errorf("Signal = %+v, want %+v", decoded.Content, want)
				}
			}
		})
	}
}

func TestDecode_Truncated(t *testing.T) {
	full, err := Encode(Message{
		Sender:    "alice",
		Timestamp: time.Unix(1_700_000_000, 0),
		Content:   Text{Body: "hello"},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	for n := 0; n < len(full); n++ {
		if _, err := Decode(full[:n]); err != ErrTruncated {
			t.Errorf("Decode(b[:%d]) error = %v, want ErrTruncated", n, err)
		}
	}
}

func TestDecode_UnknownTag(t *testing.T) {
	full, err := Encode(Message{
		Sender:    "alice",
		Timestamp: time.Unix(1_700_000_000, 0),
		Content:   Text{Body: "hello"},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	full[0] = 0xFF
	if _, err := Decode(full); err != ErrUnknownTag {
		t.Errorf("Decode() error = %v, want ErrUnknownTag", err)
	}
}

func TestDecode_EmptySenderAllowed(t *testing.T) {
	// The handshake frame (spec §4.4) has no authenticated username yet
	// and is encoded with an empty Sender; Decode must accept it.
	msg := Message{Timestamp: time.Unix(1_700_000_000, 0), Content: Text{Body: "alice"}}

	full, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := Decode(full)
	if err != nil {
		t.Fatalf("Decode() error = %v, want success for empty sender", err)
	}
	if decoded.Sender != "" {
		t.Errorf("Sender = %q, want empty", decoded.Sender)
	}
}

func TestFile_DataPreservedByDecode(t *testing.T) {
	data := []byte("payload")
	msg := Message{
		Sender:    "carol",
		Timestamp: time.Unix(1_700_000_000, 0),
		Content:   File{Name: "f.bin", Data: data},
	}

	encoded, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	f := decoded.Content.(File)
	if !bytes.Equal(f.Data, data) {
		t.Errorf("Data = %q, want %q", f.Data, data)
	}
}
