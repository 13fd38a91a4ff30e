package ipc

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeHello, HelloMessage{Client: "arena", Version: "2"})
	if err != nil {
		t.Fatal(err)
	}
	env.ID = "req-1"
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}

	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Errorf("length prefix = %d, payload is %d bytes", got, buf.Len()-4)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if got.Type != TypeHello || got.ID != "req-1" {
		t.Errorf("envelope = %+v", got)
	}
	var hello HelloMessage
	if err := json.Unmarshal(got.Data, &hello); err != nil || hello.Client != "arena" {
		t.Errorf("data = %s (%v)", got.Data, err)
	}
}

func TestReadEnvelopeRejectsBadFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  string
	}{
		{"zero length", []byte{0, 0, 0, 0}, "invalid message length"},
		{"oversized", binary.LittleEndian.AppendUint32(nil, MaxFrameSize+1), "invalid message length"},
		{"truncated payload", append(binary.LittleEndian.AppendUint32(nil, 10), '{'), "read payload"},
		{"not json", append(binary.LittleEndian.AppendUint32(nil, 3), 'a', 'b', 'c'), "unmarshal envelope"},
		{"short prefix", []byte{1, 0}, "read length"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadEnvelope(bytes.NewReader(tc.frame))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestConnectionDispatch(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := NewConnection(server, nil)
	c.RegisterHandler(TypeHello, func(_ context.Context, env Envelope) (*Envelope, error) {
		ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok"})
		return &ack, err
	})
	c.RegisterHandler(TypeCombat, func(context.Context, Envelope) (*Envelope, error) {
		return nil, errors.New("bad turn")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.ReadLoop(ctx)
		close(done)
	}()

	send := func(msgType, id string) {
		t.Helper()
		env, _ := NewEnvelope(msgType, map[string]int{})
		env.ID = id
		if err := WriteEnvelope(client, env); err != nil {
			t.Fatalf("write %s: %v", msgType, err)
		}
	}
	recv := func() Envelope {
		t.Helper()
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		env, err := ReadEnvelope(client)
		if err != nil {
			t.Fatalf("read reply: %v", err)
		}
		return env
	}

	send(TypeHello, "1")
	if reply := recv(); reply.Type != TypeAck || reply.ID != "1" {
		t.Errorf("hello reply = %+v", reply)
	}

	// Unknown types are skipped without a reply; the next request still works.
	send("mystery", "2")
	send(TypeCombat, "3")
	reply := recv()
	if reply.Type != TypeError || reply.ID != "3" {
		t.Fatalf("combat reply = %+v, want error for request 3", reply)
	}
	var msg ErrorMessage
	if err := json.Unmarshal(reply.Data, &msg); err != nil || msg.Error != "bad turn" || msg.RequestType != TypeCombat {
		t.Errorf("error message = %+v (%v)", msg, err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not return after cancel")
	}
}
