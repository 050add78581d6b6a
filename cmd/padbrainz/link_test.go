package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEngineServer hosts a WebSocket endpoint whose handler receives each
// incoming message and returns the reply to write, or nil to close the
// connection without replying.
func newEngineServer(t *testing.T, handler func(msg []byte) []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply := handler(msg)
			if reply == nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// TestEngineClient_FetchState tests the probe/snapshot round trip: an empty
// message out, a decoded SequencerState back.
func TestEngineClient_FetchState(t *testing.T) {
	var probe []byte
	snapshot := SequencerState{
		Tempo:       128,
		Playing:     true,
		Division:    16,
		PatternID:   2,
		PatternName: "verse",
		Tracks: []TrackState{
			{Name: "kick", Slots: []int{100, 0, 0, 0}, Idx: 1, Len: 4},
		},
	}
	srv := newEngineServer(t, func(msg []byte) []byte {
		probe = msg
		reply, _ := json.Marshal(snapshot)
		return reply
	})

	client, err := NewEngineClient(wsURL(srv), testLogger(), 2*time.Second)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	state, err := client.FetchState()
	if err != nil {
		t.Fatalf("FetchState failed: %v", err)
	}
	if len(probe) != 0 {
		t.Errorf("expected an empty probe message, got %q", probe)
	}
	if state.Tempo != 128 || !state.Playing || state.Division != 16 {
		t.Errorf("unexpected snapshot: %+v", state)
	}
	if trk := state.Track(0); trk.Name != "kick" || trk.Len != 4 || trk.Idx != 1 {
		t.Errorf("unexpected track 0: %+v", trk)
	}
}

// TestEngineClient_FetchState_MalformedReply tests that an undecodable
// snapshot surfaces as ErrDecode, not a transport failure.
func TestEngineClient_FetchState_MalformedReply(t *testing.T) {
	srv := newEngineServer(t, func(msg []byte) []byte {
		return []byte("not json{")
	})

	client, err := NewEngineClient(wsURL(srv), testLogger(), 2*time.Second)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	_, err = client.FetchState()
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Errorf("malformed reply must not classify as transport failure: %v", err)
	}
}

// TestEngineClient_Send_Acknowledged tests the command envelope on the wire
// and a clean acknowledgment.
func TestEngineClient_Send_Acknowledged(t *testing.T) {
	var got commandEnvelope
	srv := newEngineServer(t, func(msg []byte) []byte {
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Errorf("undecodable command envelope: %v", err)
		}
		return []byte(`{"ok":true}`)
	})

	client, err := NewEngineClient(wsURL(srv), testLogger(), 2*time.Second)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	if err := client.Send(SetTempo{Tempo: 128}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Cmd != "set_tempo" {
		t.Errorf("expected cmd set_tempo, got %q", got.Cmd)
	}
	var args struct {
		Tempo int `json:"tempo"`
	}
	if err := json.Unmarshal(got.Args, &args); err != nil || args.Tempo != 128 {
		t.Errorf("expected args {tempo:128}, got %s (%v)", got.Args, err)
	}
}

// TestEngineClient_Send_Rejected tests that an engine-side rejection is a
// plain error carrying the engine's message, not a link failure.
func TestEngineClient_Send_Rejected(t *testing.T) {
	srv := newEngineServer(t, func(msg []byte) []byte {
		return []byte(`{"ok":false,"error":"no such pattern"}`)
	})

	client, err := NewEngineClient(wsURL(srv), testLogger(), 2*time.Second)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	err = client.Send(SetPattern{PatternIndex: 99})
	if err == nil {
		t.Fatal("expected an error for a rejected command")
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, ErrDecode) {
		t.Errorf("rejection must not classify as a link failure: %v", err)
	}
	if !strings.Contains(err.Error(), "no such pattern") {
		t.Errorf("expected the engine's message in the error, got %v", err)
	}
}

// TestEngineClient_TransportFailure tests that a connection dropped
// mid-round-trip surfaces as ErrTransport.
func TestEngineClient_TransportFailure(t *testing.T) {
	srv := newEngineServer(t, func(msg []byte) []byte {
		return nil // close without replying
	})

	client, err := NewEngineClient(wsURL(srv), testLogger(), time.Second)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	_, err = client.FetchState()
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}
