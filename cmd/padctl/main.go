package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// padctl - one-shot engine command sender
// ============================================================================
// Sends a single command to the sequencer engine and prints the ack.
//
// Usage:
//   padctl play
//   padctl stop
//   padctl tempo 128
//   padctl pattern 2
//   padctl division 8
//   padctl sound 3 100
//   padctl slot 0 7 90
//   padctl length 1 32
//
// Options:
//   -engine-url URL    Engine websocket URL (default: ws://127.0.0.1:5555)
// ============================================================================

// commandEnvelope mirrors the daemon's wire framing
// (duplicated here to keep padctl a standalone binary).
type commandEnvelope struct {
	Cmd  string `json:"cmd"`
	Args any    `json:"args,omitempty"`
}

type ackReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func usage() {
	fmt.Println("padctl - send one command to the sequencer engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  padctl [-engine-url URL] COMMAND [ARGS]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  play                      start the sequencer")
	fmt.Println("  stop                      stop the sequencer")
	fmt.Println("  tempo BPM                 set tempo")
	fmt.Println("  pattern INDEX             switch pattern")
	fmt.Println("  division DIV              set step division")
	fmt.Println("  sound TRACK VELOCITY      fire a sound immediately")
	fmt.Println("  slot TRACK SLOT VELOCITY  write a step velocity")
	fmt.Println("  length TRACK STEPS        resize a track")
	os.Exit(1)
}

func main() {
	engineURL := "ws://127.0.0.1:5555"
	args := os.Args[1:]

	if len(args) >= 2 && args[0] == "-engine-url" {
		engineURL = args[1]
		args = args[2:]
	}
	if len(args) < 1 {
		usage()
	}

	env, err := buildEnvelope(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		usage()
	}

	payload, err := json.Marshal(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	d := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := d.Dial(engineURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to %s: %v\n", engineURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		fmt.Fprintln(os.Stderr, "error: write failed:", err)
		os.Exit(1)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: no ack:", err)
		os.Exit(1)
	}

	var ack ackReply
	if err := json.Unmarshal(reply, &ack); err != nil {
		fmt.Fprintf(os.Stderr, "error: undecodable ack: %s\n", string(reply))
		os.Exit(1)
	}
	if !ack.OK {
		fmt.Fprintf(os.Stderr, "engine rejected %s: %s\n", env.Cmd, ack.Error)
		os.Exit(1)
	}
	fmt.Printf("%s: ok\n", env.Cmd)
}

// buildEnvelope maps the CLI verbs onto the engine's closed command set.
func buildEnvelope(args []string) (commandEnvelope, error) {
	ints := func(n int) ([]int, error) {
		if len(args)-1 != n {
			return nil, fmt.Errorf("%s takes %d argument(s)", args[0], n)
		}
		out := make([]int, n)
		for i := 0; i < n; i++ {
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: bad argument %q", args[0], args[i+1])
			}
			out[i] = v
		}
		return out, nil
	}

	switch args[0] {
	case "play":
		return commandEnvelope{Cmd: "play_sequencer"}, nil
	case "stop":
		return commandEnvelope{Cmd: "stop_sequencer"}, nil
	case "tempo":
		v, err := ints(1)
		if err != nil {
			return commandEnvelope{}, err
		}
		return commandEnvelope{Cmd: "set_tempo", Args: map[string]int{"tempo": v[0]}}, nil
	case "pattern":
		v, err := ints(1)
		if err != nil {
			return commandEnvelope{}, err
		}
		return commandEnvelope{Cmd: "set_pattern", Args: map[string]int{"pattern_index": v[0]}}, nil
	case "division":
		v, err := ints(1)
		if err != nil {
			return commandEnvelope{}, err
		}
		return commandEnvelope{Cmd: "set_division", Args: map[string]int{"division": v[0]}}, nil
	case "sound":
		v, err := ints(2)
		if err != nil {
			return commandEnvelope{}, err
		}
		return commandEnvelope{Cmd: "play_sound", Args: map[string]int{
			"track_index": v[0], "velocity": v[1]}}, nil
	case "slot":
		v, err := ints(3)
		if err != nil {
			return commandEnvelope{}, err
		}
		return commandEnvelope{Cmd: "set_slot_velocity", Args: map[string]int{
			"track_index": v[0], "slot_index": v[1], "velocity": v[2]}}, nil
	case "length":
		v, err := ints(2)
		if err != nil {
			return commandEnvelope{}, err
		}
		return commandEnvelope{Cmd: "set_track_length", Args: map[string]int{
			"track_index": v[0], "track_length": v[1]}}, nil
	default:
		return commandEnvelope{}, fmt.Errorf("unknown command %q", args[0])
	}
}
