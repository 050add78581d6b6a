package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// statewatch polls the sequencer engine's state endpoint and prints what
// changed. Useful for checking engine liveness and watching the pattern
// advance without the controller hardware attached.

// engineState mirrors the fields worth watching. Kept local so the tool
// stays a standalone binary.
type engineState struct {
	Tempo    int    `json:"tempo"`
	Playing  bool   `json:"playing"`
	Division int    `json:"division"`
	Pattern  int    `json:"pattern_id"`
	Tracks   []trk  `json:"trks"`
	Name     string `json:"pattern_name"`
}

type trk struct {
	Name  string `json:"name"`
	Slots []int  `json:"slots"`
	Idx   int    `json:"idx"`
	Len   int    `json:"len"`
}

func main() {
	var (
		wsURL    = flag.String("engine-url", "ws://127.0.0.1:5555", "Sequencer engine websocket URL")
		interval = flag.Int("interval", 500, "Polling interval in milliseconds")
		raw      = flag.Bool("raw", false, "Print every raw snapshot instead of deltas")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")
	log.Printf("polling state every %dms\n", *interval)

	pollTicker := time.NewTicker(time.Duration(*interval) * time.Millisecond)
	defer pollTicker.Stop()

	var last *engineState

	for {
		select {
		case <-sigc:
			log.Printf("shutting down...")
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-pollTicker.C:
			// One synchronous round trip per poll: empty probe out, full
			// snapshot back.
			if err := conn.WriteMessage(websocket.TextMessage, []byte{}); err != nil {
				log.Fatalf("probe failed: %v", err)
			}
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Fatalf("read failed: %v", err)
			}

			var st engineState
			if err := json.Unmarshal(message, &st); err != nil {
				fmt.Printf("[UNDECODABLE] %s\n", string(message))
				continue
			}

			if *raw {
				pretty, _ := json.MarshalIndent(st, "", "  ")
				fmt.Printf("%s\n", string(pretty))
				continue
			}
			printDelta(last, st)
			cp := st
			last = &cp
		}
	}
}

// printDelta reports only the fields that moved since the previous poll.
func printDelta(last *engineState, st engineState) {
	if last == nil {
		fmt.Printf("tempo=%d playing=%v division=%d pattern=%d (%s) tracks=%d\n",
			st.Tempo, st.Playing, st.Division, st.Pattern, st.Name, len(st.Tracks))
		return
	}

	var changes []string
	if st.Tempo != last.Tempo {
		changes = append(changes, fmt.Sprintf("tempo %d -> %d", last.Tempo, st.Tempo))
	}
	if st.Playing != last.Playing {
		changes = append(changes, fmt.Sprintf("playing %v -> %v", last.Playing, st.Playing))
	}
	if st.Division != last.Division {
		changes = append(changes, fmt.Sprintf("division %d -> %d", last.Division, st.Division))
	}
	if st.Pattern != last.Pattern {
		changes = append(changes, fmt.Sprintf("pattern %d -> %d", last.Pattern, st.Pattern))
	}
	if len(st.Tracks) > 0 && len(last.Tracks) > 0 && st.Tracks[0].Idx != last.Tracks[0].Idx {
		changes = append(changes, fmt.Sprintf("step %d", st.Tracks[0].Idx))
	}

	if len(changes) > 0 {
		fmt.Println(strings.Join(changes, "  "))
	}
}
