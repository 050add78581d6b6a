package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Engine commands
// ============================================================================
// Commands are the closed set of requests the sequencer engine accepts. UI
// modules emit them from their input handlers; the control loop executes
// them against the engine link. A failed send is reported, never retried:
// commands are not idempotent (PlaySound in particular), so retry policy
// belongs to whoever emitted the command.
// ============================================================================

// Command is a marker interface over the closed command set.
type Command interface {
	commandName() string
}

// PlaySequencer starts the engine clock.
type PlaySequencer struct{}

// StopSequencer halts the engine clock.
type StopSequencer struct{}

// SetTempo sets the engine tempo in BPM.
type SetTempo struct {
	Tempo int `json:"tempo"`
}

// SetPattern switches the engine to another stored pattern.
type SetPattern struct {
	PatternIndex int `json:"pattern_index"`
}

// SetDivision sets the step division (steps per whole note).
type SetDivision struct {
	Division int `json:"division"`
}

// PlaySound fires one track's sound immediately with the given velocity.
type PlaySound struct {
	TrackIndex int `json:"track_index"`
	Velocity   int `json:"velocity"`
}

// SetSlotVelocity writes a step velocity into the pattern (0 clears it).
type SetSlotVelocity struct {
	TrackIndex int `json:"track_index"`
	SlotIndex  int `json:"slot_index"`
	Velocity   int `json:"velocity"`
}

// SetTrackLength resizes one track's step sequence.
type SetTrackLength struct {
	TrackIndex  int `json:"track_index"`
	TrackLength int `json:"track_length"`
}

func (PlaySequencer) commandName() string   { return "play_sequencer" }
func (StopSequencer) commandName() string   { return "stop_sequencer" }
func (SetTempo) commandName() string        { return "set_tempo" }
func (SetPattern) commandName() string      { return "set_pattern" }
func (SetDivision) commandName() string     { return "set_division" }
func (PlaySound) commandName() string       { return "play_sound" }
func (SetSlotVelocity) commandName() string { return "set_slot_velocity" }
func (SetTrackLength) commandName() string  { return "set_track_length" }

// commandEnvelope is the wire framing for a command request.
type commandEnvelope struct {
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ackReply is the engine's response to a command.
type ackReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// encodeCommand wraps a command in its envelope. Argument-free commands
// serialize with no args field.
func encodeCommand(cmd Command) ([]byte, error) {
	args, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal %s args: %w", cmd.commandName(), err)
	}
	env := commandEnvelope{Cmd: cmd.commandName()}
	if string(args) != "{}" {
		env.Args = args
	}
	return json.Marshal(env)
}
