package main

// SequencerState is the engine's full snapshot, mirrored read-only on the
// controller. The cached copy is replaced wholesale on every successful
// fetch and never mutated locally; on a failed fetch the previous snapshot
// stays visible.
type SequencerState struct {
	Tempo           int          `json:"tempo"`
	Playing         bool         `json:"playing"`
	Division        int          `json:"division"`
	Swing           int          `json:"swing"`
	DefaultLen      int          `json:"default_len"`
	PatternID       int          `json:"pattern_id"`
	PatternLen      int          `json:"pattern_len"`
	PatternName     string       `json:"pattern_name"`
	QueuedPatternID int          `json:"queued_pattern_id"`
	LatencyS        float64      `json:"latency_s"`
	Tracks          []TrackState `json:"trks"`
}

// TrackState is one track of the running pattern.
type TrackState struct {
	Name  string `json:"name"`
	Slots []int  `json:"slots"` // per-step velocities, 0 = silent
	Idx   int    `json:"idx"`   // current step index
	Len   int    `json:"len"`   // step count
}

// Track returns the i-th track, or a zero track when the snapshot has not
// arrived yet or the index is out of range. Modules render from whatever
// snapshot is cached, including the empty one before the first sync.
func (s SequencerState) Track(i int) TrackState {
	if i < 0 || i >= len(s.Tracks) {
		return TrackState{}
	}
	return s.Tracks[i]
}
