package main

import (
	"fmt"
	"image"
	"image/draw"
	"time"
)

// divisionCycle is the set the sub button steps through.
var divisionCycle = []int{4, 8, 16}

// PlaybackModule is the performance screen: pad strikes fire sounds, the
// main button toggles the transport, the sub encoder adjusts tempo (with
// coarse steps while it is spun fast), and the sub button cycles the step
// division. The primary screen mirrors the running pattern.
type PlaybackModule struct {
	state SequencerState
	rate  *rotaryRate
}

func NewPlaybackModule() *PlaybackModule {
	return &PlaybackModule{rate: newRotaryRate()}
}

func (m *PlaybackModule) Name() string { return "playback" }

func (m *PlaybackModule) OnState(state SequencerState) {
	m.state = state
}

func (m *PlaybackModule) OnInput(frame InputFrame) []Command {
	var cmds []Command

	for i, struck := range frame.PadStruck {
		if struck {
			cmds = append(cmds, PlaySound{TrackIndex: i, Velocity: int(frame.PadVelocities[i])})
		}
	}

	if frame.button1Pressed() {
		if m.state.Playing {
			cmds = append(cmds, StopSequencer{})
		} else {
			cmds = append(cmds, PlaySequencer{})
		}
	}

	if frame.button2Pressed() {
		cmds = append(cmds, SetDivision{Division: nextDivision(m.state.Division)})
	}

	if d := frame.Enc2Delta; d != 0 {
		step := 1
		dir := 1
		if d < 0 {
			dir = -1
		}
		// Spinning the encoder fast within the window switches to coarse
		// 5 BPM steps.
		if m.rate.addStep(dir, tempoSpinWindow) >= tempoSpinThreshold {
			step = tempoCoarseStep
		}
		tempo := clampInt(m.state.Tempo+dir*step, tempoMin, tempoMax)
		if tempo != m.state.Tempo {
			cmds = append(cmds, SetTempo{Tempo: tempo})
		}
	}

	return cmds
}

func nextDivision(current int) int {
	for i, d := range divisionCycle {
		if d == current {
			return divisionCycle[(i+1)%len(divisionCycle)]
		}
	}
	return divisionCycle[0]
}

func (m *PlaybackModule) RenderPrimary(dst draw.Image) {
	trk := m.state.Track(0)
	if trk.Len == 0 {
		drawText(dst, 2, 12, "waiting for engine...")
		return
	}

	width := dst.Bounds().Dx()
	stepIdx := trk.Idx % trk.Len

	drawText(dst, 5, 13, fmt.Sprintf("%d", stepIdx+1))
	if stepIdx > 0 && trk.Len > 1 {
		hline(dst, 0, width*stepIdx/(trk.Len-1), 18)
	}

	// Per-track slot bars with a cursor over the current step.
	const (
		barTop     = 23
		barHeight  = 10
		barSpacing = 5
		labelWidth = 10
	)
	barWidth := width - labelWidth - 5

	for i, track := range m.state.Tracks {
		y := barTop + i*(barHeight+barSpacing)
		if len(track.Name) > 0 {
			drawText(dst, 3, y+barHeight-1, track.Name[:1])
		}
		if track.Len == 0 {
			continue
		}
		seg := barWidth / track.Len
		if seg < 1 {
			seg = 1
		}
		for j, vel := range track.Slots {
			if vel > 0 {
				x := labelWidth + 5 + j*seg
				fillRect(dst, rect(x, y, seg, barHeight), true)
			}
		}
	}

	seg := barWidth / trk.Len
	if seg < 1 {
		seg = 1
	}
	cursorX := labelWidth + 5 + stepIdx*seg
	cursorH := (barHeight + barSpacing) * 3
	outlineRect(dst, rect(cursorX, barTop-1, seg, cursorH))
}

func (m *PlaybackModule) RenderSecondary(dst draw.Image) {
	transport := "stopped"
	if m.state.Playing {
		transport = "playing"
	}
	drawText(dst, 2, 12, fmt.Sprintf("%d BPM  1/%d", m.state.Tempo, m.state.Division))
	drawText(dst, 2, 26, transport)
	drawText(dst, 2, 40, fmt.Sprintf("pattern %d %s", m.state.PatternID, m.state.PatternName))
}

// RenderLEDs runs a step chase across the strip: the current step in amber,
// populated steps dimly lit behind it.
func (m *PlaybackModule) RenderLEDs(pixels []RGB) {
	trk := m.state.Track(0)
	if trk.Len == 0 || len(pixels) == 0 {
		return
	}
	for j, vel := range trk.Slots {
		p := j * len(pixels) / trk.Len
		if p >= len(pixels) {
			continue
		}
		if vel > 0 {
			pixels[p] = RGB{R: 8, G: 2}
		}
	}
	cursor := (trk.Idx % trk.Len) * len(pixels) / trk.Len
	if cursor < len(pixels) && m.state.Playing {
		pixels[cursor] = RGB{R: 64, G: 32}
	}
}

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const (
	tempoMin        = 30
	tempoMax        = 300
	tempoCoarseStep = 5

	tempoSpinThreshold = 3
	tempoSpinWindow    = 200 * time.Millisecond
)
