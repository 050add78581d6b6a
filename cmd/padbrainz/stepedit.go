package main

import (
	"fmt"
	"image/draw"
)

// StepEditModule edits the pattern in place: the sub encoder moves the slot
// cursor, the sub button selects the track, and striking any pad writes that
// strike's velocity into the cursor slot. Holding the main button while
// turning the sub encoder resizes the selected track instead of moving the
// cursor.
type StepEditModule struct {
	state SequencerState

	track  int
	cursor int
}

func NewStepEditModule() *StepEditModule {
	return &StepEditModule{}
}

func (m *StepEditModule) Name() string { return "stepedit" }

func (m *StepEditModule) OnState(state SequencerState) {
	m.state = state
	if len(state.Tracks) > 0 {
		m.track %= len(state.Tracks)
	} else {
		m.track = 0
	}
	if l := m.state.Track(m.track).Len; l > 0 {
		m.cursor %= l
	} else {
		m.cursor = 0
	}
}

func (m *StepEditModule) OnInput(frame InputFrame) []Command {
	var cmds []Command

	trk := m.state.Track(m.track)

	if frame.button2Pressed() && len(m.state.Tracks) > 0 {
		m.track = (m.track + 1) % len(m.state.Tracks)
		m.cursor = 0
	}

	if d := frame.Enc2Delta; d != 0 {
		if frame.Button1 {
			// Length edit while the main button is held.
			if trk.Len > 0 {
				length := clampInt(trk.Len+d, trackLenMin, trackLenMax)
				if length != trk.Len {
					cmds = append(cmds, SetTrackLength{TrackIndex: m.track, TrackLength: length})
				}
			}
		} else if trk.Len > 0 {
			m.cursor = ((m.cursor+d)%trk.Len + trk.Len) % trk.Len
		}
	}

	for i, struck := range frame.PadStruck {
		if struck && trk.Len > 0 {
			cmds = append(cmds, SetSlotVelocity{
				TrackIndex: m.track,
				SlotIndex:  m.cursor,
				Velocity:   int(frame.PadVelocities[i]),
			})
			break // one write per tick, first struck pad wins
		}
	}

	return cmds
}

func (m *StepEditModule) RenderPrimary(dst draw.Image) {
	trk := m.state.Track(m.track)
	if trk.Len == 0 {
		drawText(dst, 2, 12, "waiting for engine...")
		return
	}

	width := dst.Bounds().Dx()
	height := dst.Bounds().Dy()

	seg := width / trk.Len
	if seg < 2 {
		seg = 2
	}
	// Velocity bars growing up from the bottom, cursor outlined full height.
	for j, vel := range trk.Slots {
		x := j * seg
		if x+seg > width {
			break
		}
		if vel > 0 {
			barH := (height - 16) * vel / 127
			if barH < 1 {
				barH = 1
			}
			fillRect(dst, rect(x+1, height-barH, seg-1, barH), true)
		}
	}
	outlineRect(dst, rect(m.cursor*seg, 14, seg, height-14))
	drawText(dst, 2, 12, fmt.Sprintf("%s  slot %d", trk.Name, m.cursor+1))
}

func (m *StepEditModule) RenderSecondary(dst draw.Image) {
	trk := m.state.Track(m.track)
	drawText(dst, 2, 12, fmt.Sprintf("track %d/%d", m.track+1, len(m.state.Tracks)))
	drawText(dst, 2, 26, fmt.Sprintf("len %d", trk.Len))
	if trk.Len > 0 && m.cursor < len(trk.Slots) {
		drawText(dst, 2, 40, fmt.Sprintf("vel %d", trk.Slots[m.cursor]))
	}
}

// RenderLEDs marks the cursor position on the strip in blue.
func (m *StepEditModule) RenderLEDs(pixels []RGB) {
	trk := m.state.Track(m.track)
	if trk.Len == 0 || len(pixels) == 0 {
		return
	}
	p := m.cursor * len(pixels) / trk.Len
	if p < len(pixels) {
		pixels[p] = RGB{B: 64}
	}
}

const (
	trackLenMin = 1
	trackLenMax = 64
)
