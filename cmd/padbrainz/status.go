package main

import (
	"fmt"
	"image/draw"
)

// StatusModule shows the raw controller state: encoder positions, button
// levels, live pad values on the primary screen, network address and track
// count on the secondary. It is the bring-up screen; it emits no commands.
type StatusModule struct {
	lastFrame InputFrame
	trackNum  int
	ip        string
}

func NewStatusModule() *StatusModule {
	return &StatusModule{ip: localIP()}
}

func (m *StatusModule) Name() string { return "status" }

func (m *StatusModule) OnState(state SequencerState) {
	m.trackNum = len(state.Tracks)
}

func (m *StatusModule) OnInput(frame InputFrame) []Command {
	m.lastFrame = frame
	// The IP can change under us (DHCP, cable plugged in mid-session), so
	// refresh it opportunistically on button activity instead of every tick.
	if frame.Button1Changed || frame.Button2Changed {
		m.ip = localIP()
	}
	return nil
}

func (m *StatusModule) RenderPrimary(dst draw.Image) {
	f := m.lastFrame
	drawText(dst, 2, 12, fmt.Sprintf("Enc1 %d  Enc2 %d", f.Enc1Pos, f.Enc2Pos))
	drawText(dst, 2, 26, fmt.Sprintf("Btn1 %v  Btn2 %v", f.Button1, f.Button2))
	drawText(dst, 2, 40, fmt.Sprintf("%v", firstN(f.PadValues, 4)))
	drawText(dst, 2, 54, fmt.Sprintf("%v", restAfter(f.PadValues, 4)))
}

func (m *StatusModule) RenderSecondary(dst draw.Image) {
	drawText(dst, 2, 12, "IP: "+m.ip)
	drawText(dst, 2, 26, fmt.Sprintf("Tracks: %d", m.trackNum))
}

// RenderLEDs maps each pad's last velocity onto its strip position as green
// intensity, giving an at-a-glance rattle test for all eight channels.
func (m *StatusModule) RenderLEDs(pixels []RGB) {
	for i, v := range m.lastFrame.PadVelocities {
		if i >= len(pixels) {
			break
		}
		pixels[i] = RGB{G: v * 2}
	}
}

func firstN(v []int, n int) []int {
	if len(v) < n {
		return v
	}
	return v[:n]
}

func restAfter(v []int, n int) []int {
	if len(v) <= n {
		return nil
	}
	return v[n:]
}
