//go:build linux

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// EvdevEncoder accumulates the detents a gpio-rotary-encoder device
// reports. The epoll goroutine is the only writer; the control loop reads
// Position once per tick, so an atomic is all the synchronization needed.
type EvdevEncoder struct {
	pos atomic.Int64
}

func (e *EvdevEncoder) Position() int {
	return int(e.pos.Load())
}

func (e *EvdevEncoder) add(delta int32) {
	e.pos.Add(int64(delta))
}

// runEncoderEpoll reads relative-axis events from all encoder devices with
// one epoll goroutine and folds them into the matching encoder's position.
//
// One goroutine with epoll instead of a blocking-read goroutine per device:
// the kernel wakes us only when a knob actually moves.
func runEncoderEpoll(files []*os.File, encoders []*EvdevEncoder, readErr chan<- error) {
	if len(files) == 0 || len(files) != len(encoders) {
		readErr <- fmt.Errorf("encoder devices (%d) and encoders (%d) must pair up", len(files), len(encoders))
		return
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		readErr <- fmt.Errorf("epoll_create1: %w", err)
		return
	}
	defer unix.Close(epfd)

	fdToEncoder := make(map[int]*EvdevEncoder)
	fdToFile := make(map[int]*os.File)

	for i, f := range files {
		fd := int(f.Fd())
		fdToEncoder[fd] = encoders[i]
		fdToFile[fd] = f

		event := unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(fd),
		}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			readErr <- fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
			return
		}
	}

	const maxEvents = 32
	epollEvents := make([]unix.EpollEvent, maxEvents)
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		n, err := unix.EpollWait(epfd, epollEvents, -1)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			readErr <- fmt.Errorf("epoll_wait: %w", err)
			return
		}

		for i := 0; i < n; i++ {
			fd := int(epollEvents[i].Fd)
			enc := fdToEncoder[fd]
			f := fdToFile[fd]
			if enc == nil || f == nil {
				continue
			}

			if _, err := io.ReadFull(f, buf); err != nil {
				readErr <- fmt.Errorf("read encoder %s: %w", f.Name(), err)
				return
			}

			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				// Skip malformed events
				continue
			}

			if ev.Type != EV_REL {
				continue
			}
			switch ev.Code {
			case REL_X, REL_DIAL, REL_WHEEL:
				enc.add(ev.Value)
			}
		}
	}
}
