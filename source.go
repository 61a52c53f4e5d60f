//go:build darwin || linux

package player

import (
	"context"
	"sync"
	"sync/atomic"
)

// FrameSource adapts a Player's push-style frame notifications into a
// blocking pull API. It implements StreamHandler; pass it as the player's
// handler and bind the player afterwards:
//
//	src := NewFrameSource(nil)
//	p, err := New(PlayerConfig{Handler: src})
//	src.Bind(p)
//
// Delivery is latest-wins: when the consumer falls behind, older snapshots
// are dropped.
type FrameSource struct {
	next StreamHandler // optional chained handler

	mu      sync.Mutex
	grabber frameGrabber

	frames chan *VideoFrame
	closed atomic.Bool
	done   chan struct{}
}

// NewFrameSource creates a frame source. next, when non-nil, receives all
// notifications after the source processed them.
func NewFrameSource(next StreamHandler) *FrameSource {
	return &FrameSource{
		next:   next,
		frames: make(chan *VideoFrame, 1),
		done:   make(chan struct{}),
	}
}

// frameGrabber is the slice of Player the source needs.
type frameGrabber interface {
	Frame() (*VideoFrame, error)
}

// Bind attaches the player the source snapshots frames from.
func (s *FrameSource) Bind(p *Player) {
	s.bind(p)
}

func (s *FrameSource) bind(g frameGrabber) {
	s.mu.Lock()
	s.grabber = g
	s.mu.Unlock()
}

// ReadFrame blocks until the next decoded frame snapshot.
func (s *FrameSource) ReadFrame(ctx context.Context) (*VideoFrame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	case frame := <-s.frames:
		return frame, nil
	}
}

// Close stops frame delivery. The bound player is not closed.
func (s *FrameSource) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
	}
	return nil
}

func (s *FrameSource) OnInitialized() {
	if s.next != nil {
		s.next.OnInitialized()
	}
}

func (s *FrameSource) OnPlaying(playing bool) {
	if s.next != nil {
		s.next.OnPlaying(playing)
	}
}

func (s *FrameSource) OnCompleted() {
	if s.next != nil {
		s.next.OnCompleted()
	}
}

// OnFrameDecoded snapshots the player's current frame. Runs on the
// pipeline's streaming thread, so it never blocks: a full channel drops the
// stale frame in favor of the new one.
func (s *FrameSource) OnFrameDecoded() {
	if s.next != nil {
		s.next.OnFrameDecoded()
	}
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	g := s.grabber
	s.mu.Unlock()
	if g == nil {
		return
	}

	frame, err := g.Frame()
	if err != nil {
		return
	}

	for {
		select {
		case s.frames <- frame:
			return
		default:
			select {
			case <-s.frames:
			default:
			}
		}
	}
}
