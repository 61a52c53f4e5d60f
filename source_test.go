//go:build darwin || linux

package player

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockGrabber hands out canned frame snapshots.
type mockGrabber struct {
	frame *VideoFrame
	err   error
}

func (g *mockGrabber) Frame() (*VideoFrame, error) {
	return g.frame, g.err
}

func TestFrameSourceDeliversFrames(t *testing.T) {
	src := NewFrameSource(nil)
	defer src.Close()

	want := testRGBAFrame(8, 8)
	src.bind(&mockGrabber{frame: want})

	src.OnFrameDecoded()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := src.ReadFrame(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Error("delivered frame is not the grabbed snapshot")
	}
}

func TestFrameSourceLatestWins(t *testing.T) {
	src := NewFrameSource(nil)
	defer src.Close()

	g := &mockGrabber{frame: testRGBAFrame(8, 8)}
	src.bind(g)

	src.OnFrameDecoded()
	newer := testRGBAFrame(8, 8)
	newer.Timestamp = 99
	g.frame = newer
	src.OnFrameDecoded() // must not block, replaces the undelivered frame

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := src.ReadFrame(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Timestamp != 99 {
		t.Errorf("got timestamp %d, want latest frame", got.Timestamp)
	}
}

func TestFrameSourceSkipsGrabErrors(t *testing.T) {
	src := NewFrameSource(nil)
	defer src.Close()
	src.bind(&mockGrabber{err: ErrNoFrame})

	src.OnFrameDecoded()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := src.ReadFrame(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadFrame = %v, want deadline exceeded (nothing delivered)", err)
	}
}

func TestFrameSourceReadAfterClose(t *testing.T) {
	src := NewFrameSource(nil)
	src.Close()
	src.Close() // idempotent

	ctx := context.Background()
	if _, err := src.ReadFrame(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadFrame = %v, want ErrClosed", err)
	}

	// Notifications after Close are dropped, not delivered.
	src.bind(&mockGrabber{frame: testRGBAFrame(4, 4)})
	src.OnFrameDecoded()
}

func TestFrameSourceChainsHandler(t *testing.T) {
	next := &mockStreamHandler{}
	src := NewFrameSource(next)
	defer src.Close()

	src.OnInitialized()
	src.OnPlaying(true)
	src.OnFrameDecoded() // no grabber bound, still forwarded
	src.OnCompleted()

	if next.initialized != 1 || next.frames != 1 || next.completed != 1 {
		t.Errorf("chained counts: init=%d frames=%d completed=%d",
			next.initialized, next.frames, next.completed)
	}
	if len(next.playing) != 1 || !next.playing[0] {
		t.Errorf("chained playing = %v", next.playing)
	}
}

func TestFrameSourceReadHonorsContext(t *testing.T) {
	src := NewFrameSource(nil)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.ReadFrame(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadFrame = %v, want context.Canceled", err)
	}
}
