//go:build darwin || linux

package player

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unsafe"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(PlayerConfig{
		Pipeline: PipelineConfig{SocketPath: "/tmp/s", Width: -1, Height: 720, FPS: 30},
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New = %v, want ErrInvalidConfig", err)
	}
}

func TestClosedPlayerOperations(t *testing.T) {
	// A zero player has no pipeline and behaves as closed.
	p := &Player{}

	if err := p.Play(); !errors.Is(err, ErrClosed) {
		t.Errorf("Play = %v, want ErrClosed", err)
	}
	if err := p.Pause(); !errors.Is(err, ErrClosed) {
		t.Errorf("Pause = %v, want ErrClosed", err)
	}
	if err := p.Stop(); !errors.Is(err, ErrClosed) {
		t.Errorf("Stop = %v, want ErrClosed", err)
	}
	if err := p.Seek(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Seek = %v, want ErrClosed", err)
	}
	if err := p.Init(); !errors.Is(err, ErrClosed) {
		t.Errorf("Init = %v, want ErrClosed", err)
	}
	if got := p.DurationMillis(); got != -1 {
		t.Errorf("DurationMillis = %d, want -1", got)
	}
	if got := p.PositionMillis(); got != -1 {
		t.Errorf("PositionMillis = %d, want -1", got)
	}
	if buf := p.FrameBuffer(); buf != nil {
		t.Error("FrameBuffer should be nil without frames")
	}
	if _, err := p.Frame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Frame = %v, want ErrNoFrame", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestSetPlaybackRateRejectsNonPositive(t *testing.T) {
	if !Available() {
		t.Skip("gstreamer not available")
	}
	p := newTestPlayer(t)
	defer p.Close()

	for _, rate := range []float64{0, -1} {
		if err := p.SetPlaybackRate(rate); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("SetPlaybackRate(%v) = %v, want ErrInvalidRate", rate, err)
		}
	}
}

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	cfg := DefaultPipelineConfig()
	cfg.SocketPath = filepath.Join(t.TempDir(), "shmsock")

	p, err := New(PlayerConfig{
		URI:      "/tmp/video.mp4",
		Handler:  &mockStreamHandler{},
		Pipeline: cfg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewAndClose(t *testing.T) {
	if !Available() {
		t.Skip("gstreamer not available")
	}

	p := newTestPlayer(t)
	if got := p.State(); got != PlayerStateIdle {
		t.Errorf("State = %s, want idle", got)
	}
	if !strings.HasPrefix(p.URI(), "file://") {
		t.Errorf("URI = %q, want file:// form", p.URI())
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := p.State(); got != PlayerStateClosed {
		t.Errorf("State after Close = %s", got)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if err := p.Play(); !errors.Is(err, ErrClosed) {
		t.Errorf("Play after Close = %v, want ErrClosed", err)
	}
}

func TestParseURI(t *testing.T) {
	if !Available() {
		t.Skip("gstreamer not available")
	}
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	if got := parseURI("http://example.com/a.mp4"); got != "http://example.com/a.mp4" {
		t.Errorf("valid URI rewritten to %q", got)
	}
	if got := parseURI("/tmp/video.mp4"); got != "file:///tmp/video.mp4" {
		t.Errorf("parseURI(path) = %q", got)
	}
	if got := parseURI(""); got != "" {
		t.Errorf("parseURI(empty) = %q", got)
	}
}

func TestVersion(t *testing.T) {
	if !Available() {
		t.Skip("gstreamer not available")
	}
	major, _, _ := Version()
	if major != 1 {
		t.Errorf("gstreamer major version = %d, want 1", major)
	}
}

func TestAutoRepeatToggle(t *testing.T) {
	p := &Player{}
	if p.AutoRepeat() {
		t.Error("auto-repeat should default to off")
	}
	p.SetAutoRepeat(true)
	if !p.AutoRepeat() {
		t.Error("SetAutoRepeat(true) not observed")
	}
}

func TestSampleHandlerUnknownPlayer(t *testing.T) {
	want := int64(gstFlowError)
	if got := newSampleHandler(0, ^uintptr(0)); got != uintptr(want) {
		t.Errorf("newSampleHandler = %#x, want sign-extended flow error", got)
	}
}

func TestBusEOSSetsCompleted(t *testing.T) {
	p := &Player{handler: NopStreamHandler}

	msg := gstMessage{MsgType: gstMessageEOS}
	p.handleMessage(uintptr(unsafe.Pointer(&msg)))

	p.completedMu.Lock()
	got := p.completed
	p.completedMu.Unlock()
	if !got {
		t.Error("EOS bus message did not set the completed flag")
	}
}

func TestCheckCompletedNotifiesHandler(t *testing.T) {
	h := &mockStreamHandler{}
	p := &Player{handler: h}

	p.checkCompleted()
	if h.completed != 0 {
		t.Error("OnCompleted fired without a pending end-of-stream")
	}

	p.completedMu.Lock()
	p.completed = true
	p.completedMu.Unlock()

	p.checkCompleted()
	if h.completed != 1 {
		t.Errorf("OnCompleted fired %d times, want 1", h.completed)
	}

	// The flag is consumed; a second check stays quiet.
	p.checkCompleted()
	if h.completed != 1 {
		t.Errorf("OnCompleted fired %d times after consumption, want 1", h.completed)
	}
}

func TestCheckCompletedAutoRepeat(t *testing.T) {
	h := &mockStreamHandler{}
	p := &Player{handler: h}
	p.SetAutoRepeat(true)

	p.completedMu.Lock()
	p.completed = true
	p.completedMu.Unlock()

	// Auto-repeat restarts the stream instead of reporting completion.
	p.checkCompleted()
	if h.completed != 0 {
		t.Errorf("OnCompleted fired %d times with auto-repeat on, want 0", h.completed)
	}

	p.completedMu.Lock()
	if p.completed {
		t.Error("completed flag not consumed by auto-repeat path")
	}
	p.completedMu.Unlock()
}

func TestVolumeStored(t *testing.T) {
	p := &Player{}
	if err := p.SetVolume(0.5); !errors.Is(err, ErrNotSupported) {
		t.Errorf("SetVolume = %v, want ErrNotSupported (no audio path)", err)
	}
	if got := p.Volume(); got != 0.5 {
		t.Errorf("Volume = %v, want stored 0.5", got)
	}
}
