//go:build darwin || linux

package player

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
)

// PlayerConfig configures a Player.
type PlayerConfig struct {
	// URI is the media location the host hands to the player. The fixed
	// shared-memory pipeline does not consume it, but it is normalized
	// (file paths become file:// URIs) and kept for the host to query.
	URI string

	// Handler receives lifecycle and frame notifications. Nil discards them.
	Handler StreamHandler

	// Pipeline holds the source attributes of the fixed pipeline.
	// Zero-value fields fall back to DefaultPipelineConfig.
	Pipeline PipelineConfig

	// AutoRepeat restarts playback from the beginning on end-of-stream
	// instead of reporting completion.
	AutoRepeat bool
}

// Player wraps one fixed GStreamer decode pipeline:
// shmsrc -> videoconvert -> RGBA appsink.
//
// Decoded frames are retained one at a time; FrameBuffer and Frame expose
// the most recent one. All methods are safe for concurrent use.
type Player struct {
	handler StreamHandler
	cfg     PipelineConfig
	uri     string

	pipeline uintptr
	bus      uintptr
	sink     uintptr

	id    uintptr // registry key handed to C callbacks
	state atomic.Int32

	autoRepeat atomic.Bool

	mu     sync.Mutex // guards rate and volume
	rate   float64
	volume float64

	// frameMu guards the retained buffer handle, the scratch pixel buffer
	// and the current dimensions. The appsink callback replaces the buffer
	// under the write lock; readers extract under the read lock.
	frameMu sync.RWMutex
	buffer  uintptr
	pixels  []byte
	width   int32
	height  int32

	completedMu sync.Mutex
	completed   bool
}

// Global callback state for purego. C-side callbacks carry an opaque
// registry key instead of a Go pointer.
var (
	playersMu      sync.RWMutex
	players        = make(map[uintptr]*Player)
	playerCounter  uintptr
	sampleCallback uintptr
	busCallback    uintptr
	callbackOnce   sync.Once
)

func initCallbacks() {
	callbackOnce.Do(func() {
		sampleCallback = purego.NewCallback(newSampleHandler)
		busCallback = purego.NewCallback(busSyncHandler)
	})
}

// flowReturn widens a GstFlowReturn into the sign-extended register value
// the callback hands back to C.
func flowReturn(code int32) uintptr {
	return uintptr(int64(code))
}

// newSampleHandler services the appsink "new-sample" signal on the
// pipeline's streaming thread.
func newSampleHandler(sink, userData uintptr) uintptr {
	playersMu.RLock()
	p := players[userData]
	playersMu.RUnlock()

	if p == nil {
		return flowReturn(gstFlowError)
	}
	return flowReturn(p.handleSample(sink))
}

// busSyncHandler services pipeline bus messages synchronously.
func busSyncHandler(_, msg, userData uintptr) uintptr {
	playersMu.RLock()
	p := players[userData]
	playersMu.RUnlock()

	if p != nil {
		p.handleMessage(msg)
	}
	gstMiniObjectUnref(msg)
	return gstBusDrop
}

// New creates a player around the fixed decode pipeline.
func New(config PlayerConfig) (*Player, error) {
	cfg := config.Pipeline
	def := DefaultPipelineConfig()
	if cfg.SocketPath == "" {
		cfg.SocketPath = def.SocketPath
	}
	if cfg.Width == 0 && cfg.Height == 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FPS == 0 {
		cfg.FPS = def.FPS
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}

	handler := config.Handler
	if handler == nil {
		handler = NopStreamHandler
	}

	p := &Player{
		handler: handler,
		cfg:     cfg,
		uri:     parseURI(config.URI),
		rate:    1.0,
		volume:  1.0,
	}
	p.autoRepeat.Store(config.AutoRepeat)
	p.state.Store(int32(PlayerStateIdle))

	var gerr uintptr
	p.pipeline = gstParseLaunch(cfg.launchString(), uintptr(unsafe.Pointer(&gerr)))
	if p.pipeline == 0 {
		return nil, fmt.Errorf("gst_parse_launch failed: %s", takeGError(gerr))
	}
	// A recoverable parse warning may be set even on success.
	if gerr != 0 {
		takeGError(gerr)
	}

	p.sink = gstBinGetByName(p.pipeline, sinkName)
	if p.sink == 0 {
		gstObjectUnref(p.pipeline)
		return nil, fmt.Errorf("appsink element not found (name=%s)", sinkName)
	}

	initCallbacks()

	playersMu.Lock()
	playerCounter++
	p.id = playerCounter
	players[p.id] = p
	playersMu.Unlock()

	p.bus = gstPipelineGetBus(p.pipeline)
	gstBusSetSyncHdlr(p.bus, busCallback, p.id, 0)
	gSignalConnectData(p.sink, "new-sample", sampleCallback, p.id, 0, 0)

	return p, nil
}

// Init prerolls the pipeline, discovers the video size and notifies
// OnInitialized. The player ends up paused on the first frame.
func (p *Player) Init() error {
	if p.closed() {
		return ErrClosed
	}

	if gstElementSetState(p.pipeline, gstStatePaused) == gstStateChangeFailure {
		p.Close()
		return fmt.Errorf("failed to change state to PAUSED")
	}
	var state int32
	if gstElementGetState(p.pipeline, uintptr(unsafe.Pointer(&state)), 0, gstClockTimeNoneU64) == gstStateChangeFailure {
		p.Close()
		return fmt.Errorf("failed waiting for PAUSED")
	}

	w, h := p.videoSize()
	p.frameMu.Lock()
	p.width, p.height = w, h
	p.pixels = make([]byte, RGBASize(int(w), int(h)))
	p.frameMu.Unlock()

	p.state.Store(int32(PlayerStatePaused))
	p.handler.OnInitialized()
	return nil
}

// Play transitions the pipeline to PLAYING.
func (p *Player) Play() error {
	if p.closed() {
		return ErrClosed
	}
	if gstElementSetState(p.pipeline, gstStatePlaying) == gstStateChangeFailure {
		return fmt.Errorf("failed to change state to PLAYING")
	}
	p.state.Store(int32(PlayerStatePlaying))
	p.handler.OnPlaying(true)
	return nil
}

// Pause transitions the pipeline to PAUSED.
func (p *Player) Pause() error {
	if p.closed() {
		return ErrClosed
	}
	if gstElementSetState(p.pipeline, gstStatePaused) == gstStateChangeFailure {
		return fmt.Errorf("failed to change state to PAUSED")
	}
	p.state.Store(int32(PlayerStatePaused))
	p.handler.OnPlaying(false)
	return nil
}

// Stop transitions the pipeline back to READY.
func (p *Player) Stop() error {
	if p.closed() {
		return ErrClosed
	}
	if gstElementSetState(p.pipeline, gstStateReady) == gstStateChangeFailure {
		return fmt.Errorf("failed to change state to READY")
	}
	p.state.Store(int32(PlayerStateReady))
	p.handler.OnPlaying(false)
	return nil
}

// SetVolume records the requested volume. The raw pipeline carries no audio
// path, so the value is stored but has no effect.
func (p *Player) SetVolume(volume float64) error {
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	return ErrNotSupported
}

// Volume returns the last requested volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetPlaybackRate changes the playback speed with a flushing seek from the
// current position.
func (p *Player) SetPlaybackRate(rate float64) error {
	if p.closed() {
		return ErrClosed
	}
	if rate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}

	var pos int64
	if gstQueryPosition(p.pipeline, gstFormatTime, uintptr(unsafe.Pointer(&pos))) == 0 {
		return fmt.Errorf("position query failed")
	}
	ok := gstElementSeek(p.pipeline, rate, gstFormatTime, gstSeekFlagFlush,
		gstSeekTypeSet, pos, gstSeekTypeEnd, gstClockTimeNone)
	if ok == 0 {
		return fmt.Errorf("rate seek failed")
	}

	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()
	return nil
}

// PlaybackRate returns the current playback rate.
func (p *Player) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// Seek jumps to the given position with a flushing key-unit seek.
func (p *Player) Seek(pos time.Duration) error {
	if p.closed() {
		return ErrClosed
	}
	p.mu.Lock()
	rate := p.rate
	p.mu.Unlock()

	ok := gstElementSeek(p.pipeline, rate, gstFormatTime,
		gstSeekFlagFlush|gstSeekFlagKeyUnit,
		gstSeekTypeSet, pos.Nanoseconds(), gstSeekTypeSet, gstClockTimeNone)
	if ok == 0 {
		return fmt.Errorf("seek to %v failed", pos)
	}
	return nil
}

// SeekMillis is Seek for hosts that speak milliseconds.
func (p *Player) SeekMillis(ms int64) error {
	return p.Seek(time.Duration(ms) * time.Millisecond)
}

// Duration returns the stream duration.
func (p *Player) Duration() (time.Duration, error) {
	if p.closed() {
		return 0, ErrClosed
	}
	var dur int64
	if gstQueryDuration(p.pipeline, gstFormatTime, uintptr(unsafe.Pointer(&dur))) == 0 {
		return 0, fmt.Errorf("duration query failed")
	}
	return time.Duration(dur), nil
}

// DurationMillis returns the stream duration in milliseconds, -1 on failure.
func (p *Player) DurationMillis() int64 {
	d, err := p.Duration()
	if err != nil {
		return -1
	}
	return d.Milliseconds()
}

// Position returns the current playback position. A pending end-of-stream is
// surfaced here: with auto-repeat the stream restarts from the beginning,
// otherwise OnCompleted fires.
func (p *Player) Position() (time.Duration, error) {
	if p.closed() {
		return 0, ErrClosed
	}
	var pos int64
	if gstQueryPosition(p.pipeline, gstFormatTime, uintptr(unsafe.Pointer(&pos))) == 0 {
		return 0, fmt.Errorf("position query failed")
	}
	p.checkCompleted()
	return time.Duration(pos), nil
}

// checkCompleted consumes a pending end-of-stream: with auto-repeat the
// stream restarts from the beginning, otherwise OnCompleted fires. The flag
// is cleared either way.
func (p *Player) checkCompleted() {
	p.completedMu.Lock()
	completed := p.completed
	p.completed = false
	p.completedMu.Unlock()

	if !completed {
		return
	}
	if p.autoRepeat.Load() {
		if err := p.Seek(0); err != nil {
			log.Printf("player: repeat seek failed: %v", err)
		}
	} else {
		p.handler.OnCompleted()
	}
}

// PositionMillis returns the playback position in milliseconds, -1 on failure.
func (p *Player) PositionMillis() int64 {
	pos, err := p.Position()
	if err != nil {
		return -1
	}
	return pos.Milliseconds()
}

// FrameBuffer extracts the most recent decoded frame into the player's RGBA
// scratch buffer and returns it. The buffer is reused across calls; copy it
// or use Frame to keep the pixels. Returns nil when no frame was decoded yet.
func (p *Player) FrameBuffer() []byte {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()

	if p.buffer == 0 || len(p.pixels) == 0 {
		return nil
	}
	gstBufferExtract(p.buffer, 0, uintptr(unsafe.Pointer(&p.pixels[0])), uint64(len(p.pixels)))
	return p.pixels
}

// Frame returns a deep-copied snapshot of the most recent decoded frame.
func (p *Player) Frame() (*VideoFrame, error) {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()

	if p.buffer == 0 {
		return nil, ErrNoFrame
	}
	w, h := int(p.width), int(p.height)
	data := make([]byte, RGBASize(w, h))
	gstBufferExtract(p.buffer, 0, uintptr(unsafe.Pointer(&data[0])), uint64(len(data)))
	return &VideoFrame{
		Data:      data,
		Stride:    w * 4,
		Width:     w,
		Height:    h,
		Format:    PixelFormatRGBA32,
		Timestamp: time.Now().UnixNano(),
	}, nil
}

// Width returns the current video width in pixels.
func (p *Player) Width() int {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	return int(p.width)
}

// Height returns the current video height in pixels.
func (p *Player) Height() int {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	return int(p.height)
}

// URI returns the normalized media URI the player was created with.
func (p *Player) URI() string { return p.uri }

// State returns the current player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// SetAutoRepeat toggles restarting playback on end-of-stream.
func (p *Player) SetAutoRepeat(enabled bool) {
	p.autoRepeat.Store(enabled)
}

// AutoRepeat reports whether auto-repeat is enabled.
func (p *Player) AutoRepeat() bool {
	return p.autoRepeat.Load()
}

// Close stops the pipeline and releases all retained handles. Idempotent.
func (p *Player) Close() error {
	if p.state.Swap(int32(PlayerStateClosed)) == int32(PlayerStateClosed) {
		return nil
	}
	if p.pipeline == 0 {
		return nil
	}

	playersMu.Lock()
	delete(players, p.id)
	playersMu.Unlock()

	gstElementSetState(p.pipeline, gstStateNull)

	p.frameMu.Lock()
	if p.buffer != 0 {
		gstMiniObjectUnref(p.buffer)
		p.buffer = 0
	}
	p.frameMu.Unlock()

	if p.bus != 0 {
		gstBusSetSyncHdlr(p.bus, 0, 0, 0)
		gstObjectUnref(p.bus)
		p.bus = 0
	}
	if p.sink != 0 {
		gstObjectUnref(p.sink)
		p.sink = 0
	}
	gstObjectUnref(p.pipeline)
	p.pipeline = 0
	return nil
}

func (p *Player) closed() bool {
	return p.State() == PlayerStateClosed || p.pipeline == 0
}

// handleSample runs on the streaming thread for every decoded frame.
func (p *Player) handleSample(sink uintptr) int32 {
	sample := gstAppSinkPullSample(sink)
	if sample == 0 {
		return gstFlowError
	}
	buffer := gstSampleGetBuffer(sample)
	if buffer == 0 {
		gstMiniObjectUnref(sample)
		return gstFlowError
	}

	var w, h int32
	if caps := gstSampleGetCaps(sample); caps != 0 {
		if s := gstCapsGetStruct(caps, 0); s != 0 {
			gstStructureGetInt(s, "width", uintptr(unsafe.Pointer(&w)))
			gstStructureGetInt(s, "height", uintptr(unsafe.Pointer(&h)))
		}
	}

	p.frameMu.Lock()
	if w > 0 && h > 0 && (w != p.width || h != p.height) {
		p.width, p.height = w, h
		p.pixels = make([]byte, RGBASize(int(w), int(h)))
		log.Printf("player: pixel buffer resized to %dx%d", w, h)
	}
	if p.buffer != 0 {
		gstMiniObjectUnref(p.buffer)
	}
	p.buffer = gstMiniObjectRef(buffer)
	p.frameMu.Unlock()

	p.handler.OnFrameDecoded()
	gstMiniObjectUnref(sample)
	return gstFlowOK
}

// handleMessage runs synchronously on the posting thread for bus messages.
func (p *Player) handleMessage(msg uintptr) {
	m := (*gstMessage)(unsafe.Pointer(msg))
	switch {
	case m.MsgType&gstMessageEOS != 0:
		p.completedMu.Lock()
		p.completed = true
		p.completedMu.Unlock()

	case m.MsgType&(gstMessageError|gstMessageWarning) != 0:
		var gerr, dbg uintptr
		severity := "error"
		if m.MsgType&gstMessageWarning != 0 {
			severity = "warning"
			gstMsgParseWarning(msg, uintptr(unsafe.Pointer(&gerr)), uintptr(unsafe.Pointer(&dbg)))
		} else {
			gstMsgParseError(msg, uintptr(unsafe.Pointer(&gerr)), uintptr(unsafe.Pointer(&dbg)))
		}
		src := takeGString(gstObjectGetName(m.Src))
		log.Printf("player: gstreamer %s from %s: %s", severity, src, takeGError(gerr))
		if dbg != 0 {
			log.Printf("player: details: %s", takeGString(dbg))
		}
	}
}

// videoSize reads the negotiated dimensions from the sink pad caps.
func (p *Player) videoSize() (int32, int32) {
	w, h := int32(p.cfg.Width), int32(p.cfg.Height)

	pad := gstGetStaticPad(p.sink, "sink")
	if pad == 0 {
		return w, h
	}
	defer gstObjectUnref(pad)

	caps := gstPadCurrentCaps(pad)
	if caps == 0 {
		return w, h
	}
	defer gstMiniObjectUnref(caps)

	s := gstCapsGetStruct(caps, 0)
	var cw, ch int32
	if gstStructureGetInt(s, "width", uintptr(unsafe.Pointer(&cw))) != 0 && cw > 0 {
		w = cw
	}
	if gstStructureGetInt(s, "height", uintptr(unsafe.Pointer(&ch))) != 0 && ch > 0 {
		h = ch
	}
	return w, h
}

// parseURI normalizes a location: valid URIs pass through, file paths are
// converted to file:// URIs.
func parseURI(uri string) string {
	if uri == "" {
		return ""
	}
	if gstURIIsValid(uri) != 0 {
		return uri
	}
	if u := takeGString(gstFilenameToURI(uri, 0)); u != "" {
		return u
	}
	log.Printf("player: failed to convert %q to a URI", uri)
	return uri
}
