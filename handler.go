package player

// StreamHandler receives lifecycle and frame notifications from a Player.
//
// OnFrameDecoded is invoked on the pipeline's streaming thread and must not
// block; the other notifications fire on whichever goroutine triggered the
// state change (OnCompleted fires from Position, where end-of-stream is
// observed).
type StreamHandler interface {
	// OnInitialized is called once the pipeline has prerolled and the
	// video size is known.
	OnInitialized()

	// OnPlaying reports playback state changes: true after a successful
	// Play, false after Pause or Stop.
	OnPlaying(playing bool)

	// OnFrameDecoded is called after a new frame became available through
	// FrameBuffer or Frame.
	OnFrameDecoded()

	// OnCompleted is called when the stream reached end-of-stream and
	// auto-repeat is disabled.
	OnCompleted()
}

// StreamHandlerFuncs adapts optional callback fields to StreamHandler.
// Nil fields are ignored.
type StreamHandlerFuncs struct {
	Initialized  func()
	Playing      func(playing bool)
	FrameDecoded func()
	Completed    func()
}

func (h *StreamHandlerFuncs) OnInitialized() {
	if h.Initialized != nil {
		h.Initialized()
	}
}

func (h *StreamHandlerFuncs) OnPlaying(playing bool) {
	if h.Playing != nil {
		h.Playing(playing)
	}
}

func (h *StreamHandlerFuncs) OnFrameDecoded() {
	if h.FrameDecoded != nil {
		h.FrameDecoded()
	}
}

func (h *StreamHandlerFuncs) OnCompleted() {
	if h.Completed != nil {
		h.Completed()
	}
}

// NopStreamHandler discards all notifications.
var NopStreamHandler StreamHandler = &StreamHandlerFuncs{}
