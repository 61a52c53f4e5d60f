// Package player exposes a fixed GStreamer decode pipeline
// (shmsrc -> videoconvert -> RGBA appsink) behind a small playback API,
// designed for embedding into UI plugin hosts that render CPU-side textures.
//
// Key pieces include:
//   - Player: pipeline lifecycle, play/pause/stop, seeking, rate control,
//     position/duration queries and frame extraction
//   - StreamHandler: caller-supplied notifications (initialized, playing,
//     frame-decoded, completed)
//   - FrameSource: pull-style adapter over the frame notifications
//   - RawVideoPacketizer/RawVideoDepacketizer: RTP transport for the
//     decoded RGBA frames
//
// # Native Libraries
//
// The package loads libgstreamer-1.0, libgstapp-1.0, libgobject-2.0 and
// libglib-2.0 at runtime via purego (CGO_ENABLED=0). Set
// PLAYER_GST_LIB_PATH to the directory containing the libraries when they
// are not on the default loader path. Use Available to probe for the
// runtime and Init/Deinit for explicit framework lifecycle.
//
// # Threading
//
// Frame extraction shares one retained buffer handle between the pipeline's
// streaming thread and the host's render thread; replacement takes the
// write side of a reader/writer lock, extraction the read side. Handler
// callbacks must not block.
package player
