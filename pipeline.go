package player

import "fmt"

// PlayerState represents the state of a player's pipeline.
type PlayerState int

const (
	PlayerStateIdle    PlayerState = iota // Pipeline created, not prerolled
	PlayerStateReady                      // Stopped (pipeline in READY)
	PlayerStatePaused                     // Prerolled or paused
	PlayerStatePlaying                    // Playing
	PlayerStateClosed                     // Pipeline destroyed
)

func (s PlayerState) String() string {
	switch s {
	case PlayerStateIdle:
		return "idle"
	case PlayerStateReady:
		return "ready"
	case PlayerStatePaused:
		return "paused"
	case PlayerStatePlaying:
		return "playing"
	case PlayerStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// The pipeline topology is fixed: a shared-memory source feeding a color
// conversion into an application sink delivering packed RGBA. Only the
// source attributes are configurable; there is deliberately no way to
// change the element graph itself.
const sinkName = "sink"

// PipelineConfig holds the attributes of the fixed decode pipeline.
type PipelineConfig struct {
	SocketPath string      // shmsrc socket path
	Width      int         // Input frame width
	Height     int         // Input frame height
	FPS        int         // Input framerate
	Format     PixelFormat // Input pixel format
}

// DefaultPipelineConfig returns the attributes the original deployment uses.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SocketPath: "/tmp/shmsock",
		Width:      1280,
		Height:     720,
		FPS:        30,
		Format:     PixelFormatI420,
	}
}

// launchString renders the fixed topology as a gst-launch description.
func (c PipelineConfig) launchString() string {
	return fmt.Sprintf(
		"shmsrc socket-path=%s "+
			"! video/x-raw,format=%s,width=%d,height=%d,framerate=%d/1 "+
			"! videoconvert ! video/x-raw,format=RGBA "+
			"! appsink name=%s emit-signals=true sync=false",
		c.SocketPath, c.Format, c.Width, c.Height, c.FPS, sinkName)
}

// validate rejects attribute combinations the fixed pipeline cannot run.
func (c PipelineConfig) validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("%w: empty socket path", ErrInvalidConfig)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: bad dimensions %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: bad framerate %d", ErrInvalidConfig, c.FPS)
	}
	return nil
}
