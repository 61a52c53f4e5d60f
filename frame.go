package player

// PixelFormat represents video pixel formats.
type PixelFormat int

const (
	PixelFormatI420   PixelFormat = iota // YUV 4:2:0 planar (Y + U + V)
	PixelFormatRGBA32                    // Packed RGBA, 4 bytes per pixel
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatI420:
		return "I420"
	case PixelFormatRGBA32:
		return "RGBA"
	default:
		return "Unknown"
	}
}

// BytesPerPixel returns the packed byte width of the format, or 0 for
// planar formats.
func (p PixelFormat) BytesPerPixel() int {
	if p == PixelFormatRGBA32 {
		return 4
	}
	return 0
}

// VideoFrame represents a raw decoded video frame.
// Data is owned by the frame; snapshots taken from a Player are deep copies
// and stay valid after the player advances.
type VideoFrame struct {
	Data      []byte      // Packed pixel data
	Stride    int         // Row stride in bytes
	Width     int         // Frame width in pixels
	Height    int         // Frame height in pixels
	Format    PixelFormat // Pixel format
	Timestamp int64       // Capture timestamp in nanoseconds
}

// Clone creates a deep copy of the video frame.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Stride:    f.Stride,
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Timestamp: f.Timestamp,
	}
	if f.Data != nil {
		clone.Data = make([]byte, len(f.Data))
		copy(clone.Data, f.Data)
	}
	return clone
}

// RGBASize returns the buffer size needed for a packed RGBA frame.
func RGBASize(width, height int) int {
	return width * height * 4
}

// I420Size returns the total buffer size needed for an I420 frame.
func I420Size(width, height int) int {
	ySize := width * height
	uvSize := (width / 2) * (height / 2)
	return ySize + uvSize*2
}
