package player

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pion/rtp"
)

// Raw RGBA payload layout, in the spirit of RFC 4175 line-based packing:
// an 8-byte header (frame width, frame height, row, byte offset within the
// row, all uint16 big-endian) followed by pixel bytes. Rows wider than the
// MTU budget are split across packets; the RTP marker bit closes a frame.
const rawPayloadHeaderSize = 8

// RawVideoPacketizer implements RTPPacketizer for uncompressed RGBA frames.
type RawVideoPacketizer struct {
	ssrc        uint32
	payloadType uint8
	mtu         int
	sequencer   rtp.Sequencer
	mu          sync.Mutex
}

// NewRawVideoPacketizer creates a new raw-video RTP packetizer.
func NewRawVideoPacketizer(ssrc uint32, pt uint8, mtu int) (*RawVideoPacketizer, error) {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	if mtu <= 12+rawPayloadHeaderSize {
		return nil, fmt.Errorf("mtu %d too small for raw payloads", mtu)
	}
	return &RawVideoPacketizer{
		ssrc:        ssrc,
		payloadType: pt,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
	}, nil
}

// Packetize converts an RGBA frame to RTP packets.
func (p *RawVideoPacketizer) Packetize(frame *VideoFrame) ([]*RTPPacket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frame.Format != PixelFormatRGBA32 {
		return nil, fmt.Errorf("raw packetizer needs RGBA frames, got %s", frame.Format)
	}
	if frame.Width > 0xFFFF || frame.Height > 0xFFFF {
		return nil, fmt.Errorf("frame %dx%d exceeds raw header range", frame.Width, frame.Height)
	}
	stride := frame.Stride
	if stride == 0 {
		stride = frame.Width * 4
	}
	if len(frame.Data) < stride*frame.Height {
		return nil, fmt.Errorf("frame data short: %d bytes for %dx%d", len(frame.Data), frame.Width, frame.Height)
	}

	budget := p.mtu - 12 - rawPayloadHeaderSize
	ts := rtpTimestamp(frame.Timestamp)

	var packets []*RTPPacket
	for row := 0; row < frame.Height; row++ {
		line := frame.Data[row*stride : row*stride+frame.Width*4]
		for offset := 0; offset < len(line); offset += budget {
			end := offset + budget
			if end > len(line) {
				end = len(line)
			}

			payload := make([]byte, rawPayloadHeaderSize+end-offset)
			binary.BigEndian.PutUint16(payload[0:2], uint16(frame.Width))
			binary.BigEndian.PutUint16(payload[2:4], uint16(frame.Height))
			binary.BigEndian.PutUint16(payload[4:6], uint16(row))
			binary.BigEndian.PutUint16(payload[6:8], uint16(offset))
			copy(payload[rawPayloadHeaderSize:], line[offset:end])

			last := row == frame.Height-1 && end == len(line)
			packets = append(packets, &RTPPacket{
				Header: rtp.Header{
					Version:        2,
					Marker:         last,
					PayloadType:    p.payloadType,
					SequenceNumber: p.sequencer.NextSequenceNumber(),
					Timestamp:      ts,
					SSRC:           p.ssrc,
				},
				Payload: payload,
			})
		}
	}
	return packets, nil
}

// PacketizeToBytes converts an RGBA frame to raw RTP packet bytes.
func (p *RawVideoPacketizer) PacketizeToBytes(frame *VideoFrame) ([][]byte, error) {
	packets, err := p.Packetize(frame)
	if err != nil {
		return nil, err
	}
	result := make([][]byte, len(packets))
	for i, pkt := range packets {
		result[i], err = pkt.Marshal()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *RawVideoPacketizer) SetSSRC(ssrc uint32) { p.mu.Lock(); p.ssrc = ssrc; p.mu.Unlock() }
func (p *RawVideoPacketizer) SSRC() uint32        { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }
func (p *RawVideoPacketizer) PayloadType() uint8  { p.mu.Lock(); defer p.mu.Unlock(); return p.payloadType }
func (p *RawVideoPacketizer) MTU() int            { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }

// RawVideoDepacketizer implements RTPDepacketizer for uncompressed RGBA
// frames produced by RawVideoPacketizer.
type RawVideoDepacketizer struct {
	buffer    []byte
	width     int
	height    int
	timestamp uint32
	started   bool
	mu        sync.Mutex
}

// NewRawVideoDepacketizer creates a new raw-video RTP depacketizer.
func NewRawVideoDepacketizer() (*RawVideoDepacketizer, error) {
	return &RawVideoDepacketizer{}, nil
}

// Depacketize processes one packet; a complete frame is returned on the
// packet carrying the marker bit.
func (d *RawVideoDepacketizer) Depacketize(packet *RTPPacket) (*VideoFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(packet.Payload) < rawPayloadHeaderSize {
		return nil, fmt.Errorf("raw payload short: %d bytes", len(packet.Payload))
	}

	width := int(binary.BigEndian.Uint16(packet.Payload[0:2]))
	height := int(binary.BigEndian.Uint16(packet.Payload[2:4]))
	row := int(binary.BigEndian.Uint16(packet.Payload[4:6]))
	offset := int(binary.BigEndian.Uint16(packet.Payload[6:8]))
	chunk := packet.Payload[rawPayloadHeaderSize:]

	if width <= 0 || height <= 0 || row >= height {
		return nil, fmt.Errorf("bad raw header: %dx%d row %d", width, height, row)
	}

	// New timestamp or new geometry starts a fresh frame.
	if !d.started || d.timestamp != packet.Header.Timestamp || d.width != width || d.height != height {
		d.width, d.height = width, height
		d.timestamp = packet.Header.Timestamp
		d.started = true
		if len(d.buffer) != RGBASize(width, height) {
			d.buffer = make([]byte, RGBASize(width, height))
		}
	}

	stride := width * 4
	pos := row*stride + offset
	if pos+len(chunk) > len(d.buffer) {
		return nil, fmt.Errorf("raw chunk out of bounds: row %d offset %d len %d", row, offset, len(chunk))
	}
	copy(d.buffer[pos:], chunk)

	if !packet.Header.Marker {
		return nil, nil
	}

	frame := &VideoFrame{
		Data:      make([]byte, len(d.buffer)),
		Stride:    stride,
		Width:     width,
		Height:    height,
		Format:    PixelFormatRGBA32,
		Timestamp: int64(packet.Header.Timestamp) * 100000 / 9,
	}
	copy(frame.Data, d.buffer)
	d.started = false
	return frame, nil
}
