package player

import "github.com/pion/rtp"

// Re-export pion/rtp types for convenience
type (
	// RTPPacket is an alias to pion's rtp.Packet
	RTPPacket = rtp.Packet

	// RTPHeader is an alias to pion's rtp.Header
	RTPHeader = rtp.Header
)

// DefaultMTU is the default maximum RTP packet size in bytes.
const DefaultMTU = 1200

// RTPPacketizer segments raw video frames into RTP packets.
type RTPPacketizer interface {
	// Packetize converts a frame to RTP packets.
	Packetize(frame *VideoFrame) ([]*RTPPacket, error)

	// PacketizeToBytes converts a frame to raw RTP packet bytes.
	PacketizeToBytes(frame *VideoFrame) ([][]byte, error)
}

// RTPDepacketizer reassembles raw video frames from RTP packets.
type RTPDepacketizer interface {
	// Depacketize processes one packet and returns a complete frame once
	// the final packet of a frame arrived, nil otherwise.
	Depacketize(packet *RTPPacket) (*VideoFrame, error)
}

// rtpTimestamp converts a nanosecond timestamp to the 90kHz video clock.
// Seconds and the sub-second remainder are scaled separately so wall-clock
// timestamps (time.Now().UnixNano()) cannot overflow before the modular
// truncation to 32 bits.
func rtpTimestamp(ns int64) uint32 {
	sec := ns / 1_000_000_000
	rem := ns % 1_000_000_000
	return uint32(sec*90000) + uint32(rem*9/100000)
}
