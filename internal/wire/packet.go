// Package wire implements the fixed 48-byte SNTP client/server packet and
// the 64-bit fixed-point timestamps it carries.
package wire

import (
	"encoding/binary"
	"fmt"
)

// PacketSize is the fixed length of an SNTP request or response.
const PacketSize = 48

// Protocol mode values (low three bits of the header byte).
const (
	ModeClient    = 3
	ModeServer    = 4
	ModeBroadcast = 5
)

// LeapUnsynchronized marks a server that is not synchronized; responses
// carrying it are unusable.
const LeapUnsynchronized = 3

// Version is the protocol version stamped into outgoing requests.
const Version = 4

// Field offsets into the 48-byte packet. The layout is fixed by the
// protocol and computed here once; Encode and Decode index with these
// constants instead of re-deriving the format per call.
const (
	offHeader         = 0 // LI (2 bits) | VN (3 bits) | mode (3 bits)
	offStratum        = 1
	offPoll           = 2
	offPrecision      = 3
	offRootDelay      = 4
	offRootDispersion = 8
	offReferenceID    = 12
	offReferenceTime  = 16
	offOriginTime     = 24
	offReceiveTime    = 32
	offTransmitTime   = 40
)

// MalformedPacketError reports a packet that cannot be decoded.
type MalformedPacketError struct {
	Length int
	Mode   uint8
	Reason string
}

func (e *MalformedPacketError) Error() string {
	return fmt.Sprintf("malformed packet: %s (length=%d mode=%d)", e.Reason, e.Length, e.Mode)
}

// Packet is the decoded form of one SNTP message.
type Packet struct {
	LeapIndicator  uint8
	Version        uint8
	Mode           uint8
	Stratum        uint8
	Poll           int8
	Precision      int8
	RootDelay      uint32
	RootDispersion uint32
	ReferenceID    uint32
	ReferenceTime  Timestamp
	OriginTime     Timestamp
	ReceiveTime    Timestamp
	TransmitTime   Timestamp
}

// NewRequest builds a client request carrying transmit as its transmit
// timestamp, which the server echoes back in the origin field.
func NewRequest(transmit Timestamp) *Packet {
	return &Packet{
		Version:      Version,
		Mode:         ModeClient,
		TransmitTime: transmit,
	}
}

// Encode serializes p into a fresh 48-byte buffer.
func (p *Packet) Encode() []byte {
	buf := make([]byte, PacketSize)
	buf[offHeader] = p.LeapIndicator<<6 | p.Version<<3 | p.Mode
	buf[offStratum] = p.Stratum
	buf[offPoll] = byte(p.Poll)
	buf[offPrecision] = byte(p.Precision)
	binary.BigEndian.PutUint32(buf[offRootDelay:], p.RootDelay)
	binary.BigEndian.PutUint32(buf[offRootDispersion:], p.RootDispersion)
	binary.BigEndian.PutUint32(buf[offReferenceID:], p.ReferenceID)
	binary.BigEndian.PutUint64(buf[offReferenceTime:], uint64(p.ReferenceTime))
	binary.BigEndian.PutUint64(buf[offOriginTime:], uint64(p.OriginTime))
	binary.BigEndian.PutUint64(buf[offReceiveTime:], uint64(p.ReceiveTime))
	binary.BigEndian.PutUint64(buf[offTransmitTime:], uint64(p.TransmitTime))
	return buf
}

// Decode parses a server response. It returns a *MalformedPacketError when
// buf is not exactly 48 bytes long or the mode field is not a valid
// response mode (server or broadcast).
func Decode(buf []byte) (*Packet, error) {
	if len(buf) != PacketSize {
		return nil, &MalformedPacketError{Length: len(buf), Reason: "unexpected length"}
	}
	p := &Packet{
		LeapIndicator:  buf[offHeader] >> 6,
		Version:        buf[offHeader] >> 3 & 0x7,
		Mode:           buf[offHeader] & 0x7,
		Stratum:        buf[offStratum],
		Poll:           int8(buf[offPoll]),
		Precision:      int8(buf[offPrecision]),
		RootDelay:      binary.BigEndian.Uint32(buf[offRootDelay:]),
		RootDispersion: binary.BigEndian.Uint32(buf[offRootDispersion:]),
		ReferenceID:    binary.BigEndian.Uint32(buf[offReferenceID:]),
		ReferenceTime:  Timestamp(binary.BigEndian.Uint64(buf[offReferenceTime:])),
		OriginTime:     Timestamp(binary.BigEndian.Uint64(buf[offOriginTime:])),
		ReceiveTime:    Timestamp(binary.BigEndian.Uint64(buf[offReceiveTime:])),
		TransmitTime:   Timestamp(binary.BigEndian.Uint64(buf[offTransmitTime:])),
	}
	if p.Mode != ModeServer && p.Mode != ModeBroadcast {
		return nil, &MalformedPacketError{Length: len(buf), Mode: p.Mode, Reason: "not a server response"}
	}
	return p, nil
}
