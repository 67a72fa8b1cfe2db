package pelco

import (
	"encoding/hex"
	"fmt"
)

// Frame is a command frame as carried on the wire, minus the sync byte and
// the checksum, which are always derived at encode time.
type Frame struct {
	Address  byte
	Command1 byte
	Command2 byte
	Data1    byte
	Data2    byte
}

// Checksum returns the checksum byte the frame carries on the wire.
func (f Frame) Checksum() byte {
	return f.Address + f.Command1 + f.Command2 + f.Data1 + f.Data2
}

// Encode returns the 7 wire bytes of f. The checksum is always recomputed.
func (f Frame) Encode() []byte {
	return []byte{Sync, f.Address, f.Command1, f.Command2, f.Data1, f.Data2, f.Checksum()}
}

// Extended reports whether command 2 carries an extended opcode.
func (f Frame) Extended() bool { return f.Command2&1 == 1 }

// Opcode returns the extended opcode of f, or 0 for a standard command.
func (f Frame) Opcode() Opcode {
	if !f.Extended() {
		return 0
	}
	return Opcode(f.Command2)
}

// Command classifies f back into its command shape.
func (f Frame) Command() Command {
	if f.Extended() {
		return Extended{
			Opcode:  Opcode(f.Command2),
			Sub:     f.Command1,
			Payload: uint16(f.Data1)<<8 | uint16(f.Data2),
		}
	}
	return Standard{
		Sense:     f.Command1&bitSense != 0,
		Scan:      f.Command1&bitScan != 0,
		Camera:    f.Command1&bitCamera != 0,
		IrisClose: f.Command1&bitIrisClose != 0,
		IrisOpen:  f.Command1&bitIrisOpen != 0,
		FocusNear: f.Command1&bitFocusNear != 0,
		FocusFar:  f.Command2&bitFocusFar != 0,
		ZoomWide:  f.Command2&bitZoomWide != 0,
		ZoomTele:  f.Command2&bitZoomTele != 0,
		Down:      f.Command2&bitDown != 0,
		Up:        f.Command2&bitUp != 0,
		Left:      f.Command2&bitLeft != 0,
		Right:     f.Command2&bitRight != 0,
		PanSpeed:  f.Data1,
		TiltSpeed: f.Data2,
	}
}

func (f Frame) String() string {
	return hex.EncodeToString(f.Encode())
}

// DecodeCommand parses a 7-byte command frame.
func DecodeCommand(b []byte) (Frame, error) {
	if len(b) != CommandLength {
		return Frame{}, &LengthError{Want: CommandLength, Got: len(b)}
	}
	if b[0] != Sync {
		return Frame{}, &SyncError{Got: b[0]}
	}
	if err := VerifyChecksum(b); err != nil {
		return Frame{}, err
	}
	return Frame{Address: b[1], Command1: b[2], Command2: b[3], Data1: b[4], Data2: b[5]}, nil
}

// GeneralReply is the 4-byte acknowledgement most commands produce.
type GeneralReply struct {
	Address  byte
	Alarms   byte
	Checksum byte
}

// Alarm reports whether alarm input n (1-8) is active.
func (r GeneralReply) Alarm(n int) bool {
	if n < 1 || n > 8 {
		return false
	}
	return r.Alarms&(1<<(n-1)) != 0
}

func (r GeneralReply) String() string {
	return fmt.Sprintf("general reply addr=%d alarms=%08b", r.Address, r.Alarms)
}

// DecodeGeneralReply parses a general reply. The checksum is only verified
// when verify is set; some devices are known to send garbage there.
func DecodeGeneralReply(b []byte, verify bool) (GeneralReply, error) {
	if len(b) != GeneralReplyLength {
		return GeneralReply{}, &LengthError{Want: GeneralReplyLength, Got: len(b)}
	}
	if b[0] != Sync {
		return GeneralReply{}, &SyncError{Got: b[0]}
	}
	if verify {
		if err := VerifyChecksum(b); err != nil {
			return GeneralReply{}, err
		}
	}
	return GeneralReply{Address: b[1], Alarms: b[2], Checksum: b[3]}, nil
}

// ExtendedReply is the 7-byte answer to a query.
type ExtendedReply struct {
	Address   byte
	Response1 byte
	Response2 Opcode
	Data1     byte
	Data2     byte
	Checksum  byte
}

// Value returns the 16-bit payload, data 1 being the most significant byte.
func (r ExtendedReply) Value() uint16 {
	return uint16(r.Data1)<<8 | uint16(r.Data2)
}

func (r ExtendedReply) String() string {
	return fmt.Sprintf("extended reply addr=%d op=0x%02X value=%d", r.Address, byte(r.Response2), r.Value())
}

// DecodeExtendedReply parses an extended reply and checks that it answers
// expected.
func DecodeExtendedReply(b []byte, expected Opcode, verify bool) (ExtendedReply, error) {
	if len(b) != ExtendedReplyLength {
		return ExtendedReply{}, &LengthError{Want: ExtendedReplyLength, Got: len(b)}
	}
	if b[0] != Sync {
		return ExtendedReply{}, &SyncError{Got: b[0]}
	}
	if verify {
		if err := VerifyChecksum(b); err != nil {
			return ExtendedReply{}, err
		}
	}
	r := ExtendedReply{
		Address:   b[1],
		Response1: b[2],
		Response2: Opcode(b[3]),
		Data1:     b[4],
		Data2:     b[5],
		Checksum:  b[6],
	}
	if r.Response2 != expected {
		return ExtendedReply{}, &OpcodeError{Expected: byte(expected), Actual: byte(r.Response2)}
	}
	return r, nil
}
