package pelco

// Sync is the first byte of every command frame and reply.
const Sync byte = 0xFF

// Wire lengths.
const (
	CommandLength       = 7
	GeneralReplyLength  = 4
	ExtendedReplyLength = 7
)

// Command 1 bits of a standard command.
const (
	bitSense     byte = 1 << 7
	bitScan      byte = 1 << 4
	bitCamera    byte = 1 << 3
	bitIrisClose byte = 1 << 2
	bitIrisOpen  byte = 1 << 1
	bitFocusNear byte = 1 << 0
)

// Command 2 bits of a standard command. Bit 0 is always clear, which is what
// keeps standard commands apart from the odd extended opcodes.
const (
	bitFocusFar byte = 1 << 7
	bitZoomWide byte = 1 << 6
	bitZoomTele byte = 1 << 5
	bitDown     byte = 1 << 4
	bitUp       byte = 1 << 3
	bitLeft     byte = 1 << 2
	bitRight    byte = 1 << 1
)

// Opcode is an extended command opcode carried in command 2. Extended opcodes
// are odd.
type Opcode byte

const (
	OpSetPreset          Opcode = 0x03
	OpClearPreset        Opcode = 0x05
	OpGoToPreset         Opcode = 0x07
	OpSetAux             Opcode = 0x09
	OpClearAux           Opcode = 0x0B
	OpDummy              Opcode = 0x0D
	OpRemoteReset        Opcode = 0x0F
	OpZoneStart          Opcode = 0x11
	OpZoneEnd            Opcode = 0x13
	OpWriteChar          Opcode = 0x15
	OpClearScreen        Opcode = 0x17
	OpAlarmAck           Opcode = 0x19
	OpZoneScanOn         Opcode = 0x1B
	OpZoneScanOff        Opcode = 0x1D
	OpPatternStart       Opcode = 0x1F
	OpPatternStop        Opcode = 0x21
	OpRunPattern         Opcode = 0x23
	OpZoomSpeed          Opcode = 0x25
	OpFocusSpeed         Opcode = 0x27
	OpResetCamera        Opcode = 0x29
	OpAutoFocus          Opcode = 0x2B
	OpAutoIris           Opcode = 0x2D
	OpAGC                Opcode = 0x2F
	OpBacklight          Opcode = 0x31
	OpAutoWhiteBalance   Opcode = 0x33
	OpDevicePhaseDelay   Opcode = 0x35
	OpShutterSpeed       Opcode = 0x37
	OpLineLockPhase      Opcode = 0x39
	OpWhiteBalanceRB     Opcode = 0x3B
	OpWhiteBalanceMG     Opcode = 0x3D
	OpGain               Opcode = 0x3F
	OpAutoIrisLevel      Opcode = 0x41
	OpAutoIrisPeak       Opcode = 0x43
	OpQuery              Opcode = 0x45
	OpPresetScan         Opcode = 0x47
	OpSetZeroPosition    Opcode = 0x49
	OpSetPanPosition     Opcode = 0x4B
	OpSetTiltPosition    Opcode = 0x4D
	OpSetZoomPosition    Opcode = 0x4F
	OpQueryPan           Opcode = 0x51
	OpQueryTilt          Opcode = 0x53
	OpQueryZoom          Opcode = 0x55
	OpQueryPanResponse   Opcode = 0x59
	OpQueryTiltResponse  Opcode = 0x5B
	OpQueryZoomResponse  Opcode = 0x5D
	OpQueryMag           Opcode = 0x61
	OpQueryMagResponse   Opcode = 0x63
	OpQueryDeviceType    Opcode = 0x6B
	OpDeviceTypeResponse Opcode = 0x6D
	OpQueryDiagnostics   Opcode = 0x6F
	OpDiagnosticResponse Opcode = 0x71
	OpVersionInfo        Opcode = 0x73
	OpVendorMacro        Opcode = 0x75
)

// Auxiliary sub-opcodes carried in command 1 of OpSetAux.
const (
	AuxRelay byte = 0x00
	AuxLED   byte = 0x01
)

// Version information sub-opcodes. The device answers with the sub-opcode
// plus one in response 2.
const (
	VersionSoftware byte = 0x00
	VersionBuild    byte = 0x02
)

// Adjustment sub-modes carried in command 1.
type AdjustMode byte

const (
	AdjustNew   AdjustMode = 0x00
	AdjustDelta AdjustMode = 0x01
)

// Toggle values for the camera mode opcodes. The encoding is not uniform:
// auto focus, auto iris and AGC use 0 for automatic, backlight compensation
// and auto white balance use 1 for on.
const (
	AutoFocusAuto   byte = 0x00
	AutoFocusOff    byte = 0x01
	AutoIrisAuto    byte = 0x00
	AutoIrisOff     byte = 0x01
	AGCAuto         byte = 0x00
	AGCOff          byte = 0x01
	BacklightOff    byte = 0x00
	BacklightOn     byte = 0x01
	WhiteBalanceOn  byte = 0x00
	WhiteBalanceOff byte = 0x01
)

// Reserved preset numbers that trigger built-in device behaviour when
// recalled with go-to-preset.
const (
	PresetFlip             byte = 0x21
	PresetZeroPan          byte = 0x22
	PresetAux1             byte = 0x54
	PresetAux2             byte = 0x55
	PresetWiper            byte = 0x56
	PresetWasher           byte = 0x57
	PresetIRFilterIn       byte = 0x58
	PresetIRFilterOut      byte = 0x59
	PresetManualLeftLimit  byte = 0x5A
	PresetManualRightLimit byte = 0x5B
	PresetScanLeftLimit    byte = 0x5C
	PresetScanRightLimit   byte = 0x5D
	PresetReset            byte = 0x5E
	PresetMenuMode         byte = 0x5F
	PresetStopScan         byte = 0x60
	PresetRandomScan       byte = 0x61
	PresetFrameScan        byte = 0x62
	PresetAutoScan         byte = 0x63
)

// Named pan and tilt speeds.
const (
	SpeedVerySlow byte = 0x00
	SpeedSlow     byte = 0x0F
	SpeedMedium   byte = 0x1F
	SpeedFast     byte = 0x2F
	SpeedVeryFast byte = 0x3F
	SpeedTurbo    byte = 0x40
)

// ReplyOpcode returns the opcode a device echoes in response 2 when answering
// op, and whether op expects an extended reply at all.
func ReplyOpcode(op Opcode) (Opcode, bool) {
	switch op {
	case OpQueryPan:
		return OpQueryPanResponse, true
	case OpQueryTilt:
		return OpQueryTiltResponse, true
	case OpQueryZoom:
		return OpQueryZoomResponse, true
	case OpQueryMag:
		return OpQueryMagResponse, true
	case OpQueryDeviceType:
		return OpDeviceTypeResponse, true
	case OpQueryDiagnostics:
		return OpDiagnosticResponse, true
	}
	return 0, false
}
