// Package protocol implements the wire protocol of the biosignal sensor:
// fixed-layout outbound command frames and big-endian inbound telemetry
// frames. All functions are pure; the package performs no I/O.
package protocol

// Command codes understood by the sensor firmware.
const (
	CmdParamRead     byte = 0x01 // request current device parameters
	CmdSystemSetting byte = 0x08 // configure acquisition mode
	CmdScanStart     byte = 0x18 // begin streaming telemetry
	CmdScanStop      byte = 0x1F // stop streaming telemetry

	// UnsolicitedMarker prefixes telemetry frames pushed by the device
	// outside of a request/response exchange.
	UnsolicitedMarker byte = 0x8E
)

// Acquisition modes accepted in the system-setting frame. The values are
// ASCII digit codes, fixed by the firmware.
const (
	ModeResultOnly byte = 0x31
	ModeRawOnly    byte = 0x32
	ModeBoth       byte = 0x33
)

// GATT endpoints of the sensor's control service. The device exposes a
// transparent-UART style service: commands are written to the command
// characteristic, telemetry arrives as notifications on the telemetry
// characteristic.
const (
	ControlServiceUUID = "49535343-fe7d-4ae5-8fa9-9fafd205e455"
	CommandCharUUID    = "49535343-8841-43f4-a8d4-ecbe34729bb3"
	TelemetryCharUUID  = "49535343-1e4d-4bd9-ba61-23c647249616"
)

// systemSettingRate is the sample-rate field of the system-setting frame.
// The firmware only documents 200 Hz; the field is sent as a fixed ASCII
// literal regardless of what rate the caller intends. Do not "fix" this
// without confirming against real hardware.
var systemSettingRate = [3]byte{'2', '0', '0'}

// EncodeCommand builds a one-byte simple command frame.
func EncodeCommand(code byte) []byte {
	return []byte{code}
}

// EncodeSystemSetting builds the 6-byte system-setting frame:
// [CmdSystemSetting, mode, '2', '0', '0', simulated].
//
// mode is transmitted as-is; the device, not the codec, decides what an
// unrecognized mode value does.
func EncodeSystemSetting(mode byte, simulated bool) []byte {
	sim := byte('0')
	if simulated {
		sim = '1'
	}
	return []byte{
		CmdSystemSetting,
		mode,
		systemSettingRate[0],
		systemSettingRate[1],
		systemSettingRate[2],
		sim,
	}
}
