package protocol

import "fmt"

// RangeErrorKind identifies which bounds rule a transfer range violated.
type RangeErrorKind int

const (
	// RangeStartOutOfBounds means Start >= MemSize
	RangeStartOutOfBounds RangeErrorKind = iota

	// RangeEndOutOfBounds means End > MemSize
	RangeEndOutOfBounds

	// RangeOutOfOrder means Start >= End
	RangeOutOfOrder
)

// RangeError reports an invalid transfer range. Its Error text is the exact
// message the device emits in an error response for the same violation, so
// host-side validation and device-reported errors read identically.
type RangeError struct {
	Kind  RangeErrorKind
	Range Range
}

func (e *RangeError) Error() string {
	switch e.Kind {
	case RangeStartOutOfBounds:
		return fmt.Sprintf("Starting address out of bounds: %d", e.Range.Start)
	case RangeEndOutOfBounds:
		return fmt.Sprintf("Ending address out of bounds: %d", e.Range.End)
	default:
		return "Address bounds out of order"
	}
}

// DeviceError is an error response received from the device: the message
// text carried between the "NG" marker and the 0x00 terminator.
type DeviceError struct {
	// Message is the ASCII error text as sent by the device
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device reported error: %s", e.Message)
}

// UnexpectedResponseError indicates the peer sent something other than the
// two-byte response marker the protocol called for at this point. The stream
// is desynchronized; the only recovery is a fresh sync-prefixed command.
type UnexpectedResponseError struct {
	// Want is the expected marker ("OK" or "CO")
	Want string

	// Got holds the two bytes actually received
	Got [2]byte
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response: got % 02X, want %q", e.Got[:], e.Want)
}

// IsDeviceError returns true if the error is a DeviceError.
func IsDeviceError(err error) bool {
	_, ok := err.(*DeviceError)
	return ok
}
