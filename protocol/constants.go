package protocol

// MemSize is the capacity of the attached SRAM chip in bytes (128 KiB,
// 17 address lines). All transfer ranges must fall within [0, MemSize].
const MemSize = 0x20000

// SyncMarker is the fixed 4-byte sequence that begins every command frame.
// The device scans the serial stream for this marker to (re)synchronize, so
// any garbage between commands is silently discarded.
const SyncMarker = "SRAM"

// Instruction bytes, sent immediately after the sync marker.
const (
	// InsnRead requests a bulk read of an address range
	InsnRead = 'R'

	// InsnWrite requests a bulk write of an address range
	InsnWrite = 'W'

	// InsnStatus requests an immediate success response (liveness probe)
	InsnStatus = 'S'
)

// Response markers. Success and Continue are exactly two bytes with no
// terminator; an Error marker is followed by ASCII message text and a single
// 0x00 terminator. This asymmetry is part of the wire contract.
const (
	// RespSuccess terminates a successfully completed command ("OK")
	RespSuccess = "OK"

	// RespContinue grants the peer permission to transfer the next window.
	// Byte-identical to the flow-control token; direction disambiguates.
	RespContinue = "CO"

	// RespError introduces an error message ("NG" + text + 0x00)
	RespError = "NG"

	// ErrorTerminator ends the message text of an error response
	ErrorTerminator = 0x00
)

// WindowSize is the number of data bytes transferred per flow-control
// exchange, in both directions. It is a protocol constant shared by host and
// device, not negotiated.
const WindowSize = 32

// AddrSize is the wire size of an address in bytes. Addresses travel
// big-endian; only the low 17 bits are electrically meaningful, the top
// 7 bits must be zero.
const AddrSize = 3

// Frame sizes in bytes.
const (
	// StatusFrameSize is sync marker + instruction
	StatusFrameSize = len(SyncMarker) + 1

	// TransferFrameSize is sync marker + instruction + start + end
	TransferFrameSize = StatusFrameSize + 2*AddrSize
)

// DefaultBaudRate is the serial line rate both ends are configured for
// (8 data bits, no parity, one stop bit).
const DefaultBaudRate = 230400

// MaxErrorTextLen bounds the message text accepted when reading an error
// response, as a guard against a desynced stream that never produces the
// terminator.
const MaxErrorTextLen = 256

// Error message literals emitted by the device. Hosts may match on these.
const (
	// ErrTextUnknownCommand is reported for an unrecognized instruction byte
	ErrTextUnknownCommand = "Unknown command"

	// ErrTextBadContinuation is reported when the host's flow-control token
	// does not match RespContinue during a read transfer
	ErrTextBadContinuation = "Unexpected continuation from client"
)
