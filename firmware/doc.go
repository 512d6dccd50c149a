// Package firmware implements the device side of the SRAM link: a single
// blocking command loop that frames, validates and serves bulk memory
// transfers over a serial port.
//
// # Command Loop
//
// Run scans the incoming stream for the protocol sync marker, discarding
// anything else; a mismatched byte is never an error because the scan is
// how the device realigns after noise or a broken transfer. Once synced,
// one instruction byte selects the command:
//
//	'S'  answer "OK" immediately
//	'R'  bulk read of a validated [start, end) range
//	'W'  bulk write of a validated [start, end) range
//
// Range validation failures and unknown instructions are answered with an
// error response and terminate only the current command; the loop then
// resumes scanning.
//
// # Flow Control
//
// Transfers move one byte per bus access but are paced in 32-byte windows
// by whichever end consumes the data: the host grants read windows with
// flow-control tokens, the device grants write windows with continue
// responses. A bad token mid-read is a protocol violation by a synced peer
// and is answered with an explicit error, unlike sync noise.
//
// # Bus Ownership
//
// The interpreter is the sole owner of the sram.Bus. It enters read or
// write mode once per transfer command and returns the bus to idle when the
// command completes or aborts, so between commands the bus is always idle.
//
// # Transports
//
// The serial port is any blocking io.ReadWriter: a real tty on the device,
// or an in-memory pipe in tests.
package firmware
