// Package protocol implements the wire protocol spoken between the SRAM
// link device and its host.
//
// # Protocol Overview
//
// The link is an asynchronous serial channel (DefaultBaudRate, 8N1).
// Every command begins with a fixed sync marker so the device can realign
// after noise or a desynchronized transfer:
//
//	Command:  ['S']['R']['A']['M'][INSN][START(3)][END(3)]
//
// The two 3-byte big-endian addresses are present only for the Read ('R')
// and Write ('W') instructions; Status ('S') is the marker and instruction
// alone. There are no checksums: frame boundaries exist purely through the
// byte counts both ends agree on.
//
// Responses come in three forms:
//
//	Success:  ['O']['K']                      (no terminator)
//	Continue: ['C']['O']                      (no terminator)
//	Error:    ['N']['G'][ASCII text...][0x00]
//
// # Flow Control
//
// Bulk transfers move WindowSize bytes per flow-control exchange. The
// consumer paces the producer: during a Read the host grants each window by
// sending the two-byte "CO" token, during a Write the device grants each
// window by sending a Continue response. The window size is fixed in both
// directions and is not negotiated.
//
// # Command Builders
//
// Use the Build* functions to create command frames:
//
//	frame := protocol.BuildStatusCmd()
//	frame, err := protocol.BuildReadCmd(0, protocol.MemSize)
//	frame, err := protocol.BuildWriteCmd(0x1000, 0x1800)
//
// Transfer ranges are validated with the same rules the device applies;
// a *RangeError's text matches the device's wire message exactly.
//
// # Response Helpers
//
// Both ends of the link use the same helpers. The device emits responses
// with WriteSuccess, WriteContinue and WriteError; the host consumes them
// with ReadStatus and ReadContinue, which turn an "NG" response into a
// *DeviceError carrying the message text.
package protocol
