// Package sram drives a battery-backed parallel SRAM chip whose address bus
// is fed through an external shift-register chain and whose data bus is
// shared with the driver over 8 bidirectional GPIO lines.
//
// # Bus Arbitration
//
// The chip and the driver can both drive the data lines, so direction is
// managed as an explicit three-state machine (idle, read, write) owned by
// Bus. Direction changes happen only on mode entry; the per-byte enable
// pulses happen inside ReadByte and WriteByte. The write-enable and
// output-enable lines are never active at the same time — simultaneous
// activation risks bus contention and chip damage.
//
// # Addressing
//
// The chip has no address latch; the only addressing mechanism is clocking
// all 24 bits of an address into the shift registers (MSB first) before
// every single-byte access. See serializeAddr.
//
// # Timing
//
// Electrical transitions are separated by a settle delay, one named
// parameter (WithSettleDelay) rather than scattered constants. The chip's
// actual setup/hold requirements are far below the default microsecond, so
// the margin is wide. WithSleepFunc substitutes the delay implementation,
// which lets tests run a SimChip at full speed.
//
// # Hardware Independence
//
// Pins are periph.io gpio.PinIO values. On real hardware they come from
// gpioreg lookups; in tests they come from a SimChip, a software model of
// the shift registers and the memory array.
package sram
