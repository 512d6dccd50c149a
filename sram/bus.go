package sram

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ChipAddrBits is the number of address lines on the chip.
const ChipAddrBits = 17

// ChipSize is the chip capacity in bytes (128 KiB).
const ChipSize = 1 << ChipAddrBits

// DefaultSettleDelay is the pause inserted between electrical transitions.
// The chip's setup/hold requirements are on the order of tens of
// nanoseconds, so a microsecond leaves wide margin.
const DefaultSettleDelay = time.Microsecond

// Enable-line levels. The chip's write-enable and output-enable inputs are
// active low.
const (
	enableActive   = gpio.Low
	enableInactive = gpio.High
)

// Mode is the direction state of the data bus.
type Mode int

const (
	// ModeIdle: enables inactive, data lines high-impedance. The required
	// state at startup and between commands.
	ModeIdle Mode = iota

	// ModeRead: data lines are inputs, the chip drives them while
	// output-enable is pulsed.
	ModeRead

	// ModeWrite: data lines are outputs driven by this side.
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Pins is the set of GPIO lines wired to the chip and its address shift
// registers. Any gpio.PinIO implementation works: periph.io host pins on
// real hardware, or a SimChip's pins in tests.
type Pins struct {
	// AddrData is the serial data input of the shift-register chain
	AddrData gpio.PinIO

	// AddrClock is the shift clock of the chain
	AddrClock gpio.PinIO

	// WriteEnable is the chip's /WE line (active low)
	WriteEnable gpio.PinIO

	// OutputEnable is the chip's /OE line (active low)
	OutputEnable gpio.PinIO

	// Data are the 8 bidirectional data lines, D0 through D7.
	// Bit i of a transferred byte rides on Data[i].
	Data [8]gpio.PinIO
}

func (p Pins) validate() error {
	named := []struct {
		name string
		pin  gpio.PinIO
	}{
		{"AddrData", p.AddrData},
		{"AddrClock", p.AddrClock},
		{"WriteEnable", p.WriteEnable},
		{"OutputEnable", p.OutputEnable},
	}
	for _, n := range named {
		if n.pin == nil {
			return fmt.Errorf("pin %s is nil", n.name)
		}
	}
	for i, pin := range p.Data {
		if pin == nil {
			return fmt.Errorf("data pin D%d is nil", i)
		}
	}
	return nil
}

// Bus drives the chip through its pins. It owns the bus direction state:
// data-line direction changes only at mode entry, while the enable lines are
// pulsed per byte access. The enables are never active simultaneously, and
// exactly one mode is in effect at any time.
//
// Bus is not safe for concurrent use; it is meant to be owned by a single
// command loop.
type Bus struct {
	pins   Pins
	mode   Mode
	settle time.Duration
	sleep  func(time.Duration)
}

// ModeError reports an access attempted while the bus is in the wrong mode.
type ModeError struct {
	// Op is the attempted operation ("read byte" or "write byte")
	Op string

	// Need is the mode the operation requires
	Need Mode

	// Have is the mode the bus was in
	Have Mode
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("%s requires %s mode, bus is in %s mode", e.Op, e.Need, e.Have)
}

// Option is a functional option for configuring a Bus.
type Option func(*Bus)

// WithSettleDelay overrides the settle delay inserted between electrical
// transitions. The default is DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(b *Bus) {
		if d >= 0 {
			b.settle = d
		}
	}
}

// WithSleepFunc overrides the sleep function used for settle delays.
// Tests substitute a no-op to run at full speed against a SimChip.
func WithSleepFunc(sleep func(time.Duration)) Option {
	return func(b *Bus) {
		if sleep != nil {
			b.sleep = sleep
		}
	}
}

// NewBus creates a Bus over the given pins and places it in idle mode,
// establishing a known electrical state: enables inactive, data lines
// high-impedance, address lines low.
func NewBus(pins Pins, opts ...Option) (*Bus, error) {
	if err := pins.validate(); err != nil {
		return nil, err
	}

	b := &Bus{
		pins:   pins,
		settle: DefaultSettleDelay,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := pins.AddrData.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("init address data line: %w", err)
	}
	if err := pins.AddrClock.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("init address clock line: %w", err)
	}
	if err := b.EnterIdle(); err != nil {
		return nil, err
	}
	return b, nil
}

// Mode returns the current bus mode.
func (b *Bus) Mode() Mode {
	return b.mode
}

// EnterIdle deactivates both enable lines and releases the data lines to
// high-impedance. Safe to call from any mode.
func (b *Bus) EnterIdle() error {
	if err := b.disableEnables(); err != nil {
		return err
	}
	if err := b.dataLinesIn(); err != nil {
		return err
	}
	b.sleep(b.settle)
	b.mode = ModeIdle
	return nil
}

// EnterRead prepares the bus for byte reads: enables inactive, data lines
// as inputs so the chip can drive them. Called once per read command, not
// per byte.
func (b *Bus) EnterRead() error {
	if err := b.disableEnables(); err != nil {
		return err
	}
	if err := b.dataLinesIn(); err != nil {
		return err
	}
	b.sleep(b.settle)
	b.mode = ModeRead
	return nil
}

// EnterWrite prepares the bus for byte writes: enables inactive, data lines
// as outputs. Called once per write command, not per byte.
func (b *Bus) EnterWrite() error {
	if err := b.disableEnables(); err != nil {
		return err
	}
	for i, pin := range b.pins.Data {
		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("data line D%d as output: %w", i, err)
		}
	}
	b.sleep(b.settle)
	b.mode = ModeWrite
	return nil
}

// ReadByte latches addr into the shift registers, pulses output-enable and
// samples the data lines. The bus must be in read mode.
func (b *Bus) ReadByte(addr uint32) (byte, error) {
	if b.mode != ModeRead {
		return 0, &ModeError{Op: "read byte", Need: ModeRead, Have: b.mode}
	}

	if err := b.serializeAddr(addr); err != nil {
		return 0, err
	}
	b.sleep(b.settle)

	if err := b.pins.OutputEnable.Out(enableActive); err != nil {
		return 0, fmt.Errorf("assert output-enable: %w", err)
	}
	b.sleep(b.settle)

	var value byte
	for i, pin := range b.pins.Data {
		if pin.Read() == gpio.High {
			value |= 1 << uint(i)
		}
	}

	if err := b.pins.OutputEnable.Out(enableInactive); err != nil {
		return 0, fmt.Errorf("deassert output-enable: %w", err)
	}
	return value, nil
}

// WriteByte latches addr into the shift registers, drives value onto the
// data lines and pulses write-enable. The bus must be in write mode.
func (b *Bus) WriteByte(addr uint32, value byte) error {
	if b.mode != ModeWrite {
		return &ModeError{Op: "write byte", Need: ModeWrite, Have: b.mode}
	}

	if err := b.serializeAddr(addr); err != nil {
		return err
	}
	b.sleep(b.settle)

	for i, pin := range b.pins.Data {
		level := gpio.Low
		if value&(1<<uint(i)) != 0 {
			level = gpio.High
		}
		if err := pin.Out(level); err != nil {
			return fmt.Errorf("drive data line D%d: %w", i, err)
		}
	}

	if err := b.pins.WriteEnable.Out(enableActive); err != nil {
		return fmt.Errorf("assert write-enable: %w", err)
	}
	b.sleep(b.settle)
	if err := b.pins.WriteEnable.Out(enableInactive); err != nil {
		return fmt.Errorf("deassert write-enable: %w", err)
	}
	return nil
}

func (b *Bus) disableEnables() error {
	if err := b.pins.WriteEnable.Out(enableInactive); err != nil {
		return fmt.Errorf("deassert write-enable: %w", err)
	}
	if err := b.pins.OutputEnable.Out(enableInactive); err != nil {
		return fmt.Errorf("deassert output-enable: %w", err)
	}
	return nil
}

func (b *Bus) dataLinesIn() error {
	for i, pin := range b.pins.Data {
		if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
			return fmt.Errorf("data line D%d as input: %w", i, err)
		}
	}
	return nil
}
