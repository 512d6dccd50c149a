package sram

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// addrBits is the width of the shift-register chain. The wire format and
// the chain are 24 bits wide even though the chip only decodes the low
// ChipAddrBits of them.
const addrBits = 24

// serializeAddr clocks addr into the external shift-register chain, most
// significant bit first. For each bit: drive the data line, wait a settle
// interval, then pulse the clock high and low with a settle interval
// between the edges. The clock is left low.
//
// The chip has no address latch of its own, so this must run before every
// single-byte access.
func (b *Bus) serializeAddr(addr uint32) error {
	for bit := addrBits - 1; bit >= 0; bit-- {
		level := gpio.Low
		if addr&(1<<uint(bit)) != 0 {
			level = gpio.High
		}
		if err := b.pins.AddrData.Out(level); err != nil {
			return fmt.Errorf("address data line: %w", err)
		}
		b.sleep(b.settle)

		if err := b.pins.AddrClock.Out(gpio.High); err != nil {
			return fmt.Errorf("address clock line: %w", err)
		}
		b.sleep(b.settle)
		if err := b.pins.AddrClock.Out(gpio.Low); err != nil {
			return fmt.Errorf("address clock line: %w", err)
		}
	}
	return nil
}
