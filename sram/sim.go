package sram

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// SimChip is a software model of the shift-register chain and the SRAM chip
// behind it. It presents the same Pins a real board does, so a Bus (and
// everything above it) runs unmodified against it.
//
// Electrical behavior modeled:
//   - a rising edge on the address clock shifts the address data line into
//     a 24-bit chain; the chip decodes the low ChipAddrBits of the chain
//   - while output-enable is active the data pins read back the addressed
//     memory byte
//   - a write commits on the deasserting edge of write-enable, capturing
//     the levels driven onto the data pins
//
// SimChip is safe for concurrent Peek/Poke from a goroutine other than the
// one driving the pins.
type SimChip struct {
	mu sync.Mutex

	mem   [ChipSize]byte
	shift uint32

	addrData  gpio.Level
	addrClock gpio.Level
	oe        gpio.Level
	we        gpio.Level
	data      [8]*simPin

	contention bool
}

// NewSimChip returns a simulated chip with all memory zeroed.
func NewSimChip() *SimChip {
	c := &SimChip{
		oe: enableInactive,
		we: enableInactive,
	}
	for i := range c.data {
		i := i
		c.data[i] = &simPin{
			name: dataPinName(i),
			read: func() gpio.Level { return c.readDataLine(i) },
		}
	}
	return c
}

// Pins returns the chip's pin set, ready to hand to NewBus.
func (c *SimChip) Pins() Pins {
	p := Pins{
		AddrData:     &simPin{name: "SIM_ADDR_DATA", onOut: c.setAddrData},
		AddrClock:    &simPin{name: "SIM_ADDR_CLK", onOut: c.clockAddr},
		WriteEnable:  &simPin{name: "SIM_WE", onOut: c.setWriteEnable},
		OutputEnable: &simPin{name: "SIM_OE", onOut: c.setOutputEnable},
	}
	for i := range c.data {
		p.Data[i] = c.data[i]
	}
	return p
}

// Addr returns the address currently latched in the shift-register chain,
// masked to the chip's address lines.
func (c *SimChip) Addr() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shift & (ChipSize - 1)
}

// Peek returns the memory byte at addr without any bus activity.
func (c *SimChip) Peek(addr uint32) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem[addr&(ChipSize-1)]
}

// Poke stores a memory byte at addr without any bus activity.
func (c *SimChip) Poke(addr uint32, value byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[addr&(ChipSize-1)] = value
}

// Load copies data into memory starting at address 0.
func (c *SimChip) Load(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.mem[:], data)
}

func (c *SimChip) setAddrData(l gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addrData = l
}

func (c *SimChip) clockAddr(l gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l == gpio.High && c.addrClock == gpio.Low {
		bit := uint32(0)
		if c.addrData == gpio.High {
			bit = 1
		}
		c.shift = (c.shift<<1 | bit) & (1<<addrBits - 1)
	}
	c.addrClock = l
}

// Contention reports whether write-enable and output-enable were ever
// active at the same time. On the real chip that risks damage; the model
// latches the violation for tests to assert against.
func (c *SimChip) Contention() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contention
}

func (c *SimChip) setOutputEnable(l gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.oe = l
	if c.oe == enableActive && c.we == enableActive {
		c.contention = true
	}
}

func (c *SimChip) setWriteEnable(l gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Write commits when /WE deasserts.
	if l == enableInactive && c.we == enableActive {
		var value byte
		for i, pin := range c.data {
			if pin.driven() == gpio.High {
				value |= 1 << uint(i)
			}
		}
		c.mem[c.shift&(ChipSize-1)] = value
	}
	c.we = l
	if c.we == enableActive && c.oe == enableActive {
		c.contention = true
	}
}

func (c *SimChip) readDataLine(bit int) gpio.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.oe != enableActive {
		// Bus not driven by the chip; reads float low.
		return gpio.Low
	}
	if c.mem[c.shift&(ChipSize-1)]&(1<<uint(bit)) != 0 {
		return gpio.High
	}
	return gpio.Low
}

func dataPinName(i int) string {
	return "SIM_D" + string(rune('0'+i))
}

// simPin is a minimal gpio.PinIO backed by callbacks into the chip model.
type simPin struct {
	name  string
	onOut func(gpio.Level)
	read  func() gpio.Level

	mu    sync.Mutex
	level gpio.Level
}

func (p *simPin) driven() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *simPin) String() string   { return p.name }
func (p *simPin) Name() string     { return p.name }
func (p *simPin) Number() int      { return -1 }
func (p *simPin) Function() string { return "simulated" }
func (p *simPin) Halt() error      { return nil }

func (p *simPin) In(pull gpio.Pull, edge gpio.Edge) error { return nil }

func (p *simPin) Read() gpio.Level {
	if p.read != nil {
		return p.read()
	}
	return p.driven()
}

func (p *simPin) WaitForEdge(timeout time.Duration) bool { return false }
func (p *simPin) Pull() gpio.Pull                        { return gpio.Float }
func (p *simPin) DefaultPull() gpio.Pull                 { return gpio.Float }

func (p *simPin) Out(l gpio.Level) error {
	p.mu.Lock()
	p.level = l
	p.mu.Unlock()
	if p.onOut != nil {
		p.onOut(l)
	}
	return nil
}

func (p *simPin) PWM(d gpio.Duty, f physic.Frequency) error {
	return errors.New("simulated pin: pwm not supported")
}

var _ gpio.PinIO = (*simPin)(nil)
