// sramfw is the device-side daemon. It runs on the board wired to the SRAM
// chip, owns the GPIO bus, and serves the link protocol on a serial port
// until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/gridkit/sramlink/firmware"
	"github.com/gridkit/sramlink/protocol"
	"github.com/gridkit/sramlink/sram"
)

func main() {
	var (
		serialName = flag.String("serial", "/dev/serial0", "serial port carrying the link")
		baud       = flag.Int("baud", protocol.DefaultBaudRate, "serial baud rate")
		simulate   = flag.Bool("sim", false, "use a simulated chip instead of GPIO (protocol testing)")
		addrData   = flag.String("addr-data", "GPIO2", "shift-register data pin")
		addrClock  = flag.String("addr-clock", "GPIO3", "shift-register clock pin")
		writeEn    = flag.String("we", "GPIO17", "chip /WE pin")
		outputEn   = flag.String("oe", "GPIO27", "chip /OE pin")
		dataPins   = flag.String("data", "GPIO5,GPIO6,GPIO13,GPIO19,GPIO26,GPIO16,GPIO20,GPIO21", "comma-separated D0..D7 pins")
		ledPin     = flag.String("led", "GPIO18", "heartbeat LED pin (empty to disable)")
		period     = flag.Duration("heartbeat", firmware.DefaultHeartbeatPeriod, "heartbeat toggle period")
		verbose    = flag.Bool("v", false, "log every command")
	)
	flag.Parse()

	if err := run(*serialName, *baud, *simulate, pinNames{
		addrData:  *addrData,
		addrClock: *addrClock,
		writeEn:   *writeEn,
		outputEn:  *outputEn,
		data:      *dataPins,
		led:       *ledPin,
	}, *period, *verbose); err != nil {
		log.Fatal(err)
	}
}

type pinNames struct {
	addrData, addrClock, writeEn, outputEn, data, led string
}

func run(serialName string, baud int, simulate bool, names pinNames, period time.Duration, verbose bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port, err := serial.Open(serialName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", serialName, err)
	}
	defer port.Close()

	var (
		pins sram.Pins
		led  gpio.PinOut
	)
	if simulate {
		chip := sram.NewSimChip()
		pins = chip.Pins()
		log.Print("running against simulated chip")
	} else {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("periph host init: %w", err)
		}
		pins, led, err = lookupPins(names)
		if err != nil {
			return err
		}
	}

	busOpts := []sram.Option{}
	if simulate {
		// No electrical settle needed against the software chip.
		busOpts = append(busOpts, sram.WithSleepFunc(func(time.Duration) {}))
	}
	bus, err := sram.NewBus(pins, busOpts...)
	if err != nil {
		return fmt.Errorf("bus setup: %w", err)
	}

	if led != nil {
		go func() {
			if err := firmware.Heartbeat(ctx, led, period); err != nil {
				log.Printf("heartbeat stopped: %v", err)
			}
		}()
	}

	fwOpts := []firmware.Option{}
	if verbose {
		fwOpts = append(fwOpts, firmware.WithLogger(stdLogger{log.Default()}))
	}

	// The interpreter blocks in serial reads, so cancellation takes effect
	// at the next received byte; closing the port on ctx.Done unblocks it.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	log.Printf("serving SRAM link on %s at %d baud", serialName, baud)
	err = firmware.New(port, bus, fwOpts...).Run(ctx)
	if ctx.Err() != nil {
		// Interrupted: the port was closed under the interpreter on purpose.
		log.Print("shutting down")
		return nil
	}
	return err
}

func lookupPins(names pinNames) (sram.Pins, gpio.PinOut, error) {
	var pins sram.Pins
	lookup := func(name, role string) (gpio.PinIO, error) {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("%s pin %q not found", role, name)
		}
		return pin, nil
	}

	var err error
	if pins.AddrData, err = lookup(names.addrData, "addr-data"); err != nil {
		return pins, nil, err
	}
	if pins.AddrClock, err = lookup(names.addrClock, "addr-clock"); err != nil {
		return pins, nil, err
	}
	if pins.WriteEnable, err = lookup(names.writeEn, "we"); err != nil {
		return pins, nil, err
	}
	if pins.OutputEnable, err = lookup(names.outputEn, "oe"); err != nil {
		return pins, nil, err
	}

	dataNames := strings.Split(names.data, ",")
	if len(dataNames) != len(pins.Data) {
		return pins, nil, fmt.Errorf("-data needs %d pins, got %d", len(pins.Data), len(dataNames))
	}
	for i, name := range dataNames {
		if pins.Data[i], err = lookup(strings.TrimSpace(name), fmt.Sprintf("D%d", i)); err != nil {
			return pins, nil, err
		}
	}

	if names.led == "" {
		return pins, nil, nil
	}
	led, err := lookup(names.led, "led")
	if err != nil {
		return pins, nil, err
	}
	return pins, led, nil
}

// stdLogger adapts the standard log package to firmware.Logger.
type stdLogger struct {
	l *log.Logger
}

func (s stdLogger) Debug(msg string, kv ...interface{}) { s.l.Println(append([]interface{}{"DEBUG", msg}, kv...)...) }
func (s stdLogger) Error(msg string, kv ...interface{}) { s.l.Println(append([]interface{}{"ERROR", msg}, kv...)...) }
