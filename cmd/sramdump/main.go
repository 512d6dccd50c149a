// sramdump is the host-side utility for dumping and restoring the SRAM
// chip through the link device.
//
// Usage:
//
//	sramdump [flags] status
//	sramdump [flags] read FILE
//	sramdump [flags] write FILE
//	sramdump [flags] verify FILE
//
// read dumps -length bytes starting at -offset into FILE; write programs
// FILE's contents starting at -offset; verify reads the range back and
// compares it against FILE without modifying the chip.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"go.bug.st/serial"

	"github.com/gridkit/sramlink/dumper"
	"github.com/gridkit/sramlink/image"
	"github.com/gridkit/sramlink/protocol"
)

const (
	probeTimeout    = 100 * time.Millisecond
	transferTimeout = 10 * time.Second
)

func main() {
	var (
		portName = flag.String("port", "/dev/ttyACM0", "serial port of the link device")
		offset   = flag.String("offset", "0", "start address (decimal or 0x hex)")
		length   = flag.String("length", "0x20000", "read/verify length in bytes (decimal or 0x hex)")
		quiet    = flag.Bool("q", false, "suppress progress output")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	action := flag.Arg(0)
	file := flag.Arg(1)

	off, err := parseNum(*offset)
	if err != nil {
		log.Fatalf("bad -offset: %v", err)
	}
	n, err := parseNum(*length)
	if err != nil {
		log.Fatalf("bad -length: %v", err)
	}

	if err := run(action, file, *portName, uint32(off), int(n), *quiet); err != nil {
		log.Fatal(err)
	}
}

func run(action, file, portName string, offset uint32, length int, quiet bool) error {
	ctx := context.Background()

	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: protocol.DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", portName, err)
	}
	defer port.Close()

	opts := []dumper.Option{}
	if !quiet {
		opts = append(opts, dumper.WithProgressCallback(printProgress))
	}
	d := dumper.New(port, opts...)

	// Probe with a short read timeout until the device answers, then switch
	// to a transfer timeout generous enough for the slowest window.
	if err := port.SetReadTimeout(probeTimeout); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = d.WaitReady(waitCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("device not responding on %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(transferTimeout); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}

	switch action {
	case "status":
		fmt.Println("device is up")
		return nil

	case "read":
		if file == "" {
			return fmt.Errorf("read requires a FILE argument")
		}
		data, err := d.Read(ctx, offset, length)
		finishProgress(quiet)
		if err != nil {
			return err
		}
		if err := image.Save(file, data); err != nil {
			return err
		}
		fmt.Printf("dumped %d bytes to %s\n", len(data), file)
		return nil

	case "write":
		if file == "" {
			return fmt.Errorf("write requires a FILE argument")
		}
		data, err := image.Load(file)
		if err != nil {
			return err
		}
		err = d.Write(ctx, offset, data)
		finishProgress(quiet)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes from %s\n", len(data), file)
		return nil

	case "verify":
		if file == "" {
			return fmt.Errorf("verify requires a FILE argument")
		}
		want, err := image.Load(file)
		if err != nil {
			return err
		}
		got, err := d.Read(ctx, offset, len(want))
		finishProgress(quiet)
		if err != nil {
			return err
		}
		if err := image.Compare(got, want); err != nil {
			return err
		}
		fmt.Printf("verified %d bytes against %s\n", len(want), file)
		return nil

	default:
		return fmt.Errorf("unrecognized action %q (want status, read, write or verify)", action)
	}
}

func parseNum(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 32)
}

func printProgress(p dumper.Progress) {
	fmt.Printf("\r[%s] %6.2f%% (%d/%d bytes)", p.Phase, p.Percentage, p.BytesDone, p.TotalBytes)
}

func finishProgress(quiet bool) {
	if !quiet {
		fmt.Println()
	}
}
