package dumper

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gridkit/sramlink/protocol"
)

// Dumper drives bulk SRAM transfers from the host side of the link.
// The device is any io.ReadWriter carrying the serial channel.
//
// Dumper issues one command at a time; it is not safe for concurrent use.
type Dumper struct {
	device io.ReadWriter
	config Config
}

// New creates a Dumper over the given device.
//
// Example:
//
//	port, _ := serial.Open("/dev/ttyACM0", &serial.Mode{BaudRate: protocol.DefaultBaudRate})
//	d := dumper.New(port,
//	    dumper.WithProgressCallback(progressFunc),
//	)
func New(device io.ReadWriter, opts ...Option) *Dumper {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Dumper{
		device: device,
		config: cfg,
	}
}

// Status sends a status probe and waits for the device's success response.
func (d *Dumper) Status(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.device.Write(protocol.BuildStatusCmd()); err != nil {
		return fmt.Errorf("send status command: %w", err)
	}
	return protocol.ReadStatus(d.device)
}

// WaitReady repeatedly probes the device until it answers a status command,
// the way the original host utility waited for the board to come up after
// opening the port. It requires a device whose Read times out by returning
// (0, nil) — configure the serial port with a read timeout first (see
// go.bug.st/serial's SetReadTimeout). With a fully blocking device this
// degrades to a single blocking probe.
func (d *Dumper) WaitReady(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := d.device.Write(protocol.BuildStatusCmd()); err != nil {
			return fmt.Errorf("probe device: %w", err)
		}

		var marker [2]byte
		n, err := d.device.Read(marker[:])
		if err != nil {
			return fmt.Errorf("probe device: %w", err)
		}
		if n == len(marker) && string(marker[:]) == protocol.RespSuccess {
			d.logDebug("device ready")
			return nil
		}
		// Timed out or read boot noise; probe again.
	}
}

// Read transfers length bytes starting at start from the chip.
// The transfer follows the windowed flow-control scheme: after the device
// announces the transfer, the host grants each 32-byte window with a token
// and reads the window's data, then consumes the terminal status.
func (d *Dumper) Read(ctx context.Context, start uint32, length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("length must be positive, got %d", length)
	}
	cmd, err := protocol.BuildReadCmd(start, start+uint32(length))
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	d.logDebug("read", "start", start, "length", length)

	if _, err := d.device.Write(cmd); err != nil {
		return nil, fmt.Errorf("send read command: %w", err)
	}

	// The device announces an accepted transfer with a continue response;
	// a rejected range surfaces here as a *protocol.DeviceError.
	if err := protocol.ReadContinue(d.device); err != nil {
		return nil, err
	}

	data := make([]byte, length)
	for off := 0; off < length; off += protocol.WindowSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		if _, err := io.WriteString(d.device, protocol.RespContinue); err != nil {
			return nil, fmt.Errorf("send flow-control token: %w", err)
		}

		end := min(off+protocol.WindowSize, length)
		if _, err := io.ReadFull(d.device, data[off:end]); err != nil {
			return nil, fmt.Errorf("read window at offset %d: %w", off, err)
		}

		d.reportProgress(Progress{
			Phase:       PhaseReading,
			BytesDone:   end,
			TotalBytes:  length,
			Percentage:  float64(end) / float64(length) * 100,
			ElapsedTime: time.Since(startTime),
		})
	}

	if err := protocol.ReadStatus(d.device); err != nil {
		return nil, err
	}

	d.logDebug("read complete", "bytes", length, "elapsed", time.Since(startTime).String())
	return data, nil
}

// Write transfers data to the chip starting at address start.
// The device grants each 32-byte window with a continue response before the
// host sends the window's bytes; the terminal status confirms completion.
func (d *Dumper) Write(ctx context.Context, start uint32, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("data cannot be empty")
	}
	cmd, err := protocol.BuildWriteCmd(start, start+uint32(len(data)))
	if err != nil {
		return err
	}

	startTime := time.Now()
	d.logDebug("write", "start", start, "length", len(data))

	if _, err := d.device.Write(cmd); err != nil {
		return fmt.Errorf("send write command: %w", err)
	}

	for off := 0; off < len(data); off += protocol.WindowSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		// Wait for the device to grant the window. A rejected range
		// surfaces here, before any payload moves.
		if err := protocol.ReadContinue(d.device); err != nil {
			return err
		}

		end := min(off+protocol.WindowSize, len(data))
		if _, err := d.device.Write(data[off:end]); err != nil {
			return fmt.Errorf("write window at offset %d: %w", off, err)
		}

		d.reportProgress(Progress{
			Phase:       PhaseWriting,
			BytesDone:   end,
			TotalBytes:  len(data),
			Percentage:  float64(end) / float64(len(data)) * 100,
			ElapsedTime: time.Since(startTime),
		})
	}

	if err := protocol.ReadStatus(d.device); err != nil {
		return err
	}

	d.logDebug("write complete", "bytes", len(data), "elapsed", time.Since(startTime).String())
	return nil
}

// DumpImage reads the entire chip.
func (d *Dumper) DumpImage(ctx context.Context) ([]byte, error) {
	return d.Read(ctx, 0, protocol.MemSize)
}

// RestoreImage writes a full chip image. The image must be exactly
// protocol.MemSize bytes.
func (d *Dumper) RestoreImage(ctx context.Context, image []byte) error {
	if len(image) != protocol.MemSize {
		return &ImageSizeError{Got: len(image), Want: protocol.MemSize}
	}
	return d.Write(ctx, 0, image)
}

func (d *Dumper) reportProgress(progress Progress) {
	if d.config.ProgressCallback != nil {
		d.config.ProgressCallback(progress)
	}
}

func (d *Dumper) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}
