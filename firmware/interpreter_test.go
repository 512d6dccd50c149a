package firmware

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/gridkit/sramlink/protocol"
	"github.com/gridkit/sramlink/sram"
)

// duplex joins two pipe halves into one io.ReadWriter link endpoint.
type duplex struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (d *duplex) Read(p []byte) (int, error)  { return d.r.Read(p) }
func (d *duplex) Write(p []byte) (int, error) { return d.w.Write(p) }

func (d *duplex) Close() error {
	d.r.Close()
	return d.w.Close()
}

func newLink() (host, device *duplex) {
	hostR, deviceW := io.Pipe()
	deviceR, hostW := io.Pipe()
	return &duplex{r: hostR, w: hostW}, &duplex{r: deviceR, w: deviceW}
}

// startInterpreter runs an interpreter against a simulated chip and returns
// the host end of the link. Cleanup closes the link and verifies the run
// loop exits cleanly.
func startInterpreter(t *testing.T) (*duplex, *sram.SimChip, *sram.Bus) {
	t.Helper()

	chip := sram.NewSimChip()
	bus, err := sram.NewBus(chip.Pins(), sram.WithSleepFunc(func(time.Duration) {}))
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}

	host, device := newLink()
	done := make(chan error, 1)
	go func() {
		done <- New(device, bus).Run(context.Background())
	}()

	t.Cleanup(func() {
		host.Close()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v, want nil on closed port", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("interpreter did not exit after the port closed")
		}
	})
	return host, chip, bus
}

func (d *duplex) send(t *testing.T, data []byte) {
	t.Helper()
	if _, err := d.Write(data); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func (d *duplex) recv(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := io.ReadFull(d, buf); err != nil {
		t.Fatalf("recv %d bytes: %v", n, err)
	}
	return buf
}

func (d *duplex) sendTransferCmd(t *testing.T, insn byte, start, end uint32) {
	t.Helper()
	frame := append([]byte(protocol.SyncMarker), insn)
	frame = protocol.AppendAddr(frame, start)
	frame = protocol.AppendAddr(frame, end)
	d.send(t, frame)
}

func TestStatusCommand(t *testing.T) {
	host, _, _ := startInterpreter(t)

	host.send(t, protocol.BuildStatusCmd())
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("status response = %q, want %q", got, "OK")
	}
}

func TestSyncScanDiscardsNoise(t *testing.T) {
	host, _, _ := startInterpreter(t)

	// Garbage, a false marker start, then a real frame.
	host.send(t, []byte("\x00\xFFnoSRA"))
	host.send(t, protocol.BuildStatusCmd())
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("status response after noise = %q, want %q", got, "OK")
	}
}

func TestSyncScanHandlesRepeatedFirstByte(t *testing.T) {
	host, _, _ := startInterpreter(t)

	// "SSRAMS": the second 'S' breaks the first match attempt but starts
	// the real one.
	host.send(t, []byte("S"))
	host.send(t, protocol.BuildStatusCmd())
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("status response = %q, want %q", got, "OK")
	}
}

func TestUnknownInstruction(t *testing.T) {
	host, _, _ := startInterpreter(t)

	host.send(t, []byte("SRAMX"))
	err := protocol.ReadStatus(host)
	devErr, ok := err.(*protocol.DeviceError)
	if !ok {
		t.Fatalf("error type = %T (%v), want *protocol.DeviceError", err, err)
	}
	if devErr.Message != "Unknown command" {
		t.Errorf("message = %q, want %q", devErr.Message, "Unknown command")
	}

	// The loop must have resumed scanning.
	host.send(t, protocol.BuildStatusCmd())
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("status after unknown instruction = %q, want %q", got, "OK")
	}
}

func TestRangeValidation(t *testing.T) {
	tests := []struct {
		name    string
		insn    byte
		start   uint32
		end     uint32
		wantMsg string
	}{
		{
			name:    "read start out of bounds",
			insn:    protocol.InsnRead,
			start:   protocol.MemSize,
			end:     protocol.MemSize,
			wantMsg: "Starting address out of bounds: 131072",
		},
		{
			name:    "read end out of bounds",
			insn:    protocol.InsnRead,
			start:   0,
			end:     protocol.MemSize + 1,
			wantMsg: "Ending address out of bounds: 131073",
		},
		{
			name:    "read inverted bounds",
			insn:    protocol.InsnRead,
			start:   0x200,
			end:     0x100,
			wantMsg: "Address bounds out of order",
		},
		{
			name:    "write start out of bounds",
			insn:    protocol.InsnWrite,
			start:   0x30000,
			end:     0x30001,
			wantMsg: "Starting address out of bounds: 196608",
		},
		{
			name:    "write empty range",
			insn:    protocol.InsnWrite,
			start:   0x80,
			end:     0x80,
			wantMsg: "Address bounds out of order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, _, bus := startInterpreter(t)

			host.sendTransferCmd(t, tt.insn, tt.start, tt.end)
			err := protocol.ReadStatus(host)
			devErr, ok := err.(*protocol.DeviceError)
			if !ok {
				t.Fatalf("error type = %T (%v), want *protocol.DeviceError", err, err)
			}
			if devErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", devErr.Message, tt.wantMsg)
			}

			// No range data may follow; the next command must work.
			host.send(t, protocol.BuildStatusCmd())
			if got := host.recv(t, 2); string(got) != "OK" {
				t.Errorf("status after rejection = %q, want %q", got, "OK")
			}
			if bus.Mode() != sram.ModeIdle {
				t.Errorf("bus mode = %v, want idle", bus.Mode())
			}
		})
	}
}

func TestReadTransferWindows(t *testing.T) {
	host, chip, bus := startInterpreter(t)

	// 65 bytes: windows at indices 0, 32 and 64, so exactly 3 tokens.
	const base = 0x00100
	const length = 65
	want := make([]byte, length)
	for i := range want {
		want[i] = byte(i*7 + 3)
		chip.Poke(base+uint32(i), want[i])
	}

	host.sendTransferCmd(t, protocol.InsnRead, base, base+length)

	// Transfer announcement.
	if got := host.recv(t, 2); string(got) != "CO" {
		t.Fatalf("announce = %q, want %q", got, "CO")
	}

	var data []byte
	for _, windowLen := range []int{32, 32, 1} {
		host.send(t, []byte(protocol.RespContinue))
		data = append(data, host.recv(t, windowLen)...)
	}

	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("terminal response = %q, want %q", got, "OK")
	}
	if !bytes.Equal(data, want) {
		t.Errorf("read data mismatch:\n got % 02X\nwant % 02X", data, want)
	}

	// A completed status exchange orders the idle transition before the
	// mode assertion.
	host.send(t, protocol.BuildStatusCmd())
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Fatalf("status after transfer = %q, want %q", got, "OK")
	}
	if bus.Mode() != sram.ModeIdle {
		t.Errorf("bus mode after transfer = %v, want idle", bus.Mode())
	}
	if chip.Contention() {
		t.Error("enable lines were simultaneously active during the transfer")
	}
}

func TestReadFlowControlDesync(t *testing.T) {
	host, chip, bus := startInterpreter(t)
	chip.Poke(0, 0x11)

	host.sendTransferCmd(t, protocol.InsnRead, 0, 64)
	if got := host.recv(t, 2); string(got) != "CO" {
		t.Fatalf("announce = %q, want %q", got, "CO")
	}

	// Wrong token instead of "CO".
	host.send(t, []byte("XX"))
	err := protocol.ReadStatus(host)
	devErr, ok := err.(*protocol.DeviceError)
	if !ok {
		t.Fatalf("error type = %T (%v), want *protocol.DeviceError", err, err)
	}
	if devErr.Message != "Unexpected continuation from client" {
		t.Errorf("message = %q, want %q", devErr.Message, "Unexpected continuation from client")
	}

	// The command aborted without transferring anything; the device must
	// accept a fresh frame and the bus must be idle again.
	host.send(t, protocol.BuildStatusCmd())
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("status after desync = %q, want %q", got, "OK")
	}
	if bus.Mode() != sram.ModeIdle {
		t.Errorf("bus mode after abort = %v, want idle", bus.Mode())
	}
}

func TestWriteTransferWindows(t *testing.T) {
	host, chip, bus := startInterpreter(t)

	const base = 0x1FFB0
	const length = 65 // crosses into the last address, 0x1FFF0
	payload := make([]byte, length)
	for i := range payload {
		payload[i] = byte(255 - i)
	}

	host.sendTransferCmd(t, protocol.InsnWrite, base, base+length)

	// The device grants exactly 3 windows for 65 bytes.
	off := 0
	for _, windowLen := range []int{32, 32, 1} {
		if got := host.recv(t, 2); string(got) != "CO" {
			t.Fatalf("window grant = %q, want %q", got, "CO")
		}
		host.send(t, payload[off:off+windowLen])
		off += windowLen
	}

	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("terminal response = %q, want %q", got, "OK")
	}
	for i := range payload {
		if got := chip.Peek(base + uint32(i)); got != payload[i] {
			t.Errorf("mem[0x%05X] = 0x%02X, want 0x%02X", base+uint32(i), got, payload[i])
		}
	}

	host.send(t, protocol.BuildStatusCmd())
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Fatalf("status after transfer = %q, want %q", got, "OK")
	}
	if bus.Mode() != sram.ModeIdle {
		t.Errorf("bus mode after transfer = %v, want idle", bus.Mode())
	}
	if chip.Contention() {
		t.Error("enable lines were simultaneously active during the transfer")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	host, _, _ := startInterpreter(t)

	const base = 0x08000
	payload := []byte("battery-backed bytes survive the round trip")

	host.sendTransferCmd(t, protocol.InsnWrite, base, base+uint32(len(payload)))
	off := 0
	for off < len(payload) {
		if got := host.recv(t, 2); string(got) != "CO" {
			t.Fatalf("window grant = %q, want %q", got, "CO")
		}
		end := min(off+protocol.WindowSize, len(payload))
		host.send(t, payload[off:end])
		off = end
	}
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Fatalf("write terminal response = %q, want %q", got, "OK")
	}

	host.sendTransferCmd(t, protocol.InsnRead, base, base+uint32(len(payload)))
	if got := host.recv(t, 2); string(got) != "CO" {
		t.Fatalf("announce = %q, want %q", got, "CO")
	}
	var data []byte
	for len(data) < len(payload) {
		host.send(t, []byte(protocol.RespContinue))
		n := min(protocol.WindowSize, len(payload)-len(data))
		data = append(data, host.recv(t, n)...)
	}
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Fatalf("read terminal response = %q, want %q", got, "OK")
	}

	if !bytes.Equal(data, payload) {
		t.Errorf("round trip mismatch:\n got %q\nwant %q", data, payload)
	}
}

func TestSingleByteTransfer(t *testing.T) {
	host, chip, _ := startInterpreter(t)
	chip.Poke(0x1FFFF, 0x5C)

	host.sendTransferCmd(t, protocol.InsnRead, 0x1FFFF, 0x20000)
	if got := host.recv(t, 2); string(got) != "CO" {
		t.Fatalf("announce = %q, want %q", got, "CO")
	}
	host.send(t, []byte(protocol.RespContinue))
	if got := host.recv(t, 1); got[0] != 0x5C {
		t.Errorf("data byte = 0x%02X, want 0x5C", got[0])
	}
	if got := host.recv(t, 2); string(got) != "OK" {
		t.Errorf("terminal response = %q, want %q", got, "OK")
	}
}
