// Package dumper provides the host-side client for dumping and restoring
// the SRAM chip over the serial link.
//
// # Basic Usage
//
//	port, err := serial.Open("/dev/ttyACM0", &serial.Mode{
//	    BaudRate: protocol.DefaultBaudRate,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//	port.SetReadTimeout(100 * time.Millisecond)
//
//	d := dumper.New(port)
//	if err := d.WaitReady(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	port.SetReadTimeout(10 * time.Second)
//
//	image, err := d.DumpImage(ctx)
//
// # Flow Control
//
// Transfers are paced in 32-byte windows by the consuming end. During a
// read this package sends a flow-control token before each window; during a
// write it waits for the device's continue response before sending each
// window. Both are handled internally — callers see whole transfers.
//
// # Error Handling
//
// Range validation runs locally with the device's own rules, so an invalid
// range fails fast as a *protocol.RangeError without touching the wire.
// Errors the device reports arrive as *protocol.DeviceError carrying the
// device's message text. A *protocol.UnexpectedResponseError means the
// stream desynchronized; the only recovery is reissuing a fresh command,
// which resyncs the device by its sync marker.
//
// # Hardware Independence
//
// The device is any io.ReadWriter. The binaries use a go.bug.st/serial
// port; tests wire a Dumper directly to a firmware.Interpreter over
// in-memory pipes.
package dumper
