package firmware

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gridkit/sramlink/protocol"
	"github.com/gridkit/sramlink/sram"
)

// Interpreter is the device-side protocol engine. It owns the serial port
// and the bus exclusively: commands are processed one at a time, to
// completion, with no overlap.
//
// The bus is returned to idle after every command, including aborted ones,
// so the idle-between-commands invariant holds unconditionally.
type Interpreter struct {
	port io.ReadWriter
	r    *bufio.Reader
	bus  *sram.Bus
	cfg  Config
}

// New creates an Interpreter over the given serial port and bus.
// The port must block on reads; the bus must already be constructed (NewBus
// leaves it idle, which is the required starting state).
func New(port io.ReadWriter, bus *sram.Bus, opts ...Option) *Interpreter {
	if port == nil {
		panic("port cannot be nil")
	}
	if bus == nil {
		panic("bus cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Interpreter{
		port: port,
		r:    bufio.NewReader(port),
		bus:  bus,
		cfg:  cfg,
	}
}

// Run processes commands until the context is cancelled or the port fails.
// A closed port is a normal shutdown and returns nil.
//
// Cancellation is observed between received bytes during the sync scan and
// at window boundaries during transfers; a read that is already blocked
// only returns when the peer sends the next byte or the port is closed.
func (in *Interpreter) Run(ctx context.Context) error {
	for {
		if err := in.awaitSync(ctx); err != nil {
			return in.shutdown(err)
		}

		insn, err := in.r.ReadByte()
		if err != nil {
			return in.shutdown(err)
		}

		if err := in.dispatch(ctx, insn); err != nil {
			return in.shutdown(err)
		}
	}
}

// awaitSync scans the incoming byte stream for the sync marker. Mismatched
// bytes are discarded silently — garbage between commands is expected and
// this scan is the resynchronization mechanism — but a mismatched byte is
// re-considered as a candidate first marker byte so a stray 'S' ahead of a
// real frame does not cost the frame.
func (in *Interpreter) awaitSync(ctx context.Context) error {
	matched := 0
	for matched < len(protocol.SyncMarker) {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := in.r.ReadByte()
		if err != nil {
			return err
		}

		switch {
		case b == protocol.SyncMarker[matched]:
			matched++
		case b == protocol.SyncMarker[0]:
			matched = 1
		default:
			matched = 0
		}
	}
	return nil
}

// dispatch executes one instruction. Protocol-level failures are answered
// on the wire and return nil; only I/O and hardware errors propagate.
func (in *Interpreter) dispatch(ctx context.Context, insn byte) error {
	switch insn {
	case protocol.InsnStatus:
		in.logDebug("status command")
		return protocol.WriteSuccess(in.port)

	case protocol.InsnRead:
		return in.handleRead(ctx)

	case protocol.InsnWrite:
		return in.handleWrite(ctx)

	default:
		in.logDebug("unknown instruction", "insn", fmt.Sprintf("0x%02X", insn))
		return protocol.WriteError(in.port, protocol.ErrTextUnknownCommand)
	}
}

// handleRead serves a Read command: parse and validate the range, enter
// read mode, announce with a continue response, then stream the range one
// byte at a time, pausing at every window boundary until the host grants
// the window with a flow-control token.
func (in *Interpreter) handleRead(ctx context.Context) error {
	r, err := in.readRange()
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		in.logDebug("read rejected", "error", err.Error())
		return protocol.WriteError(in.port, err.Error())
	}

	in.logDebug("read", "start", r.Start, "end", r.End)

	if err := in.bus.EnterRead(); err != nil {
		return fmt.Errorf("enter read mode: %w", err)
	}

	// Announce that the transfer is beginning.
	if err := protocol.WriteContinue(in.port); err != nil {
		return in.abort(err)
	}

	for i := 0; i < r.Len(); i++ {
		if i%protocol.WindowSize == 0 {
			if err := ctx.Err(); err != nil {
				return in.abort(err)
			}
			granted, err := in.awaitToken()
			if err != nil {
				return in.abort(err)
			}
			if !granted {
				in.logDebug("flow-control desync, aborting read")
				if err := protocol.WriteError(in.port, protocol.ErrTextBadContinuation); err != nil {
					return in.abort(err)
				}
				return in.bus.EnterIdle()
			}
		}

		value, err := in.bus.ReadByte(r.Start + uint32(i))
		if err != nil {
			return in.abort(err)
		}
		if _, err := in.port.Write([]byte{value}); err != nil {
			return in.abort(err)
		}
	}

	if err := protocol.WriteSuccess(in.port); err != nil {
		return in.abort(err)
	}
	return in.bus.EnterIdle()
}

// handleWrite serves a Write command: parse and validate the range, enter
// write mode, then consume the range one byte at a time, granting the host
// a window with a continue response at every window boundary.
func (in *Interpreter) handleWrite(ctx context.Context) error {
	r, err := in.readRange()
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		in.logDebug("write rejected", "error", err.Error())
		return protocol.WriteError(in.port, err.Error())
	}

	in.logDebug("write", "start", r.Start, "end", r.End)

	if err := in.bus.EnterWrite(); err != nil {
		return fmt.Errorf("enter write mode: %w", err)
	}

	for i := 0; i < r.Len(); i++ {
		if i%protocol.WindowSize == 0 {
			if err := ctx.Err(); err != nil {
				return in.abort(err)
			}
			if err := protocol.WriteContinue(in.port); err != nil {
				return in.abort(err)
			}
		}

		value, err := in.r.ReadByte()
		if err != nil {
			return in.abort(err)
		}
		if err := in.bus.WriteByte(r.Start+uint32(i), value); err != nil {
			return in.abort(err)
		}
	}

	if err := protocol.WriteSuccess(in.port); err != nil {
		return in.abort(err)
	}
	return in.bus.EnterIdle()
}

// readRange reads the two 3-byte big-endian addresses of a transfer frame.
func (in *Interpreter) readRange() (protocol.Range, error) {
	var buf [2 * protocol.AddrSize]byte
	if _, err := io.ReadFull(in.r, buf[:]); err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{
		Start: protocol.DecodeAddr(buf[:protocol.AddrSize]),
		End:   protocol.DecodeAddr(buf[protocol.AddrSize:]),
	}, nil
}

// awaitToken blocks for the host's 2-byte flow-control token. It reports
// whether the token matched; a mismatch is a protocol violation by a peer
// that is otherwise in sync, so unlike the sync scan it is not silent.
func (in *Interpreter) awaitToken() (bool, error) {
	var token [2]byte
	if _, err := io.ReadFull(in.r, token[:]); err != nil {
		return false, err
	}
	return string(token[:]) == protocol.RespContinue, nil
}

// abort returns the bus to idle while propagating the original error.
func (in *Interpreter) abort(err error) error {
	if ierr := in.bus.EnterIdle(); ierr != nil {
		in.logError("enter idle after abort", "error", ierr.Error())
	}
	return err
}

// shutdown maps end-of-stream conditions to a clean nil return and makes a
// best effort to leave the bus idle.
func (in *Interpreter) shutdown(err error) error {
	if ierr := in.bus.EnterIdle(); ierr != nil {
		in.logError("enter idle on shutdown", "error", ierr.Error())
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return err
}

func (in *Interpreter) logDebug(msg string, keysAndValues ...interface{}) {
	if in.cfg.Logger != nil {
		in.cfg.Logger.Debug(msg, keysAndValues...)
	}
}

func (in *Interpreter) logError(msg string, keysAndValues ...interface{}) {
	if in.cfg.Logger != nil {
		in.cfg.Logger.Error(msg, keysAndValues...)
	}
}
