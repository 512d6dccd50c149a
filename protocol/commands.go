package protocol

// BuildStatusCmd constructs a Status command frame.
//
// Frame structure:
//
//	[SYNC(4)]['S']
//
// The device answers with an immediate success response and no other side
// effects, which makes this frame the liveness probe used while waiting for
// the device to come up.
func BuildStatusCmd() []byte {
	frame := make([]byte, 0, StatusFrameSize)
	frame = append(frame, SyncMarker...)
	frame = append(frame, InsnStatus)
	return frame
}

// BuildReadCmd constructs a Read command frame for the half-open range
// [start, end). The range is validated locally with the same rules the
// device applies, so an invalid range never reaches the wire.
//
// Frame structure:
//
//	[SYNC(4)]['R'][START(3, big-endian)][END(3, big-endian)]
func BuildReadCmd(start, end uint32) ([]byte, error) {
	return buildTransferCmd(InsnRead, Range{Start: start, End: end})
}

// BuildWriteCmd constructs a Write command frame for the half-open range
// [start, end). Validation matches BuildReadCmd.
//
// Frame structure:
//
//	[SYNC(4)]['W'][START(3, big-endian)][END(3, big-endian)]
func BuildWriteCmd(start, end uint32) ([]byte, error) {
	return buildTransferCmd(InsnWrite, Range{Start: start, End: end})
}

func buildTransferCmd(insn byte, r Range) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	frame := make([]byte, 0, TransferFrameSize)
	frame = append(frame, SyncMarker...)
	frame = append(frame, insn)
	frame = AppendAddr(frame, r.Start)
	frame = AppendAddr(frame, r.End)
	return frame, nil
}
