package protocol

import (
	"fmt"
	"io"
)

// WriteSuccess emits a success response ("OK", no terminator).
func WriteSuccess(w io.Writer) error {
	_, err := io.WriteString(w, RespSuccess)
	return err
}

// WriteContinue emits a continue response / flow-control token
// ("CO", no terminator).
func WriteContinue(w io.Writer) error {
	_, err := io.WriteString(w, RespContinue)
	return err
}

// WriteError emits an error response: "NG", the ASCII message text, and a
// single 0x00 terminator. Unlike the two-byte responses, error responses are
// terminated rather than fixed-length.
func WriteError(w io.Writer, msg string) error {
	buf := make([]byte, 0, len(RespError)+len(msg)+1)
	buf = append(buf, RespError...)
	buf = append(buf, msg...)
	buf = append(buf, ErrorTerminator)
	_, err := w.Write(buf)
	return err
}

// ReadStatus consumes one terminal response from r.
// It returns nil on "OK", a *DeviceError on "NG", and an
// *UnexpectedResponseError for anything else.
func ReadStatus(r io.Reader) error {
	return readMarker(r, RespSuccess)
}

// ReadContinue consumes one continue response from r.
// It returns nil on "CO", a *DeviceError on "NG" (the device may refuse a
// transfer before granting the first window), and an
// *UnexpectedResponseError for anything else.
func ReadContinue(r io.Reader) error {
	return readMarker(r, RespContinue)
}

func readMarker(r io.Reader, want string) error {
	var marker [2]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if string(marker[:]) == want {
		return nil
	}

	if string(marker[:]) == RespError {
		text, err := readErrorText(r)
		if err != nil {
			return err
		}
		return &DeviceError{Message: text}
	}

	return &UnexpectedResponseError{Want: want, Got: marker}
}

// readErrorText reads the message of an error response up to the 0x00
// terminator. The terminator is consumed but not returned.
func readErrorText(r io.Reader) (string, error) {
	text := make([]byte, 0, 64)
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", fmt.Errorf("read error text: %w", err)
		}
		if b[0] == ErrorTerminator {
			return string(text), nil
		}
		if len(text) >= MaxErrorTextLen {
			return "", fmt.Errorf("error text exceeds %d bytes without terminator", MaxErrorTextLen)
		}
		text = append(text, b[0])
	}
}
