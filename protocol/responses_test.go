package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteResponses(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteSuccess(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "OK" {
		t.Errorf("success response = %q, want %q with no terminator", got, "OK")
	}

	buf.Reset()
	if err := WriteContinue(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "CO" {
		t.Errorf("continue response = %q, want %q with no terminator", got, "CO")
	}

	buf.Reset()
	if err := WriteError(&buf, "Unknown command"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := append([]byte("NGUnknown command"), 0x00)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("error response = % 02X, want % 02X", buf.Bytes(), want)
	}
}

func TestReadStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr string
		devErr  bool
	}{
		{
			name:  "success",
			input: []byte("OK"),
		},
		{
			name:    "device error",
			input:   append([]byte("NGAddress bounds out of order"), 0x00),
			wantErr: "Address bounds out of order",
			devErr:  true,
		},
		{
			name:    "garbage",
			input:   []byte("ZZ"),
			wantErr: "unexpected response",
		},
		{
			name:    "truncated",
			input:   []byte("O"),
			wantErr: "read response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadStatus(bytes.NewReader(tt.input))

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
			if tt.devErr != IsDeviceError(err) {
				t.Errorf("IsDeviceError = %v, want %v", IsDeviceError(err), tt.devErr)
			}
		})
	}
}

func TestReadContinue(t *testing.T) {
	if err := ReadContinue(bytes.NewReader([]byte("CO"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ReadContinue(bytes.NewReader(append([]byte("NGnot now"), 0x00)))
	devErr, ok := err.(*DeviceError)
	if !ok {
		t.Fatalf("error type = %T, want *DeviceError", err)
	}
	if devErr.Message != "not now" {
		t.Errorf("message = %q, want %q", devErr.Message, "not now")
	}

	if err := ReadContinue(bytes.NewReader([]byte("OK"))); err == nil {
		t.Error("expected unexpected-response error for OK, got nil")
	}
}

func TestReadErrorTextUnterminated(t *testing.T) {
	// A stream that never produces the terminator must not be consumed
	// forever.
	input := append([]byte("NG"), bytes.Repeat([]byte{'x'}, MaxErrorTextLen+10)...)
	err := ReadStatus(bytes.NewReader(input))
	if err == nil {
		t.Fatal("expected error for unterminated error text, got nil")
	}
	if !strings.Contains(err.Error(), "without terminator") {
		t.Errorf("error = %v, want terminator-bound error", err)
	}
}
