package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildStatusCmd(t *testing.T) {
	got := BuildStatusCmd()
	want := []byte("SRAMS")
	if !bytes.Equal(got, want) {
		t.Errorf("frame = % 02X, want % 02X", got, want)
	}
}

func TestBuildReadCmd(t *testing.T) {
	tests := []struct {
		name    string
		start   uint32
		end     uint32
		want    []byte
		errMsg  string
	}{
		{
			name:  "full chip",
			start: 0,
			end:   MemSize,
			want:  []byte{'S', 'R', 'A', 'M', 'R', 0x00, 0x00, 0x00, 0x02, 0x00, 0x00},
		},
		{
			name:  "sub range",
			start: 0x012345,
			end:   0x01ABCD,
			want:  []byte{'S', 'R', 'A', 'M', 'R', 0x01, 0x23, 0x45, 0x01, 0xAB, 0xCD},
		},
		{
			name:   "start out of bounds",
			start:  MemSize,
			end:    MemSize,
			errMsg: "Starting address out of bounds: 131072",
		},
		{
			name:   "end out of bounds",
			start:  0,
			end:    MemSize + 1,
			errMsg: "Ending address out of bounds: 131073",
		},
		{
			name:   "empty range",
			start:  0x100,
			end:    0x100,
			errMsg: "Address bounds out of order",
		},
		{
			name:   "inverted range",
			start:  0x200,
			end:    0x100,
			errMsg: "Address bounds out of order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildReadCmd(tt.start, tt.end)

			if tt.errMsg != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				if _, ok := err.(*RangeError); !ok {
					t.Errorf("error type = %T, want *RangeError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(frame, tt.want) {
				t.Errorf("frame = % 02X, want % 02X", frame, tt.want)
			}
		})
	}
}

func TestBuildWriteCmd(t *testing.T) {
	frame, err := BuildWriteCmd(0x1F000, 0x20000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{'S', 'R', 'A', 'M', 'W', 0x01, 0xF0, 0x00, 0x02, 0x00, 0x00}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % 02X, want % 02X", frame, want)
	}

	if _, err := BuildWriteCmd(MemSize+5, MemSize+6); err == nil {
		t.Error("expected error for out-of-bounds start, got nil")
	}
}

func TestRangeValidateOrder(t *testing.T) {
	// A range violating several rules must report the start bound first,
	// matching the device's dispatch order.
	err := Range{Start: MemSize + 1, End: 0}.Validate()
	re, ok := err.(*RangeError)
	if !ok {
		t.Fatalf("error type = %T, want *RangeError", err)
	}
	if re.Kind != RangeStartOutOfBounds {
		t.Errorf("kind = %v, want RangeStartOutOfBounds", re.Kind)
	}
}
