package image

import (
	"fmt"
	"os"

	"github.com/gridkit/sramlink/protocol"
)

// Size is the size of a full chip image in bytes.
const Size = protocol.MemSize

// Load reads a memory image from path. The file may be a partial image
// (for restoring a sub-range) but may not be empty or larger than the chip.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("load image %s: file is empty", path)
	}
	if len(data) > Size {
		return nil, fmt.Errorf("load image %s: %d bytes exceeds chip size %d", path, len(data), Size)
	}
	return data, nil
}

// LoadFull reads a full chip image from path, requiring exactly Size bytes.
func LoadFull(path string) ([]byte, error) {
	data, err := Load(path)
	if err != nil {
		return nil, err
	}
	if len(data) != Size {
		return nil, fmt.Errorf("load image %s: got %d bytes, full image is %d", path, len(data), Size)
	}
	return data, nil
}

// Save writes a memory image to path, replacing any existing file.
func Save(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// MismatchError reports where two images diverge.
type MismatchError struct {
	// Offset is the first differing byte offset
	Offset int

	// Count is the total number of differing bytes
	Count int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("images differ in %d byte(s), first at offset 0x%05X", e.Count, e.Offset)
}

// Compare checks two images of equal length byte for byte. It returns nil
// when they match, a *MismatchError when they differ, and a plain error for
// a length mismatch. The contents are never interpreted.
func Compare(a, b []byte) error {
	if len(a) != len(b) {
		return fmt.Errorf("image length mismatch: %d vs %d bytes", len(a), len(b))
	}

	first := -1
	count := 0
	for i := range a {
		if a[i] != b[i] {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	if count > 0 {
		return &MismatchError{Offset: first, Count: count}
	}
	return nil
}
