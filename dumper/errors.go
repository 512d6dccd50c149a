package dumper

import "fmt"

// ImageSizeError indicates a full-chip image of the wrong size.
type ImageSizeError struct {
	Got  int
	Want int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("image size mismatch: got %d bytes, chip holds %d", e.Got, e.Want)
}
