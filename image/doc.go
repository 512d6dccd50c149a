// Package image handles raw SRAM memory images on disk: the flat binary
// files the dump and restore operations produce and consume.
//
// Images are opaque byte arrays up to the chip size; this package never
// interprets their contents. Compare supports verify-after-write workflows
// by reporting where a readback diverges from the source image.
package image
