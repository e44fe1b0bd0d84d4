// Package gui defines the narrow interface the kernel's window manager and
// compositor implement (spec §6); this package does not implement a real
// compositor (spec §1's explicit non-goal), only the contract and the asset
// loader that feeds it. The pixel format is exactly what cmd/mkbmp emits,
// grounded on iansmith-mazarin/tools/imageconvert's output format.
package gui

import (
	"encoding/binary"
	"io"

	"cineaos/internal/errs"
)

// Pixel is one ARGB8888 pixel, matching the mkbmp asset format.
type Pixel uint32

// Surface is a rectangular pixel buffer a Window draws into.
type Surface interface {
	Width() int
	Height() int
	Set(x, y int, p Pixel)
	At(x, y int) Pixel
}

// Window is one on-screen client region the compositor manages.
type Window interface {
	Surface
	Title() string
	Move(x, y int)
	Position() (x, y int)
}

// Compositor arranges Windows onto a single backing Surface for display.
// The real implementation is out of scope (spec §1); kernel code depends
// only on this interface.
type Compositor interface {
	AddWindow(w Window)
	RemoveWindow(w Window)
	Compose(dst Surface)
}

// Asset is a decoded image produced by cmd/mkbmp: raw width/height plus an
// ARGB8888 pixel buffer, row-major, no padding.
type Asset struct {
	Width  int
	Height int
	Pixels []Pixel
}

// At returns the pixel at (x, y).
func (a *Asset) At(x, y int) Pixel {
	return a.Pixels[y*a.Width+x]
}

// LoadAsset decodes the binary format cmd/mkbmp writes: a 4-byte
// little-endian width, a 4-byte little-endian height, then width*height
// ARGB8888 pixels, each stored as 4 little-endian bytes.
func LoadAsset(r io.Reader) (*Asset, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errs.BadImage
	}
	width := int(binary.LittleEndian.Uint32(header[0:4]))
	height := int(binary.LittleEndian.Uint32(header[4:8]))
	if width <= 0 || height <= 0 {
		return nil, errs.BadImage
	}

	pixelBytes := make([]byte, width*height*4)
	if _, err := io.ReadFull(r, pixelBytes); err != nil {
		return nil, errs.BadImage
	}

	pixels := make([]Pixel, width*height)
	for i := range pixels {
		pixels[i] = Pixel(binary.LittleEndian.Uint32(pixelBytes[i*4:]))
	}

	return &Asset{Width: width, Height: height, Pixels: pixels}, nil
}
