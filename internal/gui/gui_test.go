package gui

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func encodeAsset(width, height int, pixels []Pixel) []byte {
	var buf bytes.Buffer
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(width))
	binary.LittleEndian.PutUint32(header[4:8], uint32(height))
	buf.Write(header[:])
	for _, p := range pixels {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(p))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func TestLoadAssetRoundTrips(t *testing.T) {
	pixels := []Pixel{0xFF112233, 0xFF445566, 0xFF778899, 0xFFAABBCC}
	data := encodeAsset(2, 2, pixels)

	asset, err := LoadAsset(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadAsset: %v", err)
	}
	if asset.Width != 2 || asset.Height != 2 {
		t.Fatalf("asset dims = %dx%d, want 2x2", asset.Width, asset.Height)
	}
	if got := asset.At(1, 1); got != 0xFFAABBCC {
		t.Fatalf("At(1,1) = %#x, want %#x", got, uint32(0xFFAABBCC))
	}
}

func TestLoadAssetRejectsTruncatedData(t *testing.T) {
	data := encodeAsset(4, 4, make([]Pixel, 16))
	truncated := data[:len(data)-10]
	if _, err := LoadAsset(bytes.NewReader(truncated)); err == nil {
		t.Fatalf("LoadAsset on truncated data succeeded, want error")
	}
}

func TestLoadAssetRejectsZeroDimensions(t *testing.T) {
	data := encodeAsset(0, 0, nil)
	if _, err := LoadAsset(bytes.NewReader(data)); err == nil {
		t.Fatalf("LoadAsset with zero dimensions succeeded, want error")
	}
}
