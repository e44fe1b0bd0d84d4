// Command mkbmp prepares GUI chrome assets (status bar, cursor, wallpaper)
// for the kernel's compositor interface (internal/gui): it decodes a
// PNG/JPEG source image, optionally composites a caption onto it, and
// writes the kernel's raw ARGB8888 asset format. Shape and output format
// are a direct port of iansmith-mazarin/tools/imageconvert/main.go; the
// caption step is new, added so the font-rasterization dependencies
// (github.com/fogleman/gg, github.com/golang/freetype, golang.org/x/image)
// the mazarin example pack pulls in have a real, exercised home in this
// repo rather than sitting unused.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/fogleman/gg"
)

func main() {
	var caption string
	flag.StringVar(&caption, "caption", "", "optional text to composite onto the image before conversion")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mkbmp [-caption text] <input-image> <output-binary>\n")
		fmt.Fprintf(os.Stderr, "Converts an image to the kernel's raw ARGB8888 asset format.\n")
		fmt.Fprintf(os.Stderr, "Output format:\n")
		fmt.Fprintf(os.Stderr, "  4 bytes: width (uint32 little-endian)\n")
		fmt.Fprintf(os.Stderr, "  4 bytes: height (uint32 little-endian)\n")
		fmt.Fprintf(os.Stderr, "  width*height*4 bytes: ARGB8888 pixel data\n")
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	inputPath := flag.Arg(0)
	outputPath := flag.Arg(1)

	img, err := decode(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding image: %v\n", err)
		os.Exit(1)
	}

	if caption != "" {
		img, err = compositeCaption(img, caption)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error compositing caption: %v\n", err)
			os.Exit(1)
		}
	}

	if err := writeAsset(outputPath, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing asset: %v\n", err)
		os.Exit(1)
	}
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

// compositeCaption draws caption in the bottom-left corner of img using
// gg's default face, returning a new flattened image the same size as the
// source. This is the one place in the repo github.com/fogleman/gg (and,
// transitively, github.com/golang/freetype and golang.org/x/image) is
// exercised.
func compositeCaption(img image.Image, caption string) (image.Image, error) {
	bounds := img.Bounds()
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(img, 0, 0)

	dc.SetRGB(1, 1, 1)
	const margin = 8
	dc.DrawStringAnchored(caption, margin, float64(bounds.Dy())-margin, 0, 0)

	return dc.Image(), nil
}

// writeAsset writes img in the kernel's raw ARGB8888 format, matching
// imageconvert's byte layout exactly: 4-byte width, 4-byte height, then
// width*height ARGB8888 pixels.
func writeAsset(path string, img image.Image) error {
	bounds := img.Bounds()
	width := uint32(bounds.Dx())
	height := uint32(bounds.Dy())

	outFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer outFile.Close()

	if err := binary.Write(outFile, binary.LittleEndian, width); err != nil {
		return err
	}
	if err := binary.Write(outFile, binary.LittleEndian, height); err != nil {
		return err
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			r8, g8, b8, a8 := uint8(r/257), uint8(g/257), uint8(b/257), uint8(a/257)
			pixel := uint32(a8)<<24 | uint32(r8)<<16 | uint32(g8)<<8 | uint32(b8)
			if err := binary.Write(outFile, binary.LittleEndian, pixel); err != nil {
				return err
			}
		}
	}

	fmt.Printf("wrote %dx%d asset to %s\n", width, height, path)
	return nil
}
