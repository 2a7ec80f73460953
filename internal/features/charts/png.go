package charts

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
)

// pngHeaderLen covers the 8-byte signature plus the IHDR chunk (4 len + 4 type + 13 data + 4 crc).
const pngHeaderLen = 8 + 4 + 4 + 13 + 4

// CropToContent trims img to the bounding box of non-background pixels plus pad
// pixels on every side. A blank image is returned unchanged.
func CropToContent(img image.Image, background color.Color, pad int) image.Image {
	b := img.Bounds()
	br, bg, bb, ba := background.RGBA()

	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if r == br && g == bg && bl == bb && a == ba {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX < minX || maxY < minY {
		return img
	}

	rect := image.Rect(minX-pad, minY-pad, maxX+1+pad, maxY+1+pad).Intersect(b)

	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

// EncodePNG encodes img and records dpi in a pHYs chunk.
func EncodePNG(img image.Image, dpi float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := gg.NewContextForImage(img).EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return withPhysChunk(buf.Bytes(), dpi)
}

// withPhysChunk inserts a pHYs chunk right after IHDR.
func withPhysChunk(data []byte, dpi float64) ([]byte, error) {
	if len(data) < pngHeaderLen || string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("not a png stream")
	}

	ppm := uint32(math.Round(dpi / 0.0254))
	payload := make([]byte, 9)
	binary.BigEndian.PutUint32(payload[0:4], ppm)
	binary.BigEndian.PutUint32(payload[4:8], ppm)
	payload[8] = 1 // unit: metre

	chunk := make([]byte, 0, 12+len(payload))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, "pHYs"...)
	chunk = append(chunk, payload...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:pngHeaderLen]...)
	out = append(out, chunk...)
	out = append(out, data[pngHeaderLen:]...)
	return out, nil
}

// RenderPNG renders bars, crops the figure to its content and returns PNG bytes.
func RenderPNG(bars []Bar, style Style) ([]byte, error) {
	img, err := RenderHorizontalBars(bars, style)
	if err != nil {
		return nil, err
	}
	cropped := CropToContent(img, color.White, int(math.Round(bboxPad*style.DPI)))
	return EncodePNG(cropped, style.DPI)
}
