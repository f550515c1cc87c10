// Package bmp writes captured frames as uncompressed 32-bit BMP files.
package bmp

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tesselslate/deskctl/internal/capture"
)

// HeaderSize is the combined size of the file and info headers.
const HeaderSize = 54

const (
	infoHeaderSize = 40
	pixelsPerMeter = 2835 // 72 DPI
	biRGB          = 0
)

var errInvalidImage = errors.New("invalid image")

type header struct {
	Magic      [2]byte
	FileSize   uint32
	Reserved   uint32
	DataOffset uint32

	InfoSize      uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	ImageSize     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ColorsUsed    uint32
	ColorsImp     uint32
}

// Encode writes the image as a top-down BGRA bitmap.
func Encode(w io.Writer, img *capture.Image) error {
	if !img.Valid() || img.Width == 0 || img.Height == 0 {
		return errInvalidImage
	}
	size := uint32(len(img.Pix))
	h := header{
		Magic:         [2]byte{'B', 'M'},
		FileSize:      HeaderSize + size,
		DataOffset:    HeaderSize,
		InfoSize:      infoHeaderSize,
		Width:         int32(img.Width),
		Height:        -int32(img.Height),
		Planes:        1,
		BitCount:      32,
		Compression:   biRGB,
		ImageSize:     size,
		XPelsPerMeter: pixelsPerMeter,
		YPelsPerMeter: pixelsPerMeter,
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]byte, img.Width*4)
	for y := 0; y < img.Height; y++ {
		src := img.Pix[y*img.Width*4 : (y+1)*img.Width*4]
		for x := 0; x < len(src); x += 4 {
			row[x+0] = src[x+2]
			row[x+1] = src[x+1]
			row[x+2] = src[x+0]
			row[x+3] = src[x+3]
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("write pixels: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile encodes the image to the given path, replacing any existing
// file.
func WriteFile(path string, img *capture.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bitmap: %w", err)
	}
	if err := Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
