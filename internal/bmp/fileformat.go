// BMP-specific structs and their on-disk layout
package bmp

import (
	"encoding/binary"
	"math"
)

const (
	FileHeaderSize = 14
	InfoHeaderSize = 40
	PixelOffset    = FileHeaderSize + InfoHeaderSize // Where our pixel rows start

	signature      = 0x4d42 // "BM" read as little-endian uint16
	bitsPerPixel   = 24
	bytesPerPixel  = bitsPerPixel / 8
	compressionRGB = 0
)

// The FileHeader structure contains information about the type, size,
// and layout of a file that contains a DIB [device-independent bitmap].
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader
type FileHeader struct {
	Type      [2]byte // The file type: must be 0x4d42 (ASCII string "BM").
	Size      uint32  // The size, in bytes, of the bitmap file.
	Reserved1 uint16  // Reserved; written as zero, ignored on read.
	Reserved2 uint16  // Reserved; written as zero, ignored on read.
	OffBits   uint32  // Bitmap File Offset (In bytes) to Pixel Arrays
}

// The InfoHeader structure contains information about the
// dimensions and color format of DIB [device-independent bitmap].
type InfoHeader struct {
	Size            uint32 // The number of bytes required by the structure.
	Width           int32  // The width of the bitmap, in pixels.
	Height          int32  // The height of the bitmap, in pixels (positive means bottom-up)
	Planes          uint16 // The number of planes for the target device.
	BitCount        uint16 // The number of bits-per-pixel.
	Compression     uint32 // The type of compression
	SizeImage       uint32 // The size of the image (in bytes).
	XPixelsPerM     int32  // The horizontal resolution, in pixels-per-meter.
	YPixelsPerM     int32  // The vertical resolution, in pixels-per-meter.
	ColorsUsed      uint32 // Number of color indexes that are actually used by bitmap.
	ColorsImportant uint32 // Number of color indexes required for displaying the bitmap.
}

// Returns the number of bytes a stored row of the given width occupies (incl. padding)
func RowStride(width int) int {
	return (width*bytesPerPixel + 3) &^ 3
}

// Packs the file header into its 14-byte on-disk form
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, FileHeaderSize)
	b[0], b[1] = h.Type[0], h.Type[1]
	binary.LittleEndian.PutUint32(b[2:6], h.Size)
	binary.LittleEndian.PutUint16(b[6:8], h.Reserved1)
	binary.LittleEndian.PutUint16(b[8:10], h.Reserved2)
	binary.LittleEndian.PutUint32(b[10:14], h.OffBits)
	return b, nil
}

// Unpacks the file header from the first 14 bytes of b
func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) < FileHeaderSize {
		return newError(KindFormat, "unmarshal", "", errShortFileHeader)
	}
	h.Type = [2]byte{b[0], b[1]}
	h.Size = binary.LittleEndian.Uint32(b[2:6])
	h.Reserved1 = binary.LittleEndian.Uint16(b[6:8])
	h.Reserved2 = binary.LittleEndian.Uint16(b[8:10])
	h.OffBits = binary.LittleEndian.Uint32(b[10:14])
	return nil
}

// Reports whether the header carries the "BM" signature
func (h *FileHeader) IsBitmap() bool {
	return binary.LittleEndian.Uint16(h.Type[:]) == signature
}

// Packs the info header into its 40-byte on-disk form
func (h *InfoHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, InfoHeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Size)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.Width))
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Height))
	binary.LittleEndian.PutUint16(b[12:14], h.Planes)
	binary.LittleEndian.PutUint16(b[14:16], h.BitCount)
	binary.LittleEndian.PutUint32(b[16:20], h.Compression)
	binary.LittleEndian.PutUint32(b[20:24], h.SizeImage)
	binary.LittleEndian.PutUint32(b[24:28], uint32(h.XPixelsPerM))
	binary.LittleEndian.PutUint32(b[28:32], uint32(h.YPixelsPerM))
	binary.LittleEndian.PutUint32(b[32:36], h.ColorsUsed)
	binary.LittleEndian.PutUint32(b[36:40], h.ColorsImportant)
	return b, nil
}

// Unpacks the info header from the first 40 bytes of b
func (h *InfoHeader) UnmarshalBinary(b []byte) error {
	if len(b) < InfoHeaderSize {
		return newError(KindFormat, "unmarshal", "", errShortInfoHeader)
	}
	h.Size = binary.LittleEndian.Uint32(b[0:4])
	h.Width = int32(binary.LittleEndian.Uint32(b[4:8]))
	h.Height = int32(binary.LittleEndian.Uint32(b[8:12]))
	h.Planes = binary.LittleEndian.Uint16(b[12:14])
	h.BitCount = binary.LittleEndian.Uint16(b[14:16])
	h.Compression = binary.LittleEndian.Uint32(b[16:20])
	h.SizeImage = binary.LittleEndian.Uint32(b[20:24])
	h.XPixelsPerM = int32(binary.LittleEndian.Uint32(b[24:28]))
	h.YPixelsPerM = int32(binary.LittleEndian.Uint32(b[28:32]))
	h.ColorsUsed = binary.LittleEndian.Uint32(b[32:36])
	h.ColorsImportant = binary.LittleEndian.Uint32(b[36:40])
	return nil
}

// Builds the pair of headers the encoder writes for a width x height image.
// Dimensions that the 32-bit header fields cannot hold are a format error.
func newHeaders(width, height int) (FileHeader, InfoHeader, error) {
	if width <= 0 || width > math.MaxInt32 || height <= 0 || height > math.MaxInt32 {
		return FileHeader{}, InfoHeader{}, formatErrorf("encode", "dimensions %dx%d do not fit in a bitmap header", width, height)
	}
	stride := uint64(RowStride(width))
	if PixelOffset+stride*uint64(height) > math.MaxUint32 {
		return FileHeader{}, InfoHeader{}, formatErrorf("encode", "%dx%d image exceeds the 4 GiB bitmap size limit", width, height)
	}
	sizeImage := uint32(stride * uint64(height))

	bfh := FileHeader{Type: [2]byte{'B', 'M'}, Size: PixelOffset + sizeImage, OffBits: PixelOffset}
	bih := InfoHeader{
		Size:      InfoHeaderSize,
		Width:     int32(width),
		Height:    int32(height),
		Planes:    1,
		BitCount:  bitsPerPixel,
		SizeImage: sizeImage,
	}
	return bfh, bih, nil
}
