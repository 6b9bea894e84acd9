// bmp package converts 24-bit uncompressed bitmaps to and from planar R, G, B buffers
package bmp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anas-shakeel/planar-bmp/internal/utils"
)

// Upper bound on Width*Height accepted by the decoder. Anything larger is
// reported as an allocation error instead of being handed to make().
var MaxPixels = 1 << 28

// Planes holds an image as three separate channel buffers.
// Pixel (x, y) lives at index y*Width+x in each buffer; y = 0 is the top row.
type Planes struct {
	Width  int
	Height int
	R      []byte
	G      []byte
	B      []byte
}

// Config is what the headers of a bitmap say about it
type Config struct {
	File    FileHeader
	Info    InfoHeader
	Width   int
	Height  int  // Abs(olute) height
	TopDown bool // Rows are stored top row first (negative height)
	Stride  int  // Total bytes in a stored row (incl. padding)
}

// Creates zeroed (black) planes of the given dimensions
func NewPlanes(width, height int) (*Planes, error) {
	if width <= 0 {
		return nil, errors.New("width must be greater than 0")
	} else if height <= 0 {
		return nil, errors.New("height must be greater than 0")
	}

	return allocPlanes("create", width, height)
}

// Reports whether planes of width x height may be allocated. Oversized
// images yield a KindAllocation error.
func CheckSize(width, height int) error {
	return checkSize("check", width, height)
}

func checkSize(op string, width, height int) error {
	if width <= 0 || height <= 0 {
		return formatErrorf(op, "bad dimensions %dx%d", width, height)
	}
	if width > MaxPixels/height {
		return newError(KindAllocation, op, "", fmt.Errorf("%dx%d exceeds the %d pixel limit", width, height, MaxPixels))
	}
	return nil
}

// Allocates all three planes at once, so a failure never leaves one behind
func allocPlanes(op string, width, height int) (*Planes, error) {
	if err := checkSize(op, width, height); err != nil {
		return nil, err
	}

	n := width * height
	buf := make([]byte, 3*n)

	return &Planes{
		Width:  width,
		Height: height,
		R:      buf[0:n:n],
		G:      buf[n : 2*n : 2*n],
		B:      buf[2*n : 3*n : 3*n],
	}, nil
}

// Number of pixels (and bytes per plane)
func (p *Planes) Len() int {
	return p.Width * p.Height
}

// Checks the invariant that all three planes are Width*Height long
func (p *Planes) Validate() error {
	if p == nil {
		return errors.New("planes are nil")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", p.Width, p.Height)
	}
	n := p.Len()
	if len(p.R) != n || len(p.G) != n || len(p.B) != n {
		return fmt.Errorf("plane lengths (%d, %d, %d) do not match %dx%d", len(p.R), len(p.G), len(p.B), p.Width, p.Height)
	}
	return nil
}

// Returns the color at (x, y)
func (p *Planes) At(x, y int) (r, g, b byte) {
	i := y*p.Width + x
	return p.R[i], p.G[i], p.B[i]
}

// Sets the color at (x, y)
func (p *Planes) Set(x, y int, r, g, b byte) {
	i := y*p.Width + x
	p.R[i], p.G[i], p.B[i] = r, g, b
}

// Returns a deep copy of the planes. The copy is sized from the buffers
// themselves, so it never fails, even for planes that do not Validate.
func (p *Planes) Copy() *Planes {
	nr, ng, nb := len(p.R), len(p.G), len(p.B)
	buf := make([]byte, nr+ng+nb)
	copy(buf, p.R)
	copy(buf[nr:], p.G)
	copy(buf[nr+ng:], p.B)

	return &Planes{
		Width:  p.Width,
		Height: p.Height,
		R:      buf[0:nr:nr],
		G:      buf[nr : nr+ng : nr+ng],
		B:      buf[nr+ng:],
	}
}

// Returns the buffer for a single channel.
// channel can be one of (`red`, `green`, and `blue`)
func (p *Planes) Channel(channel string) ([]byte, error) {
	switch channel {
	case "red", "r":
		return p.R, nil
	case "green", "g":
		return p.G, nil
	case "blue", "b":
		return p.B, nil
	}
	return nil, errors.New("invalid color channel: only red, green, and blue are supported")
}

// Returns the three planes in R, G, B order
func (p *Planes) Channels() [3][]byte {
	return [3][]byte{p.R, p.G, p.B}
}

// Reads and validates the file and info headers of a bitmap
func DecodeConfig(r io.Reader) (*Config, error) {
	var buf [InfoHeaderSize]byte

	// Read File Header
	if _, err := io.ReadFull(r, buf[:FileHeaderSize]); err != nil {
		return nil, readError("decode", "file header", err)
	}
	var bfh FileHeader
	bfh.UnmarshalBinary(buf[:FileHeaderSize])
	if !bfh.IsBitmap() {
		return nil, formatErrorf("decode", "not a bitmap: signature %q", bfh.Type[:])
	}

	// Read Info Header, right after the file header
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, readError("decode", "info header", err)
	}
	var bih InfoHeader
	bih.UnmarshalBinary(buf[:])

	// Support only 24bit uncompressed Bitmaps
	if bih.BitCount != bitsPerPixel {
		return nil, formatErrorf("decode", "unsupported bit depth %d: only 24-bit is supported", bih.BitCount)
	}
	if bih.Compression != compressionRGB {
		return nil, formatErrorf("decode", "unsupported compression %d: only uncompressed is supported", bih.Compression)
	}
	if bih.Size < InfoHeaderSize {
		return nil, formatErrorf("decode", "bad info header size %d", bih.Size)
	}
	if bfh.OffBits < PixelOffset {
		return nil, formatErrorf("decode", "bad pixel data offset %d", bfh.OffBits)
	}

	width := int(bih.Width)
	height := int(bih.Height)
	topDown := false
	if height < 0 {
		topDown = true
		height = -height
	}
	if width <= 0 {
		return nil, formatErrorf("decode", "bad width %d", width)
	}
	if height == 0 {
		return nil, formatErrorf("decode", "bad height %d", height)
	}

	return &Config{
		File:    bfh,
		Info:    bih,
		Width:   width,
		Height:  height,
		TopDown: topDown,
		Stride:  RowStride(width),
	}, nil
}

// Number of bytes a well-formed file needs: headers, gap and every stored row
func (c *Config) DataSize() int64 {
	return int64(c.File.OffBits) + int64(c.Stride)*int64(c.Height)
}

// Decodes a 24-bit bitmap from r into freshly allocated planes.
// Planes are allocated from the header dimensions before the pixel rows are
// read; callers holding untrusted streams should bound them first.
func Decode(r io.Reader) (*Planes, error) {
	conf, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	return decodePixels(r, conf)
}

// Reads the pixel array that follows the headers described by conf
func decodePixels(r io.Reader, conf *Config) (*Planes, error) {
	p, err := allocPlanes("decode", conf.Width, conf.Height)
	if err != nil {
		return nil, err
	}

	// Skip anything between the headers and the pixel array
	if gap := int64(conf.File.OffBits) - PixelOffset; gap > 0 {
		if _, err := io.CopyN(io.Discard, r, gap); err != nil {
			return nil, readError("decode", "pixel data offset", err)
		}
	}

	width, height := conf.Width, conf.Height
	row := make([]byte, conf.Stride)

	for i := range height {
		rowIndex := height - i - 1 // BottomUp: last row first
		if conf.TopDown {
			rowIndex = i
		}

		if _, err := io.ReadFull(r, row); err != nil {
			return nil, readError("decode", fmt.Sprintf("pixel row %d", i), err)
		}

		// Scatter B,G,R triplets; padding bytes stay behind in row
		dst := rowIndex * width
		for x := range width {
			p.B[dst+x] = row[x*3+0]
			p.G[dst+x] = row[x*3+1]
			p.R[dst+x] = row[x*3+2]
		}
	}

	return p, nil
}

// Opens a bitmap file and decodes it into planes. A file shorter than its
// headers claim is rejected before any planes are allocated.
func DecodeFile(filename string) (*Planes, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, newError(KindFileOpen, "decode", filename, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, newError(KindFileOpen, "decode", filename, err)
	}

	br := bufio.NewReader(file)
	conf, err := DecodeConfig(br)
	if err == nil && info.Mode().IsRegular() && info.Size() < conf.DataSize() {
		err = formatErrorf("decode", "file holds %d bytes, headers need %d", info.Size(), conf.DataSize())
	}

	var p *Planes
	if err == nil {
		p, err = decodePixels(br, conf)
	}
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = filename
		}
		return nil, err
	}
	return p, nil
}

// Writes the planes to w as a 24-bit bottom-up bitmap
func Encode(w io.Writer, p *Planes) error {
	if err := p.Validate(); err != nil {
		return newError(KindFormat, "encode", "", err)
	}

	width, height := p.Width, p.Height
	bfh, bih, err := newHeaders(width, height)
	if err != nil {
		return err
	}

	// Create a buffer (to reduce syscalls)
	bw := bufio.NewWriter(w)

	fh, _ := bfh.MarshalBinary()
	ih, _ := bih.MarshalBinary()
	if _, err := bw.Write(fh); err != nil {
		return newError(KindFileOpen, "encode", "", err)
	}
	if _, err := bw.Write(ih); err != nil {
		return newError(KindFileOpen, "encode", "", err)
	}

	// Padding bytes past width*3 are never written to, so they stay zero
	row := make([]byte, RowStride(width))

	for i := range height {
		src := (height - i - 1) * width
		for x := range width {
			row[x*3+0] = p.B[src+x]
			row[x*3+1] = p.G[src+x]
			row[x*3+2] = p.R[src+x]
		}
		if _, err := bw.Write(row); err != nil {
			return newError(KindFileOpen, "encode", "", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return newError(KindFileOpen, "encode", "", err)
	}
	return nil
}

// Saves the planes onto local disk as a bitmap file
func EncodeFile(filename string, p *Planes) (err error) {
	newBitmap, err := os.Create(filename)
	if err != nil {
		return newError(KindFileOpen, "encode", filename, err)
	}
	defer func() {
		if cerr := newBitmap.Close(); cerr != nil && err == nil {
			err = newError(KindFileOpen, "encode", filename, cerr)
		}
	}()

	if err := Encode(newBitmap, p); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = filename
		}
		return err
	}
	return nil
}

// Maps a failed read to an error kind: running out of bytes means the
// bitmap is malformed, anything else means the source itself failed.
func readError(op, what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return formatErrorf(op, "truncated %s", what)
	}
	return newError(KindFileOpen, op, "", fmt.Errorf("reading %s: %w", what, err))
}

// Print the planes in terminal. Use for small images only
func (p *Planes) Print(w io.Writer) {
	for y := range p.Height {
		for x := range p.Width {
			r, g, b := p.At(x, y)
			fmt.Fprint(w, utils.ColoredBlock("  ", int(r), int(g), int(b)))
		}
		fmt.Fprintln(w)
	}
}

// Print the bitmap metadata in terminal. (in human-readable format)
func (c *Config) PrintMetadata(w io.Writer, filename string) {
	fmt.Fprintf(w, "Filename: \t%v\n", filename)
	fmt.Fprintf(w, "Filesize: \t%v bytes\n", c.File.Size)
	fmt.Fprintf(w, "Width: \t\t%v px\n", c.Width)
	fmt.Fprintf(w, "Height: \t%v px\n", c.Height)
	fmt.Fprintf(w, "TopDown: \t%v\n", c.TopDown)
	fmt.Fprintf(w, "BitCount: \t%vbits\n", c.Info.BitCount)
	fmt.Fprintf(w, "PixelOffset: \t%v bytes\n", c.File.OffBits)
	fmt.Fprintf(w, "PixelCount: \t%v pixels\n", c.Width*c.Height)
	fmt.Fprintf(w, "Stride: \t%v bytes\n", c.Stride)
	fmt.Fprintf(w, "Padding: \t%v bytes\n", c.Stride-c.Width*bytesPerPixel)
}
