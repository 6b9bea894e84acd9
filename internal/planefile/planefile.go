// Package planefile stores planar images as a small header followed by a
// zstd stream holding the R, G and B planes back to back.
package planefile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
	"github.com/klauspost/compress/zstd"
)

const (
	header_size = 16
	version     = 1
)

const format_tag = (uint32('P') << 24) | (uint32('L') << 16) | (uint32('N') << 8) | (uint32('R'))

var ErrBadTag = errors.New("planefile: not a plane file")

// Writes the planes to w
func Write(w io.Writer, p *bmp.Planes) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("planefile: %w", err)
	}

	header := make([]byte, header_size)
	binary.BigEndian.PutUint32(header[0:4], format_tag)
	header[4] = version
	binary.LittleEndian.PutUint32(header[8:12], uint32(p.Width))
	binary.LittleEndian.PutUint32(header[12:16], uint32(p.Height))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		return fmt.Errorf("unable to create a zstd writer: %w", err)
	}

	for _, plane := range p.Channels() {
		if _, err := zw.Write(plane); err != nil {
			zw.Close()
			return fmt.Errorf("error writing plane data: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("error finishing plane data: %w", err)
	}
	return nil
}

// Reads planes previously stored with Write
func Read(r io.Reader) (*bmp.Planes, error) {
	header := make([]byte, header_size)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("unable to read header: %w", err)
	}

	if tag := binary.BigEndian.Uint32(header[0:4]); tag != format_tag {
		return nil, fmt.Errorf("%w: tag %#x", ErrBadTag, tag)
	}
	if header[4] != version {
		return nil, fmt.Errorf("planefile: unsupported version %d", header[4])
	}

	width := int(binary.LittleEndian.Uint32(header[8:12]))
	height := int(binary.LittleEndian.Uint32(header[12:16]))
	if err := bmp.CheckSize(width, height); err != nil {
		return nil, fmt.Errorf("planefile: %w", err)
	}

	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("unable to create a zstd reader: %w", err)
	}
	defer zr.Close()

	// The buffer grows with what the stream actually holds, so a header
	// claiming a huge image cannot force a huge allocation up front
	n := width * height
	var data bytes.Buffer
	if _, err := io.Copy(&data, io.LimitReader(zr, int64(3*n))); err != nil {
		return nil, fmt.Errorf("unable to read plane data: %w", err)
	}
	if data.Len() != 3*n {
		return nil, fmt.Errorf("unable to read plane data: %w", io.ErrUnexpectedEOF)
	}

	buf := data.Bytes()
	return &bmp.Planes{
		Width:  width,
		Height: height,
		R:      buf[0:n:n],
		G:      buf[n : 2*n : 2*n],
		B:      buf[2*n : 3*n : 3*n],
	}, nil
}

// Saves the planes to filename
func WriteFile(filename string, p *bmp.Planes) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, p); err != nil {
		return err
	}
	return bw.Flush()
}

// Loads planes from filename
func ReadFile(filename string) (*bmp.Planes, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}
