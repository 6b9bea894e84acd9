package planefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
)

func makePlanes(t *testing.T, w, h int) *bmp.Planes {
	t.Helper()
	p, err := bmp.NewPlanes(w, h)
	if err != nil {
		t.Fatalf("NewPlanes: %v", err)
	}
	for y := range h {
		for x := range w {
			p.Set(x, y, uint8((x*17)^(y*31)), uint8((x*43)+(y*13)), uint8((x*7)^(y*11)))
		}
	}
	return p
}

func TestWriteRead(t *testing.T) {
	src := makePlanes(t, 37, 29)

	var buf bytes.Buffer
	if err := Write(&buf, src); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := string(buf.Bytes()[0:4]); got != "PLNR" {
		t.Fatalf("tag = %q, expected PLNR", got)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Width != 37 || got.Height != 29 {
		t.Fatalf("dimensions = %dx%d, expected 37x29", got.Width, got.Height)
	}
	if !bytes.Equal(got.R, src.R) || !bytes.Equal(got.G, src.G) || !bytes.Equal(got.B, src.B) {
		t.Fatalf("planes do not match after round trip")
	}
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.pln")
	src := makePlanes(t, 8, 3)

	if err := WriteFile(path, src); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got.B, src.B) {
		t.Fatalf("blue plane does not match")
	}
}

func TestRead_Errors(t *testing.T) {
	var good bytes.Buffer
	if err := Write(&good, makePlanes(t, 4, 4)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := good.Bytes()

	t.Run("bad_tag", func(t *testing.T) {
		bad := append([]byte("XXXX"), data[4:]...)
		if _, err := Read(bytes.NewReader(bad)); !errors.Is(err, ErrBadTag) {
			t.Fatalf("expected ErrBadTag, got %v", err)
		}
	})

	t.Run("bad_version", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = 9
		if _, err := Read(bytes.NewReader(bad)); err == nil {
			t.Fatalf("expected error for unknown version")
		}
	})

	t.Run("short_header", func(t *testing.T) {
		if _, err := Read(bytes.NewReader(data[:10])); err == nil {
			t.Fatalf("expected error for short header")
		}
	})

	t.Run("truncated_payload", func(t *testing.T) {
		if _, err := Read(bytes.NewReader(data[:header_size+4])); err == nil {
			t.Fatalf("expected error for truncated payload")
		}
	})
}

func TestRead_SizeLargerThanPayload(t *testing.T) {
	var small bytes.Buffer
	if err := Write(&small, makePlanes(t, 2, 2)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := small.Bytes()
	binary.LittleEndian.PutUint32(data[8:12], 16000)
	binary.LittleEndian.PutUint32(data[12:16], 16000)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	p, err := Read(bytes.NewReader(data))
	runtime.ReadMemStats(&after)

	if p != nil || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got planes=%v err=%v", p != nil, err)
	}
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 64<<20 {
		t.Fatalf("rejecting a %d-byte plane file allocated %d bytes", len(data), allocated)
	}
}

func TestRead_AllocationLimit(t *testing.T) {
	header := make([]byte, header_size)
	binary.BigEndian.PutUint32(header[0:4], format_tag)
	header[4] = version
	binary.LittleEndian.PutUint32(header[8:12], 1<<20)
	binary.LittleEndian.PutUint32(header[12:16], 1<<20)

	if _, err := Read(bytes.NewReader(header)); !errors.Is(err, bmp.ErrAllocation) {
		t.Fatalf("expected allocation error, got %v", err)
	}
}
