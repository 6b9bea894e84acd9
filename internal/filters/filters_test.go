package filters

import (
	"bytes"
	"testing"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
)

func makeTestPlanes(t *testing.T, w, h int) *bmp.Planes {
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

func uniformPlanes(t *testing.T, w, h int, r, g, b byte) *bmp.Planes {
	t.Helper()
	p, err := bmp.NewPlanes(w, h)
	if err != nil {
		t.Fatalf("NewPlanes: %v", err)
	}
	for i := range p.Len() {
		p.R[i], p.G[i], p.B[i] = r, g, b
	}
	return p
}

func TestInvert_Twice(t *testing.T) {
	src := makeTestPlanes(t, 9, 7)
	p := src.Copy()

	Invert(p)
	if r, g, b := p.At(2, 3); r != 255-src.R[3*9+2] || g != 255-src.G[3*9+2] || b != 255-src.B[3*9+2] {
		t.Fatalf("pixel (2,3) = (%d,%d,%d) is not inverted", r, g, b)
	}

	Invert(p)
	if !bytes.Equal(p.R, src.R) || !bytes.Equal(p.G, src.G) || !bytes.Equal(p.B, src.B) {
		t.Fatalf("double invert did not restore the image")
	}
}

func TestGrayscale(t *testing.T) {
	p := uniformPlanes(t, 2, 2, 30, 60, 90)
	Grayscale(p)
	if r, g, b := p.At(1, 1); r != 60 || g != 60 || b != 60 {
		t.Fatalf("pixel = (%d,%d,%d), expected (60,60,60)", r, g, b)
	}

	p = uniformPlanes(t, 2, 2, 255, 0, 0)
	GrayscaleLuma(p)
	if r, g, b := p.At(0, 0); r != 76 || g != 76 || b != 76 {
		t.Fatalf("luma of pure red = (%d,%d,%d), expected 76", r, g, b)
	}
}

func TestIsolate(t *testing.T) {
	p := uniformPlanes(t, 3, 3, 10, 20, 30)
	if err := Isolate(p, "green"); err != nil {
		t.Fatalf("Isolate: %v", err)
	}
	if r, g, b := p.At(1, 1); r != 0 || g != 20 || b != 0 {
		t.Fatalf("pixel = (%d,%d,%d), expected (0,20,0)", r, g, b)
	}
	if err := Isolate(p, "purple"); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
}

func TestBrightness(t *testing.T) {
	for _, tc := range []struct {
		name    string
		factor  float64
		method  string
		want    byte
		wantErr bool
	}{
		{name: "add", factor: 50, method: "add", want: 150},
		{name: "add_clips_high", factor: 200, method: "add", want: 255},
		{name: "add_clips_low", factor: -200, method: "add", want: 0},
		{name: "multiply", factor: 0.5, method: "multiply", want: 50},
		{name: "bad_method", factor: 1, method: "divide", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := uniformPlanes(t, 2, 2, 100, 100, 100)
			err := Brightness(p, tc.factor, tc.method)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Brightness: %v", err)
			}
			if r, g, b := p.At(0, 1); r != tc.want || g != tc.want || b != tc.want {
				t.Fatalf("pixel = (%d,%d,%d), expected %d", r, g, b, tc.want)
			}
		})
	}
}

func TestContrast(t *testing.T) {
	p, _ := bmp.NewPlanes(2, 1)
	p.Set(0, 0, 100, 100, 100)
	p.Set(1, 0, 200, 200, 200)

	// mean is 150: distances from it double
	Contrast(p, 2)
	if r, _, _ := p.At(0, 0); r != 50 {
		t.Fatalf("dark pixel = %d, expected 50", r)
	}
	if r, _, _ := p.At(1, 0); r != 250 {
		t.Fatalf("bright pixel = %d, expected 250", r)
	}

	// factor 1 leaves the image alone
	src := makeTestPlanes(t, 5, 5)
	q := src.Copy()
	Contrast(q, 1)
	if !bytes.Equal(q.R, src.R) {
		t.Fatalf("Contrast(1) changed the image")
	}
}

func TestHueShift(t *testing.T) {
	p := uniformPlanes(t, 2, 2, 255, 0, 0)
	if err := HueShift(p, 120); err != nil {
		t.Fatalf("HueShift: %v", err)
	}
	if r, g, b := p.At(0, 0); r > 1 || g < 254 || b > 1 {
		t.Fatalf("red shifted by 120 = (%d,%d,%d), expected green", r, g, b)
	}

	if err := HueShift(p, -120); err != nil {
		t.Fatalf("HueShift: %v", err)
	}
	if r, g, b := p.At(1, 1); r < 254 || g > 1 || b > 1 {
		t.Fatalf("shifted back = (%d,%d,%d), expected red", r, g, b)
	}
}

func TestExpression(t *testing.T) {
	t.Run("all_channels", func(t *testing.T) {
		src := makeTestPlanes(t, 4, 3)
		p := src.Copy()
		if err := Expression(p, "255 - r", "all"); err != nil {
			t.Fatalf("Expression: %v", err)
		}
		for i := range p.Len() {
			want := 255 - src.R[i]
			if p.R[i] != want || p.G[i] != want || p.B[i] != want {
				t.Fatalf("pixel %d = (%d,%d,%d), expected %d", i, p.R[i], p.G[i], p.B[i], want)
			}
		}
	})

	t.Run("single_channel_with_functions", func(t *testing.T) {
		p := uniformPlanes(t, 3, 3, 10, 20, 30)
		if err := Expression(p, "max(r, g) * 2 + x", "blue"); err != nil {
			t.Fatalf("Expression: %v", err)
		}
		if r, g, b := p.At(2, 0); r != 10 || g != 20 || b != 42 {
			t.Fatalf("pixel = (%d,%d,%d), expected (10,20,42)", r, g, b)
		}
	})

	t.Run("boolean_mask", func(t *testing.T) {
		p := makeTestPlanes(t, 4, 4)
		if err := Expression(p, "y < height / 2", "all"); err != nil {
			t.Fatalf("Expression: %v", err)
		}
		if r, _, _ := p.At(0, 0); r != 255 {
			t.Fatalf("top pixel = %d, expected 255", r)
		}
		if r, _, _ := p.At(0, 3); r != 0 {
			t.Fatalf("bottom pixel = %d, expected 0", r)
		}
	})

	t.Run("errors", func(t *testing.T) {
		p := makeTestPlanes(t, 2, 2)
		if err := Expression(p, "(r + 2", "all"); err == nil {
			t.Fatalf("expected parse error")
		}
		if err := Expression(p, "r", "alpha"); err == nil {
			t.Fatalf("expected error for unknown channel")
		}
		if err := Expression(p, "min(r)", "all"); err == nil {
			t.Fatalf("expected arity error")
		}
	})
}

func TestKawaseBlur(t *testing.T) {
	// A uniform image is a fixed point
	p := uniformPlanes(t, 8, 6, 40, 80, 120)
	if err := KawaseBlur(p, 3); err != nil {
		t.Fatalf("KawaseBlur: %v", err)
	}
	for i := range p.Len() {
		if p.R[i] != 40 || p.G[i] != 80 || p.B[i] != 120 {
			t.Fatalf("pixel %d = (%d,%d,%d), expected unchanged", i, p.R[i], p.G[i], p.B[i])
		}
	}

	// A single bright dot spreads out and loses its peak
	dot := uniformPlanes(t, 9, 9, 0, 0, 0)
	dot.Set(4, 4, 255, 255, 255)
	if err := KawaseBlur(dot, 2); err != nil {
		t.Fatalf("KawaseBlur: %v", err)
	}
	center, _, _ := dot.At(4, 4)
	if center == 0 || center == 255 {
		t.Fatalf("center = %d, expected a blurred value", center)
	}
	if r, _, _ := dot.At(5, 5); r == 0 {
		t.Fatalf("neighbour stayed black after blur")
	}
	if r, _, _ := dot.At(0, 0); r != 0 {
		t.Fatalf("far corner = %d, expected untouched", r)
	}

	if err := KawaseBlur(dot, -1); err == nil {
		t.Fatalf("expected error for negative passes")
	}
	if err := KawaseBlur(dot, MaxBlurPasses+1); err == nil {
		t.Fatalf("expected error for %d passes", MaxBlurPasses+1)
	}
}
