package filters

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
)

// Largest pass count KawaseBlur accepts
const MaxBlurPasses = 64

// Applies a Kawase blur: each pass averages four diagonal samples taken
// pass+0.5 pixels away, so the blur radius grows with every pass.
// Channels are processed concurrently.
func KawaseBlur(p *bmp.Planes, passes int) error {
	if passes < 0 {
		return errors.New("passes must not be negative")
	}
	if passes > MaxBlurPasses {
		return fmt.Errorf("passes must not exceed %d", MaxBlurPasses)
	}
	if passes == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, plane := range p.Channels() {
		wg.Add(1)
		go func(plane []byte) {
			defer wg.Done()
			kawaseChannel(plane, p.Width, p.Height, passes)
		}(plane)
	}
	wg.Wait()

	return nil
}

func kawaseChannel(plane []byte, width, height, passes int) {
	src := make([]float64, len(plane))
	dst := make([]float64, len(plane))
	for i, v := range plane {
		src[i] = float64(v)
	}

	// Clamp-to-edge lookup
	at := func(x, y int) float64 {
		x = min(max(x, 0), width-1)
		y = min(max(y, 0), height-1)
		return src[y*width+x]
	}

	for pass := range passes {
		for y := range height {
			for x := range width {
				// A bilinear sample at a half-pixel offset is the mean of a 2x2 block
				var sum float64
				for _, d := range [4][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
					bx := x + d[0]*pass
					by := y + d[1]*pass
					if d[0] < 0 {
						bx--
					}
					if d[1] < 0 {
						by--
					}
					sum += at(bx, by) + at(bx+1, by) + at(bx, by+1) + at(bx+1, by+1)
				}
				dst[y*width+x] = sum / 16
			}
		}
		src, dst = dst, src
	}

	for i, v := range src {
		plane[i] = byte(v + 0.5)
	}
}
