// Adjusts image dimensions, orientation, or structure.
package adjustments

import (
	"errors"
	"math"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
	"github.com/disintegration/imaging"
)

// Crops a region out of the planes (0,0 is at the top-left of the image)
func Crop(p *bmp.Planes, x, y, width, height int) (*bmp.Planes, error) {
	// Validate bounds
	if x < 0 || y < 0 {
		return nil, errors.New("invalid bounds: origin must not be negative")
	} else if width+x > p.Width {
		return nil, errors.New("invalid bounds: width out of bounds")
	} else if height+y > p.Height {
		return nil, errors.New("invalid bounds: height out of bounds")
	}

	cropped, err := bmp.NewPlanes(width, height)
	if err != nil {
		return nil, err
	}

	// Copy each row of each channel
	src := p.Channels()
	dst := cropped.Channels()
	for c := range src {
		for row := range height { // Height | Rows
			from := (row+y)*p.Width + x
			copy(dst[c][row*width:(row+1)*width], src[c][from:from+width])
		}
	}

	return cropped, nil
}

// Mirrors the planes left-to-right, in place
func FlipHorizontal(p *bmp.Planes) {
	for _, plane := range p.Channels() {
		for row := range p.Height {
			line := plane[row*p.Width : (row+1)*p.Width]
			for i, j := 0, len(line)-1; i < j; i, j = i+1, j-1 {
				line[i], line[j] = line[j], line[i]
			}
		}
	}
}

// Mirrors the planes top-to-bottom, in place
func FlipVertical(p *bmp.Planes) {
	for _, plane := range p.Channels() {
		for top, bottom := 0, p.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
			a := plane[top*p.Width : (top+1)*p.Width]
			b := plane[bottom*p.Width : (bottom+1)*p.Width]
			for i := range a {
				a[i], b[i] = b[i], a[i]
			}
		}
	}
}

// Resamples the planes to width x height with a Lanczos filter.
// Passing 0 for one dimension keeps the aspect ratio.
func Resize(p *bmp.Planes, width, height int) (*bmp.Planes, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return nil, errors.New("invalid size: at least one dimension must be greater than 0")
	}

	// Work out the kept-aspect dimension the way imaging does, so the
	// target size can be checked before imaging allocates it
	if width == 0 {
		width = int(math.Max(1, math.Floor(float64(height)*float64(p.Width)/float64(p.Height)+0.5)))
	} else if height == 0 {
		height = int(math.Max(1, math.Floor(float64(width)*float64(p.Height)/float64(p.Width)+0.5)))
	}
	if err := bmp.CheckSize(width, height); err != nil {
		return nil, err
	}

	resized := imaging.Resize(p.ToImage(), width, height, imaging.Lanczos)
	return bmp.FromImage(resized)
}
