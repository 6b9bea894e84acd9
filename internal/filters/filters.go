// Filters perform color manipulation and per-pixel operations on planar images
package filters

import (
	"errors"
	"math"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
	"github.com/anas-shakeel/planar-bmp/internal/utils"
	"github.com/crazy3lf/colorconv"
)

// Inverts (negates) the image
func Invert(p *bmp.Planes) {
	for _, plane := range p.Channels() {
		for i := range plane {
			plane[i] = 255 - plane[i]
		}
	}
}

// Converts the image to Black-and-White
func Grayscale(p *bmp.Planes) {
	for i := range p.Len() {
		// Find the average value for pixel
		avg := byte(utils.Average(int(p.R[i]), int(p.G[i]), int(p.B[i])))
		p.R[i], p.G[i], p.B[i] = avg, avg, avg
	}
}

// Converts the image to Black-and-White (with ITU-R 601-2 Luma Transform)
func GrayscaleLuma(p *bmp.Planes) {
	for i := range p.Len() {
		L := byte(int(p.R[i])*299/1000 + int(p.G[i])*587/1000 + int(p.B[i])*114/1000)
		p.R[i], p.G[i], p.B[i] = L, L, L
	}
}

// Keeps a single channel and turns the other two to zero.
// channel can be one of (`red`, `green`, and `blue`)
func Isolate(p *bmp.Planes, channel string) error {
	keep, err := p.Channel(channel)
	if err != nil {
		return err
	}
	for _, plane := range p.Channels() {
		if &plane[0] == &keep[0] {
			continue
		}
		clear(plane)
	}
	return nil
}

// Adjusts the Brightness of the image in-place.
//
// method can be "add" (adds value to each channel) or "multiply" (multiplies each channel by value).
// Pixel values are clipped to [0, 255].
func Brightness(p *bmp.Planes, factor float64, method string) error {
	type Operation func(x, y float64) float64
	var operation Operation

	// Select an operation of brightness (additive or multiplicative)
	switch method {
	case "add":
		operation = func(x, y float64) float64 {
			return x + y
		}
	case "multiply":
		operation = func(x, y float64) float64 {
			return x * y
		}
	default:
		return errors.New("invalid method: method must be add or multiply")
	}

	// Apply brightness (or darkness)
	for _, plane := range p.Channels() {
		for i, v := range plane {
			plane[i] = utils.ClampByte(operation(float64(v), factor))
		}
	}

	return nil
}

// Adjusts the Contrast of the image in-place.
// factor > 1.0 increases Contrast, factor < 1.0 decreases it.
func Contrast(p *bmp.Planes, factor float64) {
	totalPixels := float64(p.Len())

	for _, plane := range p.Channels() {
		// Compute mean for each channel
		var sum int
		for _, v := range plane {
			sum += int(v)
		}
		mean := float64(sum) / totalPixels

		// Apply contrast
		for i, v := range plane {
			plane[i] = utils.ClampByte(float64(v)*factor + (1-factor)*mean)
		}
	}
}

// Rotates the hue of every pixel by degrees (negative values rotate backwards)
func HueShift(p *bmp.Planes, degrees float64) error {
	for i := range p.Len() {
		h, s, v := colorconv.RGBToHSV(p.R[i], p.G[i], p.B[i])

		h = math.Mod(h+degrees, 360)
		if h < 0 {
			h += 360
		}

		r, g, b, err := colorconv.HSVToRGB(h, s, v)
		if err != nil {
			return err
		}
		p.R[i], p.G[i], p.B[i] = r, g, b
	}
	return nil
}
