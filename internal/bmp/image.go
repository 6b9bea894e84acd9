package bmp

import (
	"image"

	"github.com/disintegration/imaging"
)

// Returns the planes as an opaque NRGBA image
func (p *Planes) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i := range p.Len() {
		img.Pix[i*4+0] = p.R[i]
		img.Pix[i*4+1] = p.G[i]
		img.Pix[i*4+2] = p.B[i]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// Splits any image into planes. Alpha is dropped, not composited.
func FromImage(img image.Image) (*Planes, error) {
	// Clone normalizes bounds to (0,0) and the pixel layout to NRGBA
	src := imaging.Clone(img)

	p, err := NewPlanes(src.Rect.Dx(), src.Rect.Dy())
	if err != nil {
		return nil, err
	}

	for y := range p.Height {
		line := src.Pix[y*src.Stride:]
		for x := range p.Width {
			i := y*p.Width + x
			p.R[i] = line[x*4+0]
			p.G[i] = line[x*4+1]
			p.B[i] = line[x*4+2]
		}
	}
	return p, nil
}
