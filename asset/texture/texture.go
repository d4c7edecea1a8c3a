package texture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/achilleasa/shapeview/asset"
	"github.com/achilleasa/shapeview/types"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
)

// A decoded texture image. Texel data is stored as 8-bit sRGB RGBA.
type Texture struct {
	Width  uint32
	Height uint32

	img *image.RGBA
}

// Create a new texture from a Resource.
func New(res *asset.Resource) (*Texture, error) {
	var img image.Image
	var err error

	// Local files go through imgio; remote streams are decoded in place
	if localPath, isLocal := res.LocalPath(); isLocal {
		img, err = imgio.Open(localPath)
	} else {
		img, _, err = image.Decode(res)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode %s: %s", res.Path(), err.Error())
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("texture: image %s has zero size", res.Path())
	}

	return &Texture{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		img:    clone.AsRGBA(img),
	}, nil
}

// Sample the texture at the given UV coordinates using bilinear filtering.
// UV coordinates wrap around and V points up. The returned color is in
// linear space with alpha in the 4th component.
func (t *Texture) Sample(uv types.Vec2) types.Vec4 {
	u := wrap(uv[0])*float32(t.Width) - 0.5
	v := (1.0-wrap(uv[1]))*float32(t.Height) - 0.5

	x0 := int(math.Floor(float64(u)))
	y0 := int(math.Floor(float64(v)))
	fx := u - float32(x0)
	fy := v - float32(y0)

	c00 := t.texel(x0, y0)
	c10 := t.texel(x0+1, y0)
	c01 := t.texel(x0, y0+1)
	c11 := t.texel(x0+1, y0+1)

	top := c00.Mul(1 - fx).Add(c10.Mul(fx))
	bottom := c01.Mul(1 - fx).Add(c11.Mul(fx))
	return top.Mul(1 - fy).Add(bottom.Mul(fy))
}

// Fetch a texel with wrap-around addressing and convert it to linear space.
func (t *Texture) texel(x, y int) types.Vec4 {
	w, h := int(t.Width), int(t.Height)
	x = ((x % w) + w) % w
	y = ((y % h) + h) % h

	offset := t.img.PixOffset(x+t.img.Rect.Min.X, y+t.img.Rect.Min.Y)
	pix := t.img.Pix[offset : offset+4]
	return types.Vec4{
		SRGBToLinear(float32(pix[0]) / 255.0),
		SRGBToLinear(float32(pix[1]) / 255.0),
		SRGBToLinear(float32(pix[2]) / 255.0),
		float32(pix[3]) / 255.0,
	}
}

func wrap(c float32) float32 {
	c = c - float32(math.Floor(float64(c)))
	return c
}

// Convert an sRGB encoded channel value to linear space.
func SRGBToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64((c+0.055)/1.055), 2.4))
}

// Convert a linear channel value to sRGB encoding.
func LinearToSRGB(c float32) float32 {
	switch {
	case c <= 0:
		return 0
	case c >= 1:
		return 1
	case c <= 0.0031308:
		return c * 12.92
	}
	return float32(1.055*math.Pow(float64(c), 1.0/2.4) - 0.055)
}
