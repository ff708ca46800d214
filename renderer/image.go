package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/goblackhole/graphics"
)

var (
	ErrInvalidImageSize = errors.New("renderer: image size must be positive")
	ErrImageDestroyed   = errors.New("renderer: image has been destroyed")
)

// Image is a fixed-size RGBA32F texture. The compute program writes it
// through an image unit and the screen program reads it through a sampler.
// It cannot be resized; create a new one instead.
type Image struct {
	driver  graphics.Driver
	texture uint32
	width   int
	height  int
}

// NewImage allocates a width x height float RGBA texture with linear
// filtering and edge clamping.
func NewImage(d graphics.Driver, width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, width, height)
	}
	return &Image{
		driver:  d,
		texture: d.CreateTexture2D(width, height),
		width:   width,
		height:  height,
	}, nil
}

func (img *Image) Width() int      { return img.width }
func (img *Image) Height() int     { return img.height }
func (img *Image) Texture() uint32 { return img.texture }

// BindAsComputeTarget binds the image to unit for write-only access.
func (img *Image) BindAsComputeTarget(unit uint32) error {
	if img.texture == 0 {
		return ErrImageDestroyed
	}
	img.driver.BindImageTexture(unit, img.texture, graphics.WriteOnly)
	return nil
}

// BindAsSamplerInput binds the image to texture unit for sampling.
func (img *Image) BindAsSamplerInput(unit uint32) error {
	if img.texture == 0 {
		return ErrImageDestroyed
	}
	img.driver.BindTexture(unit, img.texture)
	return nil
}

// Pixels reads the image back as RGBA floats, bottom row first. It issues a
// texture update barrier so stores from the last dispatch are included.
func (img *Image) Pixels() ([]float32, error) {
	if img.texture == 0 {
		return nil, ErrImageDestroyed
	}
	img.driver.MemoryBarrier(graphics.TextureUpdateBarrier)
	return img.driver.ReadTexture(img.texture, img.width, img.height), nil
}

// Destroy releases the texture. Later calls do nothing.
func (img *Image) Destroy() {
	if img.texture == 0 {
		return
	}
	img.driver.DeleteTexture(img.texture)
	img.texture = 0
}
