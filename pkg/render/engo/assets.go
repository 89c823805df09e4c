// pkg/render/engo/assets.go
package engo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	aircraftSize = 32
	fontURL      = "goregular.ttf"
)

// Palette for the arena
var (
	skyColor     = color.RGBA{100, 150, 255, 255}
	cloudColor   = color.RGBA{255, 255, 255, 128}
	groundColor  = color.RGBA{50, 200, 50, 255}
	earthColor   = color.RGBA{139, 69, 19, 255}
	foliageColor = color.RGBA{34, 139, 34, 255}
	zoneColor    = color.RGBA{100, 100, 100, 255}
	aircraftTint = color.RGBA{255, 255, 255, 255}
	crashColor   = color.RGBA{255, 0, 0, 255}
	gaugeColor   = color.RGBA{255, 200, 0, 255}
	gaugeFrame   = color.RGBA{0, 0, 0, 160}
)

// AssetManager owns the generated textures and the HUD font
type AssetManager struct {
	aircraft common.Drawable
	font     *common.Font
}

// NewAssetManager creates an empty asset manager
func NewAssetManager() *AssetManager {
	return &AssetManager{}
}

// LoadAssets builds the textures and font. It needs a live GL context, so
// call it from Scene.Setup.
func (am *AssetManager) LoadAssets() error {
	am.aircraft = common.NewTextureSingle(common.NewImageObject(aircraftImage(aircraftSize)))

	if err := engo.Files.LoadReaderData(fontURL, bytes.NewReader(goregular.TTF)); err != nil {
		return fmt.Errorf("loading HUD font: %w", err)
	}
	am.font = &common.Font{URL: fontURL, FG: crashColor, Size: 48}
	if err := am.font.CreatePreloaded(); err != nil {
		return fmt.Errorf("preparing HUD font: %w", err)
	}
	return nil
}

// Aircraft returns the aircraft sprite
func (am *AssetManager) Aircraft() common.Drawable {
	return am.aircraft
}

// Font returns the HUD font
func (am *AssetManager) Font() *common.Font {
	return am.font
}

// aircraftImage draws a white arrowhead pointing along +X, the direction
// of zero heading. Rotation at render time turns it to the heading.
func aircraftImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	mid := float64(size-1) / 2
	for y := 0; y < size; y++ {
		// Half-width shrinks linearly from the tail to the nose.
		for x := 0; x < size; x++ {
			half := mid * (1 - float64(x)/float64(size-1))
			if d := float64(y) - mid; d >= -half && d <= half {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}
