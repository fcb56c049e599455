package cluster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// heatColor maps an item count to a color ramp from black through red to yellow.
func heatColor(count, maxCount int) color.RGBA {
	if count == 0 || maxCount == 0 {
		return color.RGBA{A: 255}
	}
	t := float32(count) / float32(maxCount)
	if t <= 0.5 {
		return color.RGBA{R: uint8(t * 2 * 255), A: 255}
	}
	return color.RGBA{R: 255, G: uint8((t - 0.5) * 2 * 255), A: 255}
}

// tileCountImage renders one pixel per tile whose color encodes the number of items in the tile.
// Image row 0 is the top tile row.
func tileCountImage(p *frameParams, masks []uint32) (*image.RGBA, int) {
	wpt := p.wordsPerTile
	counts := make([]int, p.tileCountX*p.tileCountY)
	maxCount := 0
	for i := range counts {
		counts[i] = common.Bitset32(masks[i*wpt : (i+1)*wpt]).Count()
		maxCount = max(maxCount, counts[i])
	}

	img := image.NewRGBA(image.Rect(0, 0, p.tileCountX, p.tileCountY))
	for ty := 0; ty < p.tileCountY; ty++ {
		for tx := 0; tx < p.tileCountX; tx++ {
			img.SetRGBA(tx, p.tileCountY-1-ty, heatColor(counts[ty*p.tileCountX+tx], maxCount))
		}
	}
	return img, maxCount
}

// renderHeatmap scales the per-tile image to screen resolution. The tile grid is anchored at the
// bottom-left corner of the screen, so the partial tiles at the top and right are cropped.
func renderHeatmap(p *frameParams, masks []uint32) *image.RGBA {
	tiles, maxCount := tileCountImage(p, masks)
	dst := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	gridW, gridH := p.tileCountX*p.tileWidth, p.tileCountY*p.tileWidth
	xdraw.NearestNeighbor.Scale(dst, image.Rect(0, p.height-gridH, gridW, p.height), tiles, tiles.Bounds(), xdraw.Src, nil)

	face := basicfont.Face7x13
	if p.width >= 8*face.Advance && p.height >= face.Height+4 {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.White,
			Face: face,
			Dot:  fixed.P(4, face.Ascent+2),
		}
		d.DrawString(fmt.Sprintf("max %d", maxCount))
	}
	return dst
}

// Heatmap renders the number of items per tile of the current frame as a screen-sized image,
// with the maximum count printed in the top-left corner. Returns nil before the first Setup.
//
// Returns:
//   - *image.RGBA: the heatmap, or nil
func (c *cullerImpl) Heatmap() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return nil
	}
	_ = c.final.Complete()
	return renderHeatmap(c.params, c.masks)
}

// WriteHeatmapPNG encodes a heatmap as PNG.
//
// Parameters:
//   - w: the destination writer
//   - img: the heatmap
//
// Returns:
//   - error: an error if img is nil or encoding fails
func WriteHeatmapPNG(w io.Writer, img image.Image) error {
	if img == nil {
		return fmt.Errorf("cluster: no heatmap to encode")
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("cluster: failed to encode heatmap: %w", err)
	}
	return nil
}
