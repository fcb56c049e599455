package cluster

import (
	"math"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ZBinBatchSize is the number of consecutive Z-bins owned by one binning task.
const ZBinBatchSize = 128

// ZBinHeaderWords is the number of header words at the start of every Z-bin: one packed
// (min | max<<16) item index pair for lights and one for probes.
const ZBinHeaderWords = 2

// EmptyZBinHeader is the value of a header word no item has touched (min 0xFFFF, max 0).
const EmptyZBinHeader uint32 = 0x0000FFFF

// rangeStride is the number of InclusiveRange slots that fill one 64-byte cache line.
const rangeStride = 64 / 4

// flipZ converts the camera's right-handed view space (looking down -Z) into cluster view space
// (looking down +Z).
var flipZ = mgl32.Scale3D(1, 1, -1)

// frameParams holds everything derived from the camera and resolution for one frame.
type frameParams struct {
	width, height int
	orthographic  bool
	near, far     float32
	view          mgl32.Mat4 // world to cluster view space
	viewProj      mgl32.Mat4

	lightCount   int
	probeCount   int
	itemCount    int
	wordsPerTile int

	tileWidth  int
	tileCountX int
	tileCountY int

	// Screen edges in view space: slopes x/z and y/z at unit depth for perspective, absolute
	// coordinates for orthographic.
	viewLeft, viewRight, viewBottom, viewTop float32
	tileScaleX, tileScaleY                   float32

	zBinScale  float32
	zBinOffset float32
	binCount   int

	rangesPerItem int
}

// TileCounts computes the number of tiles in each dimension for a given screen resolution and
// tile width. Partially covered tiles at the right and top edges count as whole tiles.
//
// Parameters:
//   - screenWidth: screen width in pixels
//   - screenHeight: screen height in pixels
//   - tileWidth: tile width and height in pixels
//
// Returns:
//   - tileCountX: number of tile columns
//   - tileCountY: number of tile rows
func TileCounts(screenWidth, screenHeight, tileWidth int) (tileCountX, tileCountY int) {
	tileCountX = (max(screenWidth, 1) + tileWidth - 1) / tileWidth
	tileCountY = (max(screenHeight, 1) + tileWidth - 1) / tileWidth
	return
}

// chooseTileWidth doubles the tile width from minTileWidth until the tile mask grid fits in
// maxTileWords.
//
// Returns:
//   - int: tile width in pixels
//   - int, int: tile columns and rows at that width
func chooseTileWidth(width, height, wordsPerTile, minTileWidth, maxTileWords int) (int, int, int) {
	tw := minTileWidth
	for {
		cx, cy := TileCounts(width, height, tw)
		fits := cx*cy*wordsPerTile <= maxTileWords && cx < math.MaxInt16 && cy < math.MaxInt16
		if fits || (cx == 1 && cy == 1) {
			return tw, cx, cy
		}
		tw *= 2
	}
}

// zBinParams computes the scale, offset and count that map a view depth to a Z-bin index so the
// bins cover [near, far] within maxZBinWords. A non-finite or negative count (infinite far
// plane, degenerate planes) becomes zero bins.
func zBinParams(near, far float32, orthographic bool, wordsPerTile, maxZBinWords int) (scale, offset float32, count int) {
	if !(far > near) || (!orthographic && !(near > 0)) {
		return 0, 0, 0
	}
	stride := float32(ZBinHeaderWords + wordsPerTile)
	lo, hi := near, far
	if !orthographic {
		lo, hi = math32.Log2(near), math32.Log2(far)
	}
	scale = float32(maxZBinWords) / ((hi - lo) * stride)
	offset = -lo * scale
	f := hi*scale + offset
	if math32.IsNaN(f) || math32.IsInf(f, 0) || f < 0 || math32.IsInf(scale, 0) || math32.IsNaN(scale) {
		return 0, 0, 0
	}
	count = min(common.FloorToInt(f), maxZBinWords/(ZBinHeaderWords+wordsPerTile))
	return scale, offset, count
}

// viewBounds derives the screen edges in view space from an OpenGL-convention projection
// matrix. For perspective these are the x/z and y/z slopes of the frustum sides, for
// orthographic the x and y coordinates of the view volume sides.
func viewBounds(proj mgl32.Mat4, orthographic bool) (left, right, bottom, top float32) {
	p00, p11 := proj.At(0, 0), proj.At(1, 1)
	if orthographic {
		p03, p13 := proj.At(0, 3), proj.At(1, 3)
		return (-1 - p03) / p00, (1 - p03) / p00, (-1 - p13) / p11, (1 - p13) / p11
	}
	p02, p12 := proj.At(0, 2), proj.At(1, 2)
	return (-1 + p02) / p00, (1 + p02) / p00, (-1 + p12) / p11, (1 + p12) / p11
}

// newFrameParams derives the per-frame parameters. The view matrix is the camera's world-to-view
// matrix; it is converted to cluster view space here.
func newFrameParams(cfg *config, view, proj mgl32.Mat4, near, far float32, orthographic bool, width, height, lights, probes int) frameParams {
	p := frameParams{
		width:        max(width, 1),
		height:       max(height, 1),
		orthographic: orthographic,
		near:         near,
		far:          far,
		view:         flipZ.Mul4(view),
		viewProj:     proj.Mul4(view),
		lightCount:   lights,
		probeCount:   probes,
		itemCount:    lights + probes,
	}
	p.wordsPerTile = max(common.WordsFor(p.itemCount), 1)
	p.tileWidth, p.tileCountX, p.tileCountY = chooseTileWidth(p.width, p.height, p.wordsPerTile, cfg.minTileWidth, cfg.maxTileWords)
	p.tileScaleX = float32(p.width) / float32(p.tileWidth)
	p.tileScaleY = float32(p.height) / float32(p.tileWidth)
	p.viewLeft, p.viewRight, p.viewBottom, p.viewTop = viewBounds(proj, orthographic)
	p.zBinScale, p.zBinOffset, p.binCount = zBinParams(near, far, orthographic, p.wordsPerTile, cfg.maxZBinWords)
	p.rangesPerItem = (1 + p.tileCountY + rangeStride - 1) / rangeStride * rangeStride
	return p
}

// zBinStride returns the number of words per Z-bin.
func (p *frameParams) zBinStride() int {
	return ZBinHeaderWords + p.wordsPerTile
}

// binIndex maps a view depth to an unclamped Z-bin index.
func (p *frameParams) binIndex(z float32) int {
	if p.orthographic {
		return common.FloorToInt(z*p.zBinScale + p.zBinOffset)
	}
	return common.FloorToInt(math32.Log2(z)*p.zBinScale + p.zBinOffset)
}

// tileX maps a view-space point to a fractional tile column.
func (p *frameParams) tileX(pt mgl32.Vec3) float32 {
	x := pt[0]
	if !p.orthographic {
		x /= pt[2]
	}
	return (x - p.viewLeft) / (p.viewRight - p.viewLeft) * p.tileScaleX
}

// tileY maps a view-space point to a fractional tile row. Row 0 is at the bottom of the screen.
func (p *frameParams) tileY(pt mgl32.Vec3) float32 {
	y := pt[1]
	if !p.orthographic {
		y /= pt[2]
	}
	return (y - p.viewBottom) / (p.viewTop - p.viewBottom) * p.tileScaleY
}

// rowBoundary returns the view-space level of the boundary between rows k-1 and k: a y/z slope
// for perspective, a y coordinate for orthographic.
func (p *frameParams) rowBoundary(k int) float32 {
	return p.viewBottom + (p.viewTop-p.viewBottom)*float32(k)/p.tileScaleY
}

// clampColumn converts a fractional tile column into a clamped column index.
func (p *frameParams) clampColumn(tx float32) int16 {
	return int16(common.Clamp(common.FloorToInt(tx), 0, p.tileCountX-1))
}

// clampRow converts a fractional tile row into a clamped row index.
func (p *frameParams) clampRow(ty float32) int16 {
	return int16(common.Clamp(common.FloorToInt(ty), 0, p.tileCountY-1))
}
