package cluster

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Binding identifies one of the buffers the culler writes each frame.
type Binding int

const (
	// BindingZBins is the Z-bin table: binCount bins of (2 + wordsPerTile) words.
	BindingZBins Binding = iota

	// BindingTileMasks is the tile mask grid: tileCountX * tileCountY tiles of wordsPerTile words.
	BindingTileMasks

	// BindingUniforms is the GPUClusterUniforms block.
	BindingUniforms
)

// String returns a human-readable name for the binding.
func (b Binding) String() string {
	switch b {
	case BindingZBins:
		return "zbins"
	case BindingTileMasks:
		return "tile masks"
	case BindingUniforms:
		return "uniforms"
	default:
		return "unknown"
	}
}

// BufferWrite describes a single buffer write produced by Upload.
type BufferWrite struct {
	Binding Binding
	Offset  uint64
	Data    []byte
}

// OutputSink receives the culler's buffers once per frame. The data slices are only valid for
// the duration of the call; implementations must copy what they keep.
type OutputSink interface {
	// WriteBuffers writes all buffers for the frame.
	//
	// Parameters:
	//   - writes: the buffer writes, one per binding
	//
	// Returns:
	//   - error: an error if a write could not be performed
	WriteBuffers(writes []BufferWrite) error
}

// GPUClusterUniforms is the GPU-aligned parameter block the shader uses to index the Z-bin table
// and the tile mask grid.
// Size: 48 bytes (std140 / WGSL aligned).
type GPUClusterUniforms struct {
	ZBinScale      float32 // offset  0
	ZBinOffset     float32 // offset  4
	ItemCount      uint32  // offset  8
	LightCount     uint32  // offset 12
	TileScaleX     float32 // offset 16
	TileScaleY     float32 // offset 20
	TileCountX     uint32  // offset 24
	WordsPerTile   uint32  // offset 28
	BinCount       uint32  // offset 32
	TotalTileCount uint32  // offset 36
	WideTiles      uint32  // offset 40: 1 when a tile mask spans more than one word
	_pad           uint32  // offset 44
}

// Size returns the size of the GPUClusterUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUClusterUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUClusterUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUClusterUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.ZBinScale))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.ZBinOffset))
	binary.LittleEndian.PutUint32(buf[8:], g.ItemCount)
	binary.LittleEndian.PutUint32(buf[12:], g.LightCount)
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(g.TileScaleX))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(g.TileScaleY))
	binary.LittleEndian.PutUint32(buf[24:], g.TileCountX)
	binary.LittleEndian.PutUint32(buf[28:], g.WordsPerTile)
	binary.LittleEndian.PutUint32(buf[32:], g.BinCount)
	binary.LittleEndian.PutUint32(buf[36:], g.TotalTileCount)
	binary.LittleEndian.PutUint32(buf[40:], g.WideTiles)
	binary.LittleEndian.PutUint32(buf[44:], 0) // _pad
	return buf
}

// uniforms builds the parameter block for a frame.
func (p *frameParams) uniforms() GPUClusterUniforms {
	u := GPUClusterUniforms{
		ZBinScale:      p.zBinScale,
		ZBinOffset:     p.zBinOffset,
		ItemCount:      uint32(p.itemCount),
		LightCount:     uint32(p.lightCount),
		TileScaleX:     p.tileScaleX,
		TileScaleY:     p.tileScaleY,
		TileCountX:     uint32(p.tileCountX),
		WordsPerTile:   uint32(p.wordsPerTile),
		BinCount:       uint32(p.binCount),
		TotalTileCount: uint32(p.tileCountX * p.tileCountY),
	}
	if p.wordsPerTile > 1 {
		u.WideTiles = 1
	}
	return u
}
