package cluster

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/jobs"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/probe"
)

// Stage names used for job errors and profiler records.
const (
	StageGeometry = "cluster geometry"
	StageZBins    = "cluster zbins"
	StageTiling   = "cluster tiling"
	StageExpand   = "cluster expand"
)

// cullerImpl is the implementation of the Culler interface.
type cullerImpl struct {
	mu        sync.Mutex
	cfg       config
	scheduler jobs.Scheduler

	// Persistent output buffers allocated at the full budget. zbins and masks are the current
	// frame's views into them.
	zbinStore []uint32
	maskStore []uint32
	zbins     []uint32
	masks     []uint32

	lights []lightSnapshot
	probes []probeSnapshot
	shapes []itemShape

	params        *frameParams
	final         *jobs.JobHandle
	lastTileWidth int
	disposed      bool
}

// Culler builds the Z-bin table and tile mask grid that tell a forward+ shader which lights and
// reflection probes can affect a pixel. Each frame the caller runs Setup, which schedules the
// culling jobs and returns immediately, then Upload, which waits for them and hands the buffers
// to an OutputSink.
//
// Item indices are global: lights take [0, lightCount) in input order and probes follow.
type Culler interface {
	// Setup captures the camera, lights and probes for a frame and schedules the culling jobs.
	// Panics if the previous frame's jobs are still running; call Upload or Complete first.
	//
	// Parameters:
	//   - cam: the camera to cull against
	//   - lights: point and spot lights; other kinds, disabled and nil lights occupy an index
	//     but set no bits
	//   - probes: reflection probes
	//   - width: screen width in pixels
	//   - height: screen height in pixels
	Setup(cam camera.Camera, lights []light.Light, probes []probe.ReflectionProbe, width, height int)

	// Upload waits for the frame's jobs and writes the Z-bin table, the tile masks and the
	// uniform block through sink.
	//
	// Parameters:
	//   - sink: the destination of the buffers
	//
	// Returns:
	//   - error: an error if Setup was not called, a job failed, or the sink failed
	Upload(sink OutputSink) error

	// Complete waits for the frame's jobs without uploading.
	//
	// Returns:
	//   - error: an error if a job failed
	Complete() error

	// Dispose waits for outstanding jobs and releases the buffers. The culler cannot be used
	// afterwards.
	Dispose()

	// TileWidth returns the tile width in pixels chosen for the current frame.
	TileWidth() int

	// TileCounts returns the number of tile columns and rows of the current frame.
	TileCounts() (int, int)

	// BinCount returns the number of Z-bins of the current frame.
	BinCount() int

	// WordsPerTile returns the number of 32-bit mask words per tile and per Z-bin.
	WordsPerTile() int

	// ItemCount returns the number of lights and probes culled this frame after truncation.
	ItemCount() int

	// ZBins returns the Z-bin table of the current frame once its jobs are complete. The slice
	// is owned by the culler and is overwritten by the next Setup.
	ZBins() []uint32

	// TileMasks returns the tile mask grid of the current frame once its jobs are complete.
	// The slice is owned by the culler and is overwritten by the next Setup.
	TileMasks() []uint32

	// Uniforms returns the parameter block of the current frame.
	Uniforms() GPUClusterUniforms

	// Heatmap renders the per-tile item counts of the current frame at screen resolution.
	Heatmap() *image.RGBA
}

var _ Culler = &cullerImpl{}

// NewCuller creates a Culler with the given options. Output buffers are allocated once at their
// full budget.
//
// Parameters:
//   - options: functional options to configure the culler
//
// Returns:
//   - Culler: the newly created culler
//   - error: an error if the configuration is invalid
func NewCuller(options ...CullerBuilderOption) (Culler, error) {
	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &cullerImpl{
		cfg:       cfg,
		scheduler: cfg.scheduler,
		zbinStore: make([]uint32, cfg.maxZBinWords),
		maskStore: make([]uint32, cfg.maxTileWords),
		lights:    make([]lightSnapshot, 0, cfg.maxItems),
		probes:    make([]probeSnapshot, 0, cfg.maxItems),
		shapes:    make([]itemShape, 0, cfg.maxItems),
	}
	if c.scheduler == nil {
		var opts []jobs.SchedulerBuilderOption
		if cfg.workers > 0 {
			opts = append(opts, jobs.WithWorkers(cfg.workers))
		}
		c.scheduler = jobs.NewScheduler(opts...)
	}
	return c, nil
}

func (c *cullerImpl) Setup(cam camera.Camera, lights []light.Light, probes []probe.ReflectionProbe, width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		panic("cluster: Setup called after Dispose")
	}
	if c.final != nil && !c.final.IsCompleted() {
		panic("cluster: Setup called while the previous frame's jobs are still running")
	}
	if cam == nil {
		panic("cluster: Setup called with a nil camera")
	}

	lightCount := min(len(lights), c.cfg.maxItems)
	probeCount := min(len(probes), c.cfg.maxItems-lightCount)
	if lightCount < len(lights) || probeCount < len(probes) {
		common.Logger().Debug("cluster: item limit reached",
			"lights", len(lights), "probes", len(probes), "max_items", c.cfg.maxItems)
	}

	c.lights = c.lights[:0]
	for _, l := range lights[:lightCount] {
		if l == nil {
			c.lights = append(c.lights, lightSnapshot{})
			continue
		}
		c.lights = append(c.lights, snapshotLight(l))
	}
	c.probes = c.probes[:0]
	for _, pr := range probes[:probeCount] {
		c.probes = append(c.probes, snapshotProbe(pr))
	}

	orthographic := cam.Orthographic()
	near, far := cam.Near(), cam.Far()
	if !orthographic {
		near = max(near, common.Epsilon)
	}
	p := new(frameParams)
	*p = newFrameParams(&c.cfg, cam.ViewMatrix(), cam.ProjectionMatrix(), near, far, orthographic, width, height, lightCount, probeCount)
	c.params = p

	if p.tileWidth != c.lastTileWidth {
		common.Logger().Debug("cluster: tile width changed",
			"from", c.lastTileWidth, "to", p.tileWidth, "tiles_x", p.tileCountX, "tiles_y", p.tileCountY)
		c.lastTileWidth = p.tileWidth
	}
	if p.binCount == 0 {
		common.Logger().Debug("cluster: depth range produced no z-bins", "near", near, "far", far)
	}

	zbins := c.zbinStore[:p.binCount*p.zBinStride()]
	masks := c.maskStore[:p.tileCountX*p.tileCountY*p.wordsPerTile]
	clear(zbins)
	clear(masks)
	c.zbins, c.masks = zbins, masks

	c.shapes = c.shapes[:p.itemCount]
	shapes := c.shapes
	lightSnaps, probeSnaps := c.lights, c.probes
	ranges := make([]InclusiveRange, p.itemCount*p.rangesPerItem)

	var frustum *common.Frustum
	if c.cfg.frustumRejection {
		f := common.ExtractFrustumFromMatrix(p.viewProj)
		frustum = &f
	}

	geometry := c.scheduler.ScheduleParallel(StageGeometry, p.itemCount, 0, c.timed(StageGeometry, func(start, end int) {
		for i := start; i < end; i++ {
			if i < p.lightCount {
				shapes[i] = analyzeLight(p, frustum, &lightSnaps[i])
			} else {
				shapes[i] = analyzeProbe(p, frustum, &probeSnaps[i-p.lightCount])
			}
		}
	}))

	zbinJob := c.scheduler.ScheduleParallel(StageZBins, zBinBatchCount(p.binCount), 1, c.timed(StageZBins, func(start, end int) {
		for batch := start; batch < end; batch++ {
			buildZBinBatch(p, shapes, zbins, batch)
		}
	}), geometry)

	tiling := c.scheduler.ScheduleParallel(StageTiling, p.itemCount, 0, c.timed(StageTiling, func(start, end int) {
		for i := start; i < end; i++ {
			lo := i * p.rangesPerItem
			tileItem(p, &shapes[i], ranges[lo:lo+p.rangesPerItem:lo+p.rangesPerItem])
		}
	}), geometry)

	expand := c.scheduler.ScheduleParallel(StageExpand, p.tileCountY, 0, c.timed(StageExpand, func(start, end int) {
		expandRows(p, ranges, masks, start, end)
	}), tiling)

	c.final = jobs.Combine(zbinJob, expand)
}

// timed wraps a stage function so every chunk's duration is recorded in the profiler.
func (c *cullerImpl) timed(stage string, fn jobs.ParallelFunc) jobs.ParallelFunc {
	prof := c.cfg.profiler
	if prof == nil {
		return fn
	}
	return func(start, end int) {
		t := time.Now()
		fn(start, end)
		prof.Record(stage, time.Since(t))
	}
}

func (c *cullerImpl) Upload(sink OutputSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.complete(); err != nil {
		return err
	}
	if sink == nil {
		return errors.New("cluster: Upload called with a nil sink")
	}
	if c.cfg.profiler != nil {
		c.cfg.profiler.Tick()
	}

	u := c.params.uniforms()
	writes := []BufferWrite{
		{Binding: BindingZBins, Data: common.SliceToBytes(c.zbins)},
		{Binding: BindingTileMasks, Data: common.SliceToBytes(c.masks)},
		{Binding: BindingUniforms, Data: u.Marshal()},
	}
	if err := sink.WriteBuffers(writes); err != nil {
		return fmt.Errorf("cluster: failed to write buffers: %w", err)
	}
	return nil
}

func (c *cullerImpl) Complete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete()
}

// complete waits for the current frame. Callers hold c.mu.
func (c *cullerImpl) complete() error {
	if c.disposed {
		return errors.New("cluster: culler is disposed")
	}
	if c.params == nil {
		return errors.New("cluster: Setup has not been called")
	}
	if err := c.final.Complete(); err != nil {
		return fmt.Errorf("cluster: culling jobs failed: %w", err)
	}
	return nil
}

func (c *cullerImpl) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if err := c.final.Complete(); err != nil {
		common.Logger().Warn("cluster: disposing after failed frame", "error", err)
	}
	c.disposed = true
	c.zbinStore, c.maskStore = nil, nil
	c.zbins, c.masks = nil, nil
	c.lights, c.probes, c.shapes = nil, nil, nil
	c.params = nil
}

func (c *cullerImpl) TileWidth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return 0
	}
	return c.params.tileWidth
}

func (c *cullerImpl) TileCounts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return 0, 0
	}
	return c.params.tileCountX, c.params.tileCountY
}

func (c *cullerImpl) BinCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return 0
	}
	return c.params.binCount
}

func (c *cullerImpl) WordsPerTile() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return 0
	}
	return c.params.wordsPerTile
}

func (c *cullerImpl) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return 0
	}
	return c.params.itemCount
}

func (c *cullerImpl) ZBins() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.final.Complete()
	return c.zbins
}

func (c *cullerImpl) TileMasks() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.final.Complete()
	return c.masks
}

func (c *cullerImpl) Uniforms() GPUClusterUniforms {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return GPUClusterUniforms{}
	}
	return c.params.uniforms()
}
