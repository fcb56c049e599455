package cluster

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/jobs"
	"github.com/Carmen-Shannon/oxy-cluster/engine/profiler"
)

// Default budgets of a Culler.
const (
	DefaultMaxZBinWords = 4096
	DefaultMaxTileWords = 16384
	DefaultMaxLights    = 256
	DefaultMaxProbes    = 64
	DefaultMaxItems     = DefaultMaxLights + DefaultMaxProbes
	DefaultMinTileWidth = 8
)

// config holds the construction-time settings of a Culler.
type config struct {
	maxZBinWords     int
	maxTileWords     int
	maxItems         int
	minTileWidth     int
	workers          int
	scheduler        jobs.Scheduler
	profiler         *profiler.Profiler
	frustumRejection bool
}

func defaultConfig() config {
	return config{
		maxZBinWords:     DefaultMaxZBinWords,
		maxTileWords:     DefaultMaxTileWords,
		maxItems:         DefaultMaxItems,
		minTileWidth:     DefaultMinTileWidth,
		frustumRejection: true,
	}
}

// validate checks that the budgets can hold at least one tile and one bin for maxItems items.
func (c *config) validate() error {
	var errs []error
	if c.maxItems < 1 || c.maxItems > 0xFFFF {
		errs = append(errs, fmt.Errorf("max items %d out of range [1, 65535]", c.maxItems))
	}
	wpt := max(common.WordsFor(c.maxItems), 1)
	if c.maxTileWords < wpt {
		errs = append(errs, fmt.Errorf("max tile words %d cannot hold one tile of %d words", c.maxTileWords, wpt))
	}
	if c.maxZBinWords < ZBinHeaderWords+wpt {
		errs = append(errs, fmt.Errorf("max zbin words %d cannot hold one bin of %d words", c.maxZBinWords, ZBinHeaderWords+wpt))
	}
	if c.minTileWidth < 1 {
		errs = append(errs, fmt.Errorf("min tile width %d must be positive", c.minTileWidth))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("cluster: invalid config: %w", err)
	}
	return nil
}

// CullerBuilderOption is a function that configures a Culler during construction.
type CullerBuilderOption func(*config)

// WithMaxZBinWords sets the size, in 32-bit words, of the Z-bin buffer.
//
// Parameters:
//   - words: the Z-bin buffer budget
//
// Returns:
//   - CullerBuilderOption: a function that sets the Z-bin budget
func WithMaxZBinWords(words int) CullerBuilderOption {
	return func(c *config) {
		c.maxZBinWords = words
	}
}

// WithMaxTileWords sets the size, in 32-bit words, of the tile mask buffer.
//
// Parameters:
//   - words: the tile mask buffer budget
//
// Returns:
//   - CullerBuilderOption: a function that sets the tile mask budget
func WithMaxTileWords(words int) CullerBuilderOption {
	return func(c *config) {
		c.maxTileWords = words
	}
}

// WithMaxItems sets the maximum number of lights plus probes culled per frame. Items beyond the
// limit are dropped, probes first.
//
// Parameters:
//   - n: the item limit, at most 65535
//
// Returns:
//   - CullerBuilderOption: a function that sets the item limit
func WithMaxItems(n int) CullerBuilderOption {
	return func(c *config) {
		c.maxItems = n
	}
}

// WithMinTileWidth sets the smallest tile width, in pixels, the culler tries before doubling.
//
// Parameters:
//   - width: the starting tile width
//
// Returns:
//   - CullerBuilderOption: a function that sets the minimum tile width
func WithMinTileWidth(width int) CullerBuilderOption {
	return func(c *config) {
		c.minTileWidth = width
	}
}

// WithWorkers sets the worker count of the scheduler the culler creates. Ignored when a
// scheduler is supplied with WithScheduler.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - CullerBuilderOption: a function that sets the worker count
func WithWorkers(n int) CullerBuilderOption {
	return func(c *config) {
		c.workers = n
	}
}

// WithScheduler makes the culler run its stages on a shared scheduler.
//
// Parameters:
//   - s: the scheduler
//
// Returns:
//   - CullerBuilderOption: a function that sets the scheduler
func WithScheduler(s jobs.Scheduler) CullerBuilderOption {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithProfiler records the duration of every stage into p.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - CullerBuilderOption: a function that sets the profiler
func WithProfiler(p *profiler.Profiler) CullerBuilderOption {
	return func(c *config) {
		c.profiler = p
	}
}

// WithFrustumRejection toggles the camera frustum test that skips items outside the view.
//
// Parameters:
//   - enabled: whether items are tested against the frustum
//
// Returns:
//   - CullerBuilderOption: a function that sets frustum rejection
func WithFrustumRejection(enabled bool) CullerBuilderOption {
	return func(c *config) {
		c.frustumRejection = enabled
	}
}
