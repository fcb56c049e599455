package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// bufferWriter is the part of *wgpu.Queue the uploader writes through.
type bufferWriter interface {
	WriteBuffer(buffer *wgpu.Buffer, bufferOffset uint64, data []byte) error
}

// bufferDesc describes one of the cluster buffers.
type bufferDesc struct {
	binding cluster.Binding
	size    uint64
	usage   wgpu.BufferUsage
	kind    wgpu.BufferBindingType
}

// uploaderImpl is the implementation of the Uploader interface.
type uploaderImpl struct {
	mu       *sync.Mutex
	queue    bufferWriter
	provider bind_group_provider.BindGroupProvider
	staged   []bind_group_provider.BufferWrite
	released bool

	label        string
	visibility   wgpu.ShaderStage
	maxZBinWords int
	maxTileWords int
}

// Uploader owns the GPU buffers a forward+ shader reads the culling results from and implements
// cluster.OutputSink, so a Culler can write into them directly. The buffers are created once at
// their full budget and bound as one bind group:
//
//	@binding(0) zbins:      storage, read
//	@binding(1) tile masks: storage, read
//	@binding(2) uniforms:   uniform
type Uploader interface {
	cluster.OutputSink

	// BindGroup returns the bind group holding the three cluster buffers.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout of the cluster bind group, for pipeline layouts.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout
	BindGroupLayout() *wgpu.BindGroupLayout

	// Provider returns the bind group provider that owns the buffers.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	Provider() bind_group_provider.BindGroupProvider

	// Release releases the buffers, the bind group and its layout.
	Release()
}

var _ Uploader = &uploaderImpl{}

// NewUploader creates the cluster buffers, their layout and the bind group on device. The
// budgets must match the ones the culler was created with.
//
// Parameters:
//   - device: the device to create the resources on
//   - queue: the queue the buffers are written through
//   - options: functional options to configure the uploader
//
// Returns:
//   - Uploader: the newly created uploader
//   - error: an error if a resource could not be created
func NewUploader(device *wgpu.Device, queue *wgpu.Queue, options ...UploaderBuilderOption) (Uploader, error) {
	if device == nil || queue == nil {
		return nil, errors.New("renderer: NewUploader requires a device and a queue")
	}
	u := newUploader(queue, options...)

	layoutDesc := ClusterBindGroupLayout(u.label, u.visibility)
	layout, err := device.CreateBindGroupLayout(&layoutDesc)
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to create cluster bind group layout: %w", err)
	}
	u.provider.SetBindGroupLayout(layout)

	descs := clusterBuffers(u.maxZBinWords, u.maxTileWords)
	entries := make([]wgpu.BindGroupEntry, len(descs))
	for i, desc := range descs {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("%s %s Buffer", u.label, desc.binding),
			Size:             desc.size,
			Usage:            desc.usage,
			MappedAtCreation: false,
		})
		if err != nil {
			u.provider.Release()
			return nil, fmt.Errorf("renderer: failed to create %s buffer: %w", desc.binding, err)
		}
		u.provider.SetBuffer(int(desc.binding), buf, desc.size)
		entries[i] = wgpu.BindGroupEntry{
			Binding: uint32(desc.binding),
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   u.label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		u.provider.Release()
		return nil, fmt.Errorf("renderer: failed to create cluster bind group: %w", err)
	}
	u.provider.SetBindGroup(bindGroup)
	return u, nil
}

// newUploader applies the options and creates the provider without touching the device.
func newUploader(queue bufferWriter, options ...UploaderBuilderOption) *uploaderImpl {
	u := &uploaderImpl{
		mu:           &sync.Mutex{},
		queue:        queue,
		label:        "Cluster",
		visibility:   wgpu.ShaderStageFragment | wgpu.ShaderStageCompute,
		maxZBinWords: cluster.DefaultMaxZBinWords,
		maxTileWords: cluster.DefaultMaxTileWords,
	}
	for _, option := range options {
		option(u)
	}
	u.provider = bind_group_provider.NewBindGroupProvider(u.label)
	u.staged = make([]bind_group_provider.BufferWrite, 0, 3)
	return u
}

// clusterBuffers returns the three cluster buffers in binding order.
func clusterBuffers(maxZBinWords, maxTileWords int) []bufferDesc {
	return []bufferDesc{
		{
			binding: cluster.BindingZBins,
			size:    uint64(maxZBinWords) * 4,
			usage:   wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			kind:    wgpu.BufferBindingTypeReadOnlyStorage,
		},
		{
			binding: cluster.BindingTileMasks,
			size:    uint64(maxTileWords) * 4,
			usage:   wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			kind:    wgpu.BufferBindingTypeReadOnlyStorage,
		},
		{
			binding: cluster.BindingUniforms,
			size:    uint64(new(cluster.GPUClusterUniforms).Size()),
			usage:   wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			kind:    wgpu.BufferBindingTypeUniform,
		},
	}
}

// ClusterBindGroupLayout describes the cluster bind group: two read-only storage buffers and one
// uniform buffer.
//
// Parameters:
//   - label: debug label prefix
//   - visibility: the shader stages that read the cluster data
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
func ClusterBindGroupLayout(label string, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutDescriptor {
	descs := clusterBuffers(cluster.DefaultMaxZBinWords, cluster.DefaultMaxTileWords)
	entries := make([]wgpu.BindGroupLayoutEntry, len(descs))
	for i, desc := range descs {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(desc.binding),
			Visibility: visibility,
		}
		entries[i].Buffer.Type = desc.kind
	}
	return wgpu.BindGroupLayoutDescriptor{
		Label:   label + " Bind Group Layout",
		Entries: entries,
	}
}

func (u *uploaderImpl) WriteBuffers(writes []cluster.BufferWrite) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.released {
		return errors.New("renderer: uploader is released")
	}

	u.staged = u.staged[:0]
	for _, w := range writes {
		if len(w.Data) == 0 {
			continue
		}
		bw := bind_group_provider.BufferWrite{
			Provider: u.provider,
			Binding:  int(w.Binding),
			Offset:   w.Offset,
			Data:     w.Data,
		}
		if err := bw.Validate(); err != nil {
			return fmt.Errorf("renderer: rejected %s write: %w", w.Binding, err)
		}
		u.staged = append(u.staged, bw)
	}

	for _, bw := range u.staged {
		if err := u.queue.WriteBuffer(u.provider.Buffer(bw.Binding), bw.Offset, bw.Data); err != nil {
			return fmt.Errorf("renderer: failed to write %s: %w", cluster.Binding(bw.Binding), err)
		}
	}
	clear(u.staged)
	return nil
}

func (u *uploaderImpl) BindGroup() *wgpu.BindGroup {
	return u.provider.BindGroup()
}

func (u *uploaderImpl) BindGroupLayout() *wgpu.BindGroupLayout {
	return u.provider.BindGroupLayout()
}

func (u *uploaderImpl) Provider() bind_group_provider.BindGroupProvider {
	return u.provider
}

func (u *uploaderImpl) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.released {
		return
	}
	u.released = true
	u.provider.Release()
}
