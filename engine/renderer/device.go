package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// deviceImpl is the implementation of the Device interface.
type deviceImpl struct {
	mu       *sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	forceFallbackAdapter bool
	label                string
}

// Device is a WebGPU device opened without a presentation surface. It is enough to create the
// cluster buffers and write them each frame; a windowed renderer passes its own device and queue
// to NewUploader instead.
type Device interface {
	// Device returns the underlying WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the device's queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// Release releases the queue, device, adapter and instance in that order.
	Release()
}

var _ Device = &deviceImpl{}

// NewHeadlessDevice requests an adapter and a device without a surface.
//
// Parameters:
//   - options: functional options to configure the device request
//
// Returns:
//   - Device: the opened device
//   - error: an error if no adapter or device could be obtained
func NewHeadlessDevice(options ...DeviceBuilderOption) (Device, error) {
	d := &deviceImpl{
		mu:    &sync.Mutex{},
		label: "Cluster Device",
	}
	for _, option := range options {
		option(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
	})
	if err != nil {
		d.instance.Release()
		return nil, fmt.Errorf("renderer: failed to request adapter: %w", err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		d.adapter.Release()
		d.instance.Release()
		return nil, fmt.Errorf("renderer: failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()
	return d, nil
}

func (d *deviceImpl) Device() *wgpu.Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device
}

func (d *deviceImpl) Queue() *wgpu.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue
}

func (d *deviceImpl) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
