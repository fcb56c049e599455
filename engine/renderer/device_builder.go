package renderer

// DeviceBuilderOption is a functional option applied to a headless device during construction via NewHeadlessDevice.
type DeviceBuilderOption func(*deviceImpl)

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the force software renderer option to a device
func WithForceSoftwareRenderer(force bool) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.forceFallbackAdapter = force
	}
}

// WithDeviceLabel sets the debug label of the requested device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - DeviceBuilderOption: a function that sets the device label
func WithDeviceLabel(label string) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.label = label
	}
}
