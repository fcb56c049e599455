package renderer

import "github.com/cogentcore/webgpu/wgpu"

// UploaderBuilderOption is a functional option applied to an uploader during construction via NewUploader.
type UploaderBuilderOption func(*uploaderImpl)

// WithLabel sets the debug label prefix of the uploader's GPU resources.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - UploaderBuilderOption: a function that sets the label
func WithLabel(label string) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.label = label
	}
}

// WithVisibility sets the shader stages the cluster bind group is visible to.
// Defaults to fragment and compute.
//
// Parameters:
//   - visibility: the shader stage flags
//
// Returns:
//   - UploaderBuilderOption: a function that sets the visibility
func WithVisibility(visibility wgpu.ShaderStage) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.visibility = visibility
	}
}

// WithMaxZBinWords sets the size of the Z-bin buffer in 32-bit words. Must match the culler's
// cluster.WithMaxZBinWords.
//
// Parameters:
//   - words: the buffer size in words
//
// Returns:
//   - UploaderBuilderOption: a function that sets the Z-bin buffer size
func WithMaxZBinWords(words int) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.maxZBinWords = words
	}
}

// WithMaxTileWords sets the size of the tile mask buffer in 32-bit words. Must match the
// culler's cluster.WithMaxTileWords.
//
// Parameters:
//   - words: the buffer size in words
//
// Returns:
//   - UploaderBuilderOption: a function that sets the tile mask buffer size
func WithMaxTileWords(words int) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.maxTileWords = words
	}
}
