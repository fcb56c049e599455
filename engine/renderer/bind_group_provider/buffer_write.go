package bind_group_provider

import "fmt"

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Validate checks that the write targets a registered buffer and fits inside it.
//
// Returns:
//   - error: an error if the binding has no buffer or the write overflows it
func (w BufferWrite) Validate() error {
	if w.Provider == nil {
		return fmt.Errorf("bind group provider: write to binding %d has no provider", w.Binding)
	}
	if w.Provider.Buffer(w.Binding) == nil {
		return fmt.Errorf("bind group provider: %s has no buffer at binding %d", w.Provider.Label(), w.Binding)
	}
	size := w.Provider.BufferSize(w.Binding)
	if w.Offset > size || uint64(len(w.Data)) > size-w.Offset {
		return fmt.Errorf("bind group provider: write of %d bytes at offset %d overflows %s binding %d (%d bytes)",
			len(w.Data), w.Offset, w.Provider.Label(), w.Binding, size)
	}
	if w.Offset%4 != 0 || len(w.Data)%4 != 0 {
		return fmt.Errorf("bind group provider: write to %s binding %d is not 4-byte aligned", w.Provider.Label(), w.Binding)
	}
	return nil
}
