package nav

import (
	"sync"
)

// ScreenViewport is a mutable Viewport tracking the client drawing surface
// size in pixels.
type ScreenViewport struct {
	mu     sync.RWMutex
	width  float64
	height float64
}

// NewScreenViewport creates a viewport with the given initial size.
func NewScreenViewport(width, height float64) *ScreenViewport {
	return &ScreenViewport{width: width, height: height}
}

// ViewDimensions returns the current size.
func (v *ScreenViewport) ViewDimensions() (float64, float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// SetDimensions updates the size. Non-positive dimensions are ignored.
func (v *ScreenViewport) SetDimensions(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	v.mu.Lock()
	v.width = width
	v.height = height
	v.mu.Unlock()
}
