// Package window implements gfx.WindowAPI for a headless command-list
// replay: no real window system, just the frame-count/divisor bookkeeping a
// host normally gets from its display loop. Adapted from video_interface.go's
// VideoOutput/DisplayConfig shape, trimmed to the handful of responsibilities
// the translator actually calls through WindowAPI.
package window

import (
	"sync"
	"time"
)

// Config mirrors the reference's DisplayConfig fields the translator cares
// about: the rest (VSync, Fullscreen, RefreshRate) belong to a real
// presentation layer this tool doesn't have.
type Config struct {
	Width, Height int
}

// Window is a minimal, presentation-less WindowAPI: it tracks the
// configured framebuffer size and a frame-pacing divisor (SetFrameDivisor),
// and reports every frame as deliverable unless the divisor says to skip it,
// the same frame-skip contract gfx_set_framedivisor establishes in the
// reference for running a renderer slower than its host's tick rate.
type Window struct {
	mu sync.Mutex

	cfg          Config
	divisor      int
	frameCount   uint64
	lastStart    time.Time
}

// New constructs a Window at the given fixed dimensions. rcpreplay has no
// live resize path, so dimensions never change after construction.
func New(cfg Config) *Window {
	if cfg.Width <= 0 {
		cfg.Width = 320
	}
	if cfg.Height <= 0 {
		cfg.Height = 240
	}
	return &Window{cfg: cfg, divisor: 1}
}

// HandleEvents is a no-op: a replay tool has no input/OS event queue to
// drain, unlike a real VideoOutput's platform event pump.
func (w *Window) HandleEvents() {}

// Dimensions returns the configured framebuffer size.
func (w *Window) Dimensions() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg.Width, w.cfg.Height
}

// StartFrame reports whether this frame should actually be rendered, honoring
// the frame divisor the same way gfx_run checks gfx_start_frame's return
// value before doing any RSP/RDP work.
func (w *Window) StartFrame() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frameCount++
	w.lastStart = time.Now()
	if w.divisor <= 1 {
		return true
	}
	return w.frameCount%uint64(w.divisor) == 0
}

// SwapBuffersBegin and SwapBuffersEnd bracket presentation; a headless
// replay has nothing to present, so both are no-ops kept only so WindowAPI
// callers don't need a type switch.
func (w *Window) SwapBuffersBegin() {}
func (w *Window) SwapBuffersEnd()   {}

// SetFrameDivisor mirrors gfx_set_framedivisor: only every Nth StartFrame
// call actually renders.
func (w *Window) SetFrameDivisor(divisor int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if divisor < 1 {
		divisor = 1
	}
	w.divisor = divisor
}

// FrameCount returns the number of StartFrame calls made so far, rendered or
// skipped, for a replay tool's progress reporting.
func (w *Window) FrameCount() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frameCount
}
