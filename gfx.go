// gfx.go - top-level Translator lifecycle: Init/StartFrame/Run/EndFrame

package gfx

import "log"

// Option configures a Translator at construction time.
type Option func(*translator)

// WithABI selects the RSP microcode bitfield layout commands are decoded
// with. Defaults to the dense F3DEX2 packing.
func WithABI(abi abiVariant) Option {
	return func(t *translator) { t.abi = abi }
}

// ABIF3DEX2 selects the dense, modern F3DEX2 bitfield packing (the default).
const ABIF3DEX2 abiVariant = abiF3DEX2

// ABIF3DEX1 selects the wider, legacy F3DEX/F3DLP bitfield packing.
const ABIF3DEX1 abiVariant = abiF3DEX1

// WithMarkerFunc installs a hook invoked for every G_MARKER command whose
// asset hash resolves to a name, letting a host attach debug tooling
// (frame captures, overlay labels) without the translator depending on it.
func WithMarkerFunc(f func(name string, w0, w1 uint32)) Option {
	return func(t *translator) { t.markerFunc = f }
}

// WithLogger overrides the destination for soft-failure diagnostics.
// Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(t *translator) { t.log = l }
}

// Translator interprets Fast3D-style command lists against a RasterBackend,
// translating the fixed-function RCP pipeline into modern batched draw
// calls. One Translator owns one independent interpreter state; nothing is
// package-global, so a process can run several concurrently as long as
// each is only ever driven from one goroutine at a time.
type Translator struct {
	t *translator
}

// New constructs a Translator bound to the given capability interfaces. No
// command list has been run and no frame is open until StartFrame/Run are
// called.
func New(backend RasterBackend, window WindowAPI, loader AssetLoader, opts ...Option) *Translator {
	t := &translator{
		rsp:           newRSP(),
		backend:       backend,
		window:        window,
		loader:        loader,
		combiners:     newCombinerCache(),
		textures:      newTextureCache(),
		segmentBase:   make(map[uint32][]byte),
		assetTextures: make(map[uint32][]byte),
		log:           log.Default(),
		frameDivisor:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return &Translator{t: t}
}

// precompiledShaders lists combiner formulas worth warming up eagerly at
// Init time so the first frame that exercises them doesn't stall on shader
// compilation. Values are 56-bit combine-mode keys observed across a broad
// sample of display lists; a backend failure on any of them is logged and
// skipped, never returned as an error.
var precompiledShaders = []uint64{
	0x01200200, 0x00000045, 0x00000200, 0x01200a00, 0x00000a00,
	0x01a00045, 0x00000551, 0x01045045, 0x05a00a00, 0x01200045,
	0x05045045, 0x01045a00, 0x01a00a00, 0x0000038d, 0x01081081,
	0x0120038d, 0x03200045, 0x03200a00, 0x01a00a6f, 0x01141045,
	0x07a00a00, 0x05200200, 0x03200200, 0x09200200, 0x0920038d,
	0x09200045,
}

// Init sets up the backend and window, and warms up every shader variant in
// precompiledShaders; it takes no caller-supplied list. Both collaborators must already be
// constructed; Init only performs one-time setup work on them.
func (tr *Translator) Init(width, height int) error {
	if err := tr.t.backend.Init(width, height); err != nil {
		return &CommandError{Operation: "init", Details: "backend init failed", Err: err}
	}
	for i := range tr.t.segments {
		tr.t.segments[i] = 0
	}
	for _, ccID := range precompiledShaders {
		e := tr.t.combiners.lookupOrCreate(ccID)
		if _, err := tr.t.lookupOrCreateShaderProgram(e, 0); err != nil {
			tr.t.logf("precompiled shader warm-up skipped for 0x%016x: %v", ccID, err)
		}
	}
	return nil
}

// SetSegment registers the backing buffer a segment number resolves to.
// Hosts call this once per display list (or once globally for static
// segments) before Run.
func (tr *Translator) SetSegment(segment uint32, data []byte) {
	tr.t.segmentBase[segment] = data
}

// StartFrame polls the window for events and latches the current
// framebuffer dimensions, the Go analogue of gfx_start_frame. It must be
// called once before each Run.
func (tr *Translator) StartFrame() {
	tr.t.window.HandleEvents()
	w, h := tr.t.window.Dimensions()
	if h == 0 {
		h = 1
	}
	tr.t.dimensions.width = w
	tr.t.dimensions.height = h
	tr.t.dimensions.aspect = float32(w) / float32(h)
}

// Run interprets one display list start-to-finish: resets per-frame RSP
// state, opens the backend frame, walks the command stream, flushes any
// trailing buffered triangles, and closes the backend frame. It is the Go
// analogue of gfx_run. A non-nil error means the command stream asked for
// something genuinely unsupported; partial work already submitted to the
// backend is not rolled back.
func (tr *Translator) Run(dl []uint32) *CommandError {
	t := tr.t
	t.rsp.modelViewStackSize = 1
	t.rsp.currentNumLights = 2
	t.rsp.lightsChanged = true

	if !t.window.StartFrame() {
		t.droppedFrame = true
		return nil
	}
	t.droppedFrame = false

	t.backend.StartFrame()
	err := t.runDL(displayList(dl))
	t.flush()
	t.backend.EndFrame()
	t.window.SwapBuffersBegin()
	return err
}

// EndFrame finalizes rendering and presents, the Go analogue of
// gfx_end_frame. Skipped entirely if the preceding Run dropped its frame.
func (tr *Translator) EndFrame() {
	if tr.t.droppedFrame {
		return
	}
	tr.t.backend.FinishRender()
	tr.t.window.SwapBuffersEnd()
}

// GetDimensions returns the framebuffer size latched by the most recent
// StartFrame.
func (tr *Translator) GetDimensions() (width, height int) {
	return tr.t.dimensions.width, tr.t.dimensions.height
}

// SetFrameDivisor forwards a frame-pacing divisor to the window, e.g. to
// run the renderer at half the display's refresh rate.
func (tr *Translator) SetFrameDivisor(divisor int) {
	tr.t.frameDivisor = divisor
	tr.t.window.SetFrameDivisor(divisor)
}

// CurrentRenderingBackend returns the RasterBackend this Translator was
// constructed with, mirroring gfx_get_current_rendering_api.
func (tr *Translator) CurrentRenderingBackend() RasterBackend {
	return tr.t.backend
}

// InvalidateTexture evicts a single cached texture by its load address, the
// Go analogue of gfx_texture_cache_delete, for hosts that patch textures in
// place rather than relying on G_INVALTEXCACHE.
func (tr *Translator) InvalidateTexture(addr uint32) {
	tr.t.textures.invalidate(addr)
}
