package gfx

import (
	"log"
	"testing"
)

// expectPanic fails the test if fn does not panic.
func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	fn()
}

// fakeBackend is a minimal in-memory RasterBackend recording every call so
// tests can assert on what the triangle/rectangle assemblers submit, without
// needing a real GPU or software rasterizer.
type fakeBackend struct {
	shaders     map[uint64]ShaderHandle
	nextShader  int
	textures    []TextureHandle
	drawCalls   [][]float32
	drawTris    []int
	depthTest   bool
	depthMask   bool
	depthMode   DepthMode
	blend       bool
	viewport    Viewport
	scissor     Viewport
	boundShader ShaderHandle
	sampler     [2]SamplerParams
	failCreate  bool

	lastUpload       []byte
	lastUploadWidth  int
	lastUploadHeight int
}

type fakeShaderHandle struct{ id0 uint64; id1 uint32 }
type fakeTextureHandle struct{ n int }

func newFakeBackend() *fakeBackend {
	return &fakeBackend{shaders: make(map[uint64]ShaderHandle)}
}

func (b *fakeBackend) Init(width, height int) error { return nil }

func (b *fakeBackend) LookupShader(id0 uint64, id1 uint32) (ShaderHandle, bool) {
	h, ok := b.shaders[id0^uint64(id1)<<1]
	return h, ok
}

func (b *fakeBackend) CreateShader(spec ShaderSpec) (ShaderHandle, error) {
	if b.failCreate {
		return nil, &CommandError{Operation: "create-shader", Details: "forced failure"}
	}
	h := fakeShaderHandle{id0: spec.ID0, id1: spec.ID1}
	b.shaders[spec.ID0^uint64(spec.ID1)<<1] = h
	return h, nil
}

func (b *fakeBackend) BindShader(h ShaderHandle) { b.boundShader = h }

func (b *fakeBackend) UploadTexture(rgba []byte, width, height int) (TextureHandle, error) {
	h := fakeTextureHandle{n: len(b.textures)}
	b.textures = append(b.textures, h)
	b.lastUpload = append([]byte(nil), rgba...)
	b.lastUploadWidth, b.lastUploadHeight = width, height
	return h, nil
}

func (b *fakeBackend) SelectTexture(slot int, h TextureHandle) {}
func (b *fakeBackend) SetSamplerParams(slot int, p SamplerParams) { b.sampler[slot] = p }

func (b *fakeBackend) SetDepthTest(enabled bool)          { b.depthTest = enabled }
func (b *fakeBackend) SetDepthMask(enabled bool)          { b.depthMask = enabled }
func (b *fakeBackend) SetDepthMode(mode DepthMode)        { b.depthMode = mode }
func (b *fakeBackend) SetBlend(enabled bool, src, dst BlendFactor) { b.blend = enabled }
func (b *fakeBackend) SetViewport(v Viewport)             { b.viewport = v }
func (b *fakeBackend) SetScissor(v Viewport)              { b.scissor = v }

func (b *fakeBackend) DrawTriangles(vbo []float32, floatsPerVertex, numTriangles int) {
	cp := make([]float32, len(vbo))
	copy(cp, vbo)
	b.drawCalls = append(b.drawCalls, cp)
	b.drawTris = append(b.drawTris, numTriangles)
}

func (b *fakeBackend) StartFrame()    {}
func (b *fakeBackend) EndFrame()      {}
func (b *fakeBackend) FinishRender()  {}

// fakeWindow is a fixed-size WindowAPI that never drops a frame.
type fakeWindow struct {
	width, height int
	divisor       int
	dropNext      bool
}

func newFakeWindow(w, h int) *fakeWindow { return &fakeWindow{width: w, height: h, divisor: 1} }

func (w *fakeWindow) HandleEvents()             {}
func (w *fakeWindow) Dimensions() (int, int)    { return w.width, w.height }
func (w *fakeWindow) StartFrame() bool          { return !w.dropNext }
func (w *fakeWindow) SwapBuffersBegin()         {}
func (w *fakeWindow) SwapBuffersEnd()           {}
func (w *fakeWindow) SetFrameDivisor(d int)     { w.divisor = d }

// fakeLoader resolves asset hashes from an in-memory table, standing in for
// a host's real resource manager.
type fakeLoader struct {
	vertices map[uint64][]byte
	dls      map[uint64][]uint32
	textures map[uint64][]byte
	names    map[uint64]string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		vertices: make(map[uint64][]byte),
		dls:      make(map[uint64][]uint32),
		textures: make(map[uint64][]byte),
		names:    make(map[uint64]string),
	}
}

func (l *fakeLoader) LoadVertices(hash uint64) ([]byte, bool)    { v, ok := l.vertices[hash]; return v, ok }
func (l *fakeLoader) LoadDisplayList(hash uint64) ([]uint32, bool) { v, ok := l.dls[hash]; return v, ok }
func (l *fakeLoader) LoadTexture(hash uint64) ([]byte, bool)     { v, ok := l.textures[hash]; return v, ok }
func (l *fakeLoader) NameOf(hash uint64) (string, bool)          { v, ok := l.names[hash]; return v, ok }

// newTestTranslator builds a *translator wired to fake collaborators, with a
// 320x240/4:3 viewport already latched, for package-internal unit tests that
// need to drive spXxx methods directly without going through New/Init.
func newTestTranslator() *translator {
	t := &translator{
		rsp:           newRSP(),
		backend:       newFakeBackend(),
		window:        newFakeWindow(320, 240),
		loader:        newFakeLoader(),
		combiners:     newCombinerCache(),
		textures:      newTextureCache(),
		segmentBase:   make(map[uint32][]byte),
		assetTextures: make(map[uint32][]byte),
		log:           log.Default(),
		frameDivisor:  1,
	}
	t.dimensions.width = 320
	t.dimensions.height = 240
	t.dimensions.aspect = float32(320) / float32(240)
	return t
}
