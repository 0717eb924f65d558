// Package headless implements gfx.RasterBackend as a pure-Go software
// rasterizer, adapted from the Voodoo software fallback: the same
// edge-function barycentric rasterizer and depth/blend state machine,
// repointed at arbitrary combiner-resolved vertex colors instead of a fixed
// Voodoo color path. It needs no GPU and is the backend rcpreplay uses.
package headless

import (
	"math"
	"sync"

	"github.com/zotley/rcp64gfx"
)

type texture struct {
	pixels        []byte // RGBA8
	width, height int
}

type shaderProgram struct {
	spec gfx.ShaderSpec
}

// Backend rasterizes triangles into an in-memory RGBA8 framebuffer. Safe for
// one goroutine at a time, matching the translator's single-threaded
// contract; the mutex exists only so ReadPixels can be called concurrently
// with a render in progress (e.g. from a test goroutine polling frames).
type Backend struct {
	mu sync.RWMutex

	width, height int
	color         []byte
	depth         []float32

	depthTest, depthMask bool
	depthMode            gfx.DepthMode
	blend                bool
	srcBlend, dstBlend   gfx.BlendFactor
	viewport, scissor    gfx.Viewport

	textures map[int]*texture
	samplers map[int]gfx.SamplerParams
	shaders  map[uint64]*shaderProgram
	bound    *shaderProgram

	nextTextureID int
}

// New constructs a Backend. Init must be called before use.
func New() *Backend {
	return &Backend{
		textures: make(map[int]*texture),
		samplers: make(map[int]gfx.SamplerParams),
		shaders:  make(map[uint64]*shaderProgram),
	}
}

func (b *Backend) Init(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	b.color = make([]byte, width*height*4)
	b.depth = make([]float32, width*height)
	for i := range b.depth {
		b.depth[i] = math.MaxFloat32
	}
	b.viewport = gfx.Viewport{X: 0, Y: 0, Width: width, Height: height}
	b.scissor = b.viewport
	return nil
}

func (b *Backend) LookupShader(id0 uint64, id1 uint32) (gfx.ShaderHandle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.shaders[id0^uint64(id1)<<1]
	if !ok {
		return nil, false
	}
	return s, true
}

func (b *Backend) CreateShader(spec gfx.ShaderSpec) (gfx.ShaderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &shaderProgram{spec: spec}
	b.shaders[spec.ID0^uint64(spec.ID1)<<1] = s
	return s, nil
}

func (b *Backend) BindShader(h gfx.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = h.(*shaderProgram)
}

func (b *Backend) UploadTexture(rgba []byte, width, height int) (gfx.TextureHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextTextureID
	b.nextTextureID++
	px := make([]byte, len(rgba))
	copy(px, rgba)
	b.textures[id] = &texture{pixels: px, width: width, height: height}
	return id, nil
}

func (b *Backend) SelectTexture(slot int, h gfx.TextureHandle) {
	// Slot selection is not tracked: DrawTriangles samples whichever
	// uploaded texture the textures map yields first.
	_ = slot
	_ = h
}

func (b *Backend) SetSamplerParams(slot int, p gfx.SamplerParams) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samplers[slot] = p
}

func (b *Backend) SetDepthTest(enabled bool)  { b.mu.Lock(); b.depthTest = enabled; b.mu.Unlock() }
func (b *Backend) SetDepthMask(enabled bool)  { b.mu.Lock(); b.depthMask = enabled; b.mu.Unlock() }
func (b *Backend) SetDepthMode(m gfx.DepthMode) { b.mu.Lock(); b.depthMode = m; b.mu.Unlock() }
func (b *Backend) SetBlend(enabled bool, src, dst gfx.BlendFactor) {
	b.mu.Lock()
	b.blend, b.srcBlend, b.dstBlend = enabled, src, dst
	b.mu.Unlock()
}
func (b *Backend) SetViewport(v gfx.Viewport) { b.mu.Lock(); b.viewport = v; b.mu.Unlock() }
func (b *Backend) SetScissor(v gfx.Viewport)  { b.mu.Lock(); b.scissor = v; b.mu.Unlock() }

func depthPasses(new, old float32, mode gfx.DepthMode) bool {
	if mode == gfx.DepthDecal {
		return new <= old
	}
	return new < old
}

func blendFactorValue(f gfx.BlendFactor, srcA, dstA float32) float32 {
	switch f {
	case gfx.BlendZero:
		return 0
	case gfx.BlendOne:
		return 1
	case gfx.BlendSrcAlpha:
		return srcA
	case gfx.BlendOneMinusSrcAlpha:
		return 1 - srcA
	default:
		_ = dstA
		return 1
	}
}

func edgeFunction(ax, ay, bx, by, cx, cy float32) float32 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type rasterVertex struct {
	x, y, z    float32
	u, v       float32
	r, g, b, a float32
}

// DrawTriangles rasterizes numTriangles from vbo, a flat array of
// floatsPerVertex-float records per vertex, through rasterizeTriangle's
// edge-function approach. Records are stepped by floatsPerVertex, but each
// one is read at fixed offsets: x,y,z at 0-2, u,v at 4-5 and r,g,b,a at 6-9.
// The translator's own records only have that layout for a combiner with one
// texture, one color input and alpha, and no fog or clamp coordinates.
func (b *Backend) DrawTriangles(vbo []float32, floatsPerVertex, numTriangles int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if floatsPerVertex == 0 {
		return
	}
	var tex *texture
	for _, t := range b.textures {
		tex = t
		break
	}
	linear := b.samplers[0].LinearFilter

	for tri := 0; tri < numTriangles; tri++ {
		base := tri * 3 * floatsPerVertex
		if base+3*floatsPerVertex > len(vbo) {
			return
		}
		verts := [3]rasterVertex{}
		for i := 0; i < 3; i++ {
			off := base + i*floatsPerVertex
			verts[i] = rasterVertex{
				x: vbo[off+0], y: vbo[off+1], z: vbo[off+2],
				u: vbo[off+4], v: vbo[off+5],
				r: vbo[off+6], g: vbo[off+7], b: vbo[off+8], a: vbo[off+9],
			}
		}
		b.rasterizeTriangle(&verts[0], &verts[1], &verts[2], tex, linear)
	}
}

func (b *Backend) rasterizeTriangle(v0, v1, v2 *rasterVertex, tex *texture, linear bool) {
	minX := int(math.Floor(float64(min3(v0.x, v1.x, v2.x))))
	maxX := int(math.Ceil(float64(max3(v0.x, v1.x, v2.x))))
	minY := int(math.Floor(float64(min3(v0.y, v1.y, v2.y))))
	maxY := int(math.Ceil(float64(max3(v0.y, v1.y, v2.y))))

	if minX < b.scissor.X {
		minX = b.scissor.X
	}
	if minY < b.scissor.Y {
		minY = b.scissor.Y
	}
	if sx := b.scissor.X + b.scissor.Width; maxX > sx {
		maxX = sx
	}
	if sy := b.scissor.Y + b.scissor.Height; maxY > sy {
		maxY = sy
	}
	if maxX > b.width {
		maxX = b.width
	}
	if maxY > b.height {
		maxY = b.height
	}

	area := edgeFunction(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}
	if area < 0 {
		v0, v2 = v2, v0
		area = -area
	}
	invArea := 1 / area

	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		row := y * b.width
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			w0 := edgeFunction(v1.x, v1.y, v2.x, v2.y, px, py)
			w1 := edgeFunction(v2.x, v2.y, v0.x, v0.y, px, py)
			w2 := edgeFunction(v0.x, v0.y, v1.x, v1.y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			w0 *= invArea
			w1 *= invArea
			w2 *= invArea

			z := w0*v0.z + w1*v1.z + w2*v2.z
			idx := row + x
			if b.depthTest {
				if !depthPasses(z, b.depth[idx], b.depthMode) {
					continue
				}
			}

			r := w0*v0.r + w1*v1.r + w2*v2.r
			g := w0*v0.g + w1*v1.g + w2*v2.g
			bl := w0*v0.b + w1*v1.b + w2*v2.b
			a := w0*v0.a + w1*v1.a + w2*v2.a

			if tex != nil {
				u := w0*v0.u + w1*v1.u + w2*v2.u
				vv := w0*v0.v + w1*v1.v + w2*v2.v
				tr, tg, tb, ta := b.sampleTexture(tex, u, vv, linear)
				r *= tr
				g *= tg
				bl *= tb
				a *= ta
			}

			r, g, bl, a = clampf(r, 0, 1), clampf(g, 0, 1), clampf(bl, 0, 1), clampf(a, 0, 1)

			if b.blend {
				pi := idx * 4
				dr := float32(b.color[pi]) / 255
				dg := float32(b.color[pi+1]) / 255
				db := float32(b.color[pi+2]) / 255
				sf := blendFactorValue(b.srcBlend, a, 0)
				df := blendFactorValue(b.dstBlend, a, 0)
				r = r*sf + dr*df
				g = g*sf + dg*df
				bl = bl*sf + db*df
			}

			if b.depthTest && b.depthMask {
				b.depth[idx] = z
			}
			pi := idx * 4
			b.color[pi] = byte(clampf(r, 0, 1)*255 + 0.5)
			b.color[pi+1] = byte(clampf(g, 0, 1)*255 + 0.5)
			b.color[pi+2] = byte(clampf(bl, 0, 1)*255 + 0.5)
			b.color[pi+3] = byte(clampf(a, 0, 1)*255 + 0.5)
		}
	}
}

func (b *Backend) sampleTexture(tex *texture, u, v float32, linear bool) (r, g, bl, a float32) {
	if tex.width == 0 || tex.height == 0 {
		return 1, 1, 1, 1
	}
	u -= float32(math.Floor(float64(u)))
	v -= float32(math.Floor(float64(v)))
	fx := u * float32(tex.width)
	fy := v * float32(tex.height)
	x := int(fx)
	y := int(fy)
	if x >= tex.width {
		x = tex.width - 1
	}
	if y >= tex.height {
		y = tex.height - 1
	}
	idx := (y*tex.width + x) * 4
	if idx+3 >= len(tex.pixels) {
		return 1, 1, 1, 1
	}
	_ = linear // bilinear filtering is left for a future pass; point-sampling only
	return float32(tex.pixels[idx]) / 255, float32(tex.pixels[idx+1]) / 255,
		float32(tex.pixels[idx+2]) / 255, float32(tex.pixels[idx+3]) / 255
}

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func (b *Backend) StartFrame()    {}
func (b *Backend) EndFrame()      {}
func (b *Backend) FinishRender()  {}

// ReadPixels returns the current RGBA8 color buffer, the headless analogue
// of GetFrame.
func (b *Backend) ReadPixels() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.color))
	copy(out, b.color)
	return out
}

// Clear resets the color and depth buffers, the headless analogue of
// ClearFramebuffer.
func (b *Backend) Clear(r, g, bl, a byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < len(b.color); i += 4 {
		b.color[i], b.color[i+1], b.color[i+2], b.color[i+3] = r, g, bl, a
	}
	for i := range b.depth {
		b.depth[i] = math.MaxFloat32
	}
}

var _ gfx.RasterBackend = (*Backend)(nil)
