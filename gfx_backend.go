// gfx_backend.go - external capability interfaces the translator is driven through

package gfx

import "fmt"

// CommandError carries context for a fatal-in-origin condition: the command
// stream asked for something the translator understands but refuses to
// perform (an unsupported texture format/size combination outside the
// documented RGBA carve-out). It is returned from Run, never panicked.
type CommandError struct {
	Operation string
	Details   string
	Err       error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gfx %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("gfx %s failed: %s", e.Operation, e.Details)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ShaderHandle identifies a compiled shader program owned by a RasterBackend.
type ShaderHandle interface{}

// TextureHandle identifies a texture object owned by a RasterBackend.
type TextureHandle interface{}

// DepthMode selects the z-buffer comparison/update policy for subsequent
// draws, mirroring the reference's zmode values (opaque/interpenetrating
// /translucent/decal).
type DepthMode int

const (
	DepthOpaque DepthMode = iota
	DepthInterpenetrating
	DepthTranslucent
	DepthDecal
)

// BlendFactor mirrors the small set of RDP blend factors the translator can
// resolve a rendering state to.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// Viewport is a pixel-space rectangle, used for both viewport and scissor.
type Viewport struct {
	X, Y, Width, Height int
}

// SamplerParams describes how a tile's texture should be sampled.
type SamplerParams struct {
	ClampS, ClampT   bool
	MirrorS, MirrorT bool
	LinearFilter     bool
}

// ShaderInput describes one of the up to 7 canonical input slots a compiled
// combiner formula reads, resolved from the per-vertex/per-draw state it is
// sourced from (primitive color, environment color, shade, texel0, texel1,
// LOD fraction, 1 - LOD fraction).
type ShaderInput int

const (
	InputPrimitive ShaderInput = iota
	InputEnvironment
	InputShade
	InputTexel0
	InputTexel1
	InputLODFraction
	InputOneMinusLODFraction
)

// ShaderSpec is the fully-resolved description of one compiled combiner
// variant, handed to a backend so it can build or look up a pipeline.
type ShaderSpec struct {
	ID0           uint64
	ID1           uint32
	NumInputs     [2]int // RGB / alpha input count, 0-7
	Inputs        [2][7]ShaderInput
	UsedTextures  [2]bool
	UsesFog       bool
	UsesNoise     bool
	UsesTexEdge   bool
	TwoCycle      bool
}

// RasterBackend is the capability a host application implements to turn
// translated draw calls into real GPU work. It intentionally mirrors the
// shape of the reference GfxRenderingAPI: a handful of setters that change
// pipeline state plus a single batched draw call.
type RasterBackend interface {
	Init(width, height int) error

	LookupShader(id0 uint64, id1 uint32) (ShaderHandle, bool)
	CreateShader(spec ShaderSpec) (ShaderHandle, error)
	BindShader(h ShaderHandle)

	UploadTexture(rgba []byte, width, height int) (TextureHandle, error)
	SelectTexture(slot int, h TextureHandle)
	SetSamplerParams(slot int, p SamplerParams)

	SetDepthTest(enabled bool)
	SetDepthMask(enabled bool)
	SetDepthMode(mode DepthMode)
	SetBlend(enabled bool, src, dst BlendFactor)
	SetViewport(v Viewport)
	SetScissor(v Viewport)

	DrawTriangles(vbo []float32, floatsPerVertex, numTriangles int)

	StartFrame()
	EndFrame()
	FinishRender()
}

// WindowAPI is the capability the host application implements for frame
// bracketing and presentation; the translator never owns a window.
type WindowAPI interface {
	HandleEvents()
	Dimensions() (width, height int)
	StartFrame() bool
	SwapBuffersBegin()
	SwapBuffersEnd()
	SetFrameDivisor(divisor int)
}

// AssetLoader resolves the asset-hash command family (vertex buffers,
// sub-display-lists, textures and branch-on-z targets referenced by 64-bit
// content hash rather than a segmented pointer). A miss is not an error: the
// command becomes a no-op and is logged.
type AssetLoader interface {
	LoadVertices(hash uint64) ([]byte, bool)
	LoadDisplayList(hash uint64) ([]uint32, bool)
	LoadTexture(hash uint64) ([]byte, bool)
	NameOf(hash uint64) (string, bool)
}
