// gfx_types.go - RSP/RDP state, vertex and rendering-state data model

package gfx

import "log"

type mat4 [4][4]float32

func identity4() mat4 {
	var m mat4
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

// vertex is one RSP-transformed vertex, the Go analogue of LoadedVertex.
type vertex struct {
	X, Y, Z, W float32
	U, V       float32
	R, G, B, A uint8
	ClipRej    uint8
}

// light mirrors the reference Light_t: a directional color + direction plus
// shared ambient-light storage at index 0.
type light struct {
	Col   [3]uint8
	ColorCopy [3]uint8
	Dir   [3]int8
}

type rsp struct {
	modelViewStack     [maxModelViewStack]mat4
	modelViewStackSize int

	mpMatrix mat4
	pMatrix  mat4

	lookat            [2]light
	currentLights     [maxLights]light
	lightCoeffs       [maxLights - 1][3]float32
	lookatCoeffs      [2][3]float32
	currentNumLights  int
	lightsChanged     bool

	geometryMode uint32
	fogMul, fogOffset int16

	texScaleS, texScaleT uint16 // U0.16

	loadedVertices [maxVtxSlots]vertex
}

const maxVtxSlots = 64 + 4

func newRSP() *rsp {
	r := &rsp{}
	r.modelViewStack[0] = identity4()
	r.modelViewStackSize = 1
	r.pMatrix = identity4()
	r.mpMatrix = identity4()
	r.currentNumLights = 2
	r.lightsChanged = true
	return r
}

type textureLoad struct {
	addr uint32
	siz  uint8
	width uint32
}

type loadedTexture struct {
	addr                   uint32
	sizeBytes              uint32
	fullImageLineSizeBytes uint32
	lineSizeBytes          uint32
}

type tile struct {
	fmt, siz         uint8
	cms, cmt         uint8
	shiftS, shiftT   uint8
	uls, ult, lrs, lrt uint16 // U10.2
	lineSizeBytes    uint32
	palette          uint8
	tmemIndex        uint8
}

type rgba struct{ R, G, B, A uint8 }

type xyWH struct{ X, Y, Width, Height uint16 }

type rdp struct {
	palette []byte

	textureToLoad  textureLoad
	loadedTexture  [2]loadedTexture
	textureTile    [8]tile
	texturesChanged [2]bool

	firstTileIndex uint8

	otherModeL, otherModeH uint32
	combineMode            uint64

	primLODFraction uint8
	envColor, primColor, fogColor, fillColor rgba
	viewport, scissor xyWH
	viewportOrScissorChanged bool

	zBufAddr   uint32
	colorImgAddr uint32
}

// renderingState is the diffing cache the triangle/rectangle assemblers
// check before emitting a backend call, so redundant state changes collapse
// away the same way the reference's RenderingState does.
type renderingState struct {
	depthTest, depthMask bool
	depthMode            DepthMode
	alphaBlend           bool
	viewport, scissor    Viewport
	shader               ShaderHandle
	textures             [2]TextureHandle
	samplerState         [2]samplerCacheEntry
}

// translator holds all interpreter state for one command-list run. It is
// the package's equivalent of the reference's file-scope rsp/rdp/
// rendering_state globals, but instance-scoped so multiple independent
// translators can run in the same process.
type translator struct {
	abi abiVariant

	rsp *rsp
	rdp rdp
	rs  renderingState

	segments [maxSegments]uint32
	segmentBase map[uint32][]byte // resolved backing store per segment, set by the host
	assetTextures map[uint32][]byte // asset-hash textures resolved by AssetLoader, keyed by a synthetic address

	markerOn bool
	markerFunc func(name string, w0, w1 uint32)

	dimensions struct {
		width, height int
		aspect        float32
	}

	backend RasterBackend
	window  WindowAPI
	loader  AssetLoader

	combiners *combinerCache
	textures  *textureCache

	vbo       []float32
	vboTris   int
	vboStride int

	droppedFrame bool
	frameDivisor int

	log *log.Logger
}
