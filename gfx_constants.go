// gfx_constants.go - opcode, bitfield and format constants for the RCP translator

/*
rcp64gfx - Fast3D-style command list translator

License: GPLv3 or later
*/

package gfx

// Opcodes occupy the top byte of w0. The numeric assignment below is this
// module's own opcode table (the RSP microcode headers these were compiled
// against are not part of the distributed command stream), grouped the way
// the reference interpreter groups them: RSP commands first, then RDP
// commands, then the S2DEX helper.
const (
	opNoop          = 0x00
	opMarker        = 0x01
	opInvalTexCache = 0x02
	opMtx           = 0x04
	opMoveMem       = 0x03
	opVtx           = 0x05
	opVtxOTR        = 0x06
	opDL            = 0x07
	opDLOTR         = 0x08
	opBranchZOTR    = 0x09
	opEndDL         = 0x0A
	opGeometryMode  = 0x0B
	opSetGeomMode   = 0x0C
	opClearGeomMode = 0x0D
	opTri1          = 0x0E
	opTri2          = 0x0F
	opQuad          = 0x10
	opMoveWord      = 0x11
	opTexture       = 0x12
	opPopMtx        = 0x13
	opSetOtherModeL = 0x14
	opSetOtherModeH = 0x15

	opSetTImg       = 0x20
	opSetTImgOTR    = 0x21
	opLoadBlock     = 0x22
	opLoadTile      = 0x23
	opSetTile       = 0x24
	opSetTileSize   = 0x25
	opLoadTLUT      = 0x26
	opSetEnvColor   = 0x27
	opSetPrimColor  = 0x28
	opSetFogColor   = 0x29
	opSetFillColor  = 0x2A
	opSetCombine    = 0x2B
	opTexRect       = 0x2C
	opTexRectFlip   = 0x2D
	opFillRect      = 0x2E
	opSetScissor    = 0x2F
	opSetZImg       = 0x30
	opSetCImg       = 0x31
	opRDPSetOther   = 0x32

	opBGCopy = 0x40 // S2DEX full-screen background blit
)

// MoveWord indices (G_MW_*), used by G_MOVEWORD.
const (
	moveWordNumLight = 0x02
	moveWordClip     = 0x04
	moveWordSegment  = 0x06
	moveWordFog      = 0x08
	moveWordLightCol = 0x0A
	moveWordPerspNorm = 0x0E
)

// MoveMem indices (G_MV_*), used by G_MOVEMEM.
const (
	moveMemViewport = 0x08
	moveMemLight    = 0x0A
	moveMemLookatY  = 0x0C
	moveMemLookatX  = 0x0E
	moveMemL0       = moveMemLight + 2*24
	moveMemL1       = moveMemL0 + 24
	moveMemL2       = moveMemL1 + 24
)

// Geometry mode bits (G_*), matching the textbook F3DEX2 assignment.
const (
	geomZBuffer        uint32 = 1 << 0
	geomShade          uint32 = 1 << 2
	geomCullFront      uint32 = 1 << 9
	geomCullBack       uint32 = 1 << 10
	geomFog            uint32 = 1 << 16
	geomLighting       uint32 = 1 << 17
	geomTextureGen     uint32 = 1 << 18
	geomTextureGenLin  uint32 = 1 << 19
	geomShadingSmooth  uint32 = 1 << 21
	geomClipping       uint32 = 1 << 23
)

// Image formats (G_IM_FMT_*) and sizes (G_IM_SIZ_*).
const (
	fmtRGBA = 0
	fmtYUV  = 1
	fmtCI   = 2
	fmtIA   = 3
	fmtI    = 4
)

const (
	siz4b  = 0
	siz8b  = 1
	siz16b = 2
	siz32b = 3
)

// Cycle type (othermode H, G_CYC_*).
const (
	cycle1Cycle = 0
	cycle2Cycle = 1
	cycleCopy   = 2
	cycleFill   = 3
)

// Color combiner mux selectors (G_CCMUX_*). Values match the canonical
// Fast3D assignment so SETCOMBINE bit patterns decode without translation.
const (
	ccmuxCombined      = 0
	ccmuxTexel0        = 1
	ccmuxTexel1        = 2
	ccmuxPrimitive     = 3
	ccmuxShade         = 4
	ccmuxEnvironment   = 5
	ccmuxCenter        = 6
	ccmuxScale         = 6
	ccmuxCombAlpha     = 7
	ccmuxTexel0Alpha   = 8
	ccmuxTexel1Alpha   = 9
	ccmuxPrimAlpha     = 10
	ccmuxShadeAlpha    = 11
	ccmuxEnvAlpha      = 12
	ccmuxLODFraction   = 13
	ccmuxPrimLODFrac   = 14
	ccmuxK5            = 15
	ccmuxZero          = 31
)

// Alpha combiner mux selectors (G_ACMUX_*).
const (
	acmuxCombined    = 0
	acmuxTexel0      = 1
	acmuxTexel1      = 2
	acmuxPrimitive   = 3
	acmuxShade       = 4
	acmuxEnvironment = 5
	acmuxLODFraction = 0
	acmuxPrimLODFrac = 6
	acmuxOne         = 6
	acmuxZero        = 7
)

// Blend-cycle alpha-compare / render mode bits (lower othermode word).
const (
	renderAntiAlias    uint32 = 1 << 3
	renderZCompare     uint32 = 1 << 4
	renderZUpdate      uint32 = 1 << 5
	renderAlphaCompare uint32 = 1 << 0
	renderForceBlend   uint32 = 1 << 14
)

const (
	zmodeOpaque  = 0
	zmodeInter   = 1
	zmodeXLU     = 2
	zmodeDecal   = 3
)

// Texture filter / clamp / wrap bits used by G_SETTILE.
const (
	texClamp = 2
	texMirror = 1
	texWrap  = 0
)

const (
	abiF3DEX2 = iota // default: modern, densely packed bitfields
	abiF3DEX1        // legacy: wider, simpler bitfields
)

const (
	maxModelViewStack = 11
	maxBufferedTris   = 256
	textureCacheSize  = 512
	textureCacheSlots = 1024
	combinerPoolSize  = 64
	maxSegments       = 16
	maxLights         = 9 // 7 directional + ambient + unused terminator
)
