// gfx_combiner.go - two-cycle combiner compiler and MRU/LRU-backed cache

package gfx

import lru "github.com/hashicorp/golang-lru"

// Shader option bits packed into the high word of a combiner ID, set from
// the active othermode flags rather than the SETCOMBINE formula itself.
const (
	shaderOptAlpha       uint32 = 1 << 0
	shaderOptFog         uint32 = 1 << 1
	shaderOptTextureEdge uint32 = 1 << 2
	shaderOptNoise       uint32 = 1 << 3
	shaderOpt2Cyc        uint32 = 1 << 4
)

const ccShaderOptPos = 56 // bit position within the 64-bit cc_id the option word starts at; bits 0-55 hold the two cycles' (a,b,c,d) formulas

// combinerEntry is the compiled form of one (formula, option) pair: its
// canonical shader fingerprint plus the input-slot assignment a backend
// needs to resolve per-vertex color.
type combinerEntry struct {
	ccID         uint64
	shaderID0    uint64
	shaderID1    uint32
	usedTextures [2]bool
	inputMapping [2][7]uint8 // [0]=rgb slots, [1]=alpha slots; entry k holds the selector of input k+1, 0 when unused
	prg          map[uint32]ShaderHandle
}

// combinerCache mirrors the reference's MRU pointer + 64-entry pool, using
// an LRU as the backing pool so overflow past the pool size recycles the
// least-recently-used formula instead of silently refusing new combiners.
type combinerCache struct {
	mru   *combinerEntry
	cache *lru.Cache
}

func newCombinerCache() *combinerCache {
	c, _ := lru.New(combinerPoolSize)
	return &combinerCache{cache: c}
}

func (cc *combinerCache) lookupOrCreate(ccID uint64) *combinerEntry {
	if cc.mru != nil && cc.mru.ccID == ccID {
		return cc.mru
	}
	if v, ok := cc.cache.Get(ccID); ok {
		e := v.(*combinerEntry)
		cc.mru = e
		return e
	}
	e := generateCombiner(ccID)
	cc.cache.Add(ccID, e)
	cc.mru = e
	return e
}

const (
	shader0 = iota
	shader1
	shaderCombined
	shaderTexel0
	shaderTexel1
	shaderTexel0A
	shaderTexel1A
	shaderInput1 // first dynamically assigned canonical slot
)

// generateCombiner normalizes a raw (a-b)*c+d formula pair for both cycles
// and assigns canonical input slots in first-encountered order, matching
// gfx_generate_cc.
func generateCombiner(ccID uint64) *combinerEntry {
	is2Cyc := ccID&(uint64(shaderOpt2Cyc)<<ccShaderOptPos) != 0

	var c [2][2][4]uint32 // [cycle][rgb=0/alpha=1][a,b,c,d]
	for i := 0; i < 2; i++ {
		if i == 1 && !is2Cyc {
			for k := 0; k < 4; k++ {
				c[1][0][k] = ccmuxZero
				c[1][1][k] = acmuxZero
			}
			continue
		}
		shift := uint(i * 28)
		rgbA := uint32(ccID>>shift) & 0xf
		rgbB := uint32(ccID>>(shift+4)) & 0xf
		rgbC := uint32(ccID>>(shift+8)) & 0x1f
		rgbD := uint32(ccID>>(shift+13)) & 0x7
		alphaA := uint32(ccID>>(shift+16)) & 0x7
		alphaB := uint32(ccID>>(shift+19)) & 0x7
		alphaC := uint32(ccID>>(shift+22)) & 0x7
		alphaD := uint32(ccID>>(shift+25)) & 0x7

		if rgbA >= 8 {
			rgbA = ccmuxZero
		}
		if rgbB >= 8 {
			rgbB = ccmuxZero
		}
		if rgbC >= 16 {
			rgbC = ccmuxZero
		}
		if rgbD == 7 {
			rgbD = ccmuxZero
		}
		if rgbA == rgbB || rgbC == ccmuxZero {
			rgbA, rgbB, rgbC = ccmuxZero, ccmuxZero, ccmuxZero
		}
		if alphaA == alphaB || alphaC == acmuxZero {
			alphaA, alphaB, alphaC = acmuxZero, acmuxZero, acmuxZero
		}

		if i == 1 {
			if rgbA != ccmuxCombined && rgbB != ccmuxCombined && rgbC != ccmuxCombined && rgbD != ccmuxCombined {
				c[0][0] = [4]uint32{ccmuxZero, ccmuxZero, ccmuxZero, ccmuxZero}
			}
			if rgbC != ccmuxCombAlpha && alphaA != acmuxCombined && alphaB != acmuxCombined && alphaD != acmuxCombined {
				c[0][1] = [4]uint32{acmuxZero, acmuxZero, acmuxZero, acmuxZero}
			}
		}

		c[i][0] = [4]uint32{rgbA, rgbB, rgbC, rgbD}
		c[i][1] = [4]uint32{alphaA, alphaB, alphaC, alphaD}
	}

	e := &combinerEntry{ccID: ccID, shaderID1: uint32(ccID >> ccShaderOptPos), prg: make(map[uint32]ShaderHandle)}

	var shaderID0 uint64
	rgbInputNumber := make(map[uint32]uint32)
	nextRGB := uint32(shaderInput1)
	cycles := 1
	if is2Cyc {
		cycles = 2
	}
	for i := 0; i < cycles; i++ {
		for j := 0; j < 4; j++ {
			sel := c[i][0][j]
			var val uint32
			switch sel {
			case ccmuxZero:
				val = shader0
			case ccmuxTexel0:
				val, e.usedTextures[0] = shaderTexel0, true
			case ccmuxTexel1:
				val, e.usedTextures[1] = shaderTexel1, true
			case ccmuxTexel0Alpha:
				val, e.usedTextures[0] = shaderTexel0A, true
			case ccmuxTexel1Alpha:
				val, e.usedTextures[1] = shaderTexel1A, true
			case ccmuxPrimitive, ccmuxPrimAlpha, ccmuxPrimLODFrac, ccmuxShade, ccmuxEnvironment, ccmuxEnvAlpha, ccmuxLODFraction:
				if rgbInputNumber[sel] == 0 {
					e.inputMapping[0][nextRGB-shaderInput1] = uint8(sel)
					rgbInputNumber[sel] = nextRGB
					nextRGB++
				}
				val = rgbInputNumber[sel]
			case ccmuxCombined:
				val = shaderCombined
			}
			shaderID0 |= uint64(val) << uint(i*32+j*4)
		}
	}

	alphaInputNumber := make(map[uint32]uint32)
	nextAlpha := uint32(shaderInput1)
	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			sel := c[i][1][j]
			var val uint32
			switch sel {
			case acmuxZero:
				val = shader0
			case acmuxTexel0:
				val, e.usedTextures[0] = shaderTexel0, true
			case acmuxTexel1:
				val, e.usedTextures[1] = shaderTexel1, true
			case acmuxLODFraction:
				if j != 2 {
					val = shaderCombined
					break
				}
				fallthrough
			case acmuxOne:
				if j != 2 {
					val = shader1
					break
				}
				fallthrough
			case acmuxPrimitive, acmuxShade, acmuxEnvironment:
				if alphaInputNumber[sel] == 0 {
					e.inputMapping[1][nextAlpha-shaderInput1] = uint8(sel)
					alphaInputNumber[sel] = nextAlpha
					nextAlpha++
				}
				val = alphaInputNumber[sel]
			}
			shaderID0 |= uint64(val) << uint(i*32+16+j*4)
		}
	}

	e.shaderID0 = shaderID0
	return e
}

// optionWordFor derives the shader option bits from the active othermode
// flags and blend configuration, matching the cc_id augmentation done
// before every triangle/rectangle draw.
func optionWordFor(otherModeL, otherModeH uint32, fogColorA uint8) (useAlpha, useFog, texEdge, useNoise, use2Cyc bool) {
	useAlpha = (otherModeL&(3<<20)) == (2<<20) && (otherModeL&(3<<16)) == (3<<16)
	useFog = (otherModeL >> 30) == 3
	texEdge = otherModeL&cvgXAlpha == cvgXAlpha
	useNoise = otherModeL&acDither == acDither
	use2Cyc = (otherModeH>>uint(cycleTypeShift))&3 == cycle2Cycle
	if texEdge {
		useAlpha = true
	}
	return
}

const (
	cvgXAlpha      uint32 = 1 << 13
	acDither       uint32 = 1 << 6
	cycleTypeShift        = 20
)

// combineModeID packs the active SETCOMBINE formula plus option bits into
// the 64-bit combiner cache key, stripping the alpha formula when alpha
// blending is not in effect (the bits it would occupy are don't-cares).
func combineModeID(combineMode uint64, otherModeL, otherModeH uint32, fogColorA uint8) uint64 {
	useAlpha, useFog, texEdge, useNoise, use2Cyc := optionWordFor(otherModeL, otherModeH, fogColorA)
	ccID := combineMode
	if useAlpha {
		ccID |= uint64(shaderOptAlpha) << ccShaderOptPos
	}
	if useFog {
		ccID |= uint64(shaderOptFog) << ccShaderOptPos
	}
	if texEdge {
		ccID |= uint64(shaderOptTextureEdge) << ccShaderOptPos
	}
	if useNoise {
		ccID |= uint64(shaderOptNoise) << ccShaderOptPos
	}
	if use2Cyc {
		ccID |= uint64(shaderOpt2Cyc) << ccShaderOptPos
	}
	if !useAlpha {
		ccID &^= (uint64(0xfff) << 16) | (uint64(0xfff) << 44)
	}
	return ccID
}
