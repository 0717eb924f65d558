// gfx_abi.go - command word bitfield extraction and ABI-variant opcode decode

package gfx

// cmd is one Fast3D-style command: two 32-bit words.
type cmd struct {
	w0, w1 uint32
}

func (c cmd) opcode() uint8 { return uint8(c.w0 >> 24) }

// field extracts width bits from word starting at bit pos, counted from
// the low bit, matching the reference C0/C1 macros.
func field(word uint32, pos, width uint) uint32 {
	return (word >> pos) & ((1 << width) - 1)
}

func fieldS(word uint32, pos, width uint) int32 {
	v := field(word, pos, width)
	shift := 32 - width
	return int32(v<<shift) >> shift
}

// abiVariant selects which RSP microcode bitfield layout the interpreter
// decodes opcodes with. Both variants are semantically identical; only the
// bit positions differ.
type abiVariant int

// decodedMtx is the decoded operand set for G_MTX across ABI variants.
type decodedMtx struct {
	params uint32
	addr   uint32
}

func decodeMtx(abi abiVariant, c cmd) decodedMtx {
	if abi == abiF3DEX2 {
		return decodedMtx{params: field(c.w0, 0, 8) ^ mtxPush, addr: c.w1}
	}
	return decodedMtx{params: field(c.w0, 16, 8), addr: c.w1}
}

const (
	mtxPush      uint32 = 1 << 0
	mtxLoad      uint32 = 1 << 1
	mtxProjection uint32 = 1 << 2
)

func decodePopMtx(abi abiVariant, c cmd) uint32 {
	if abi == abiF3DEX2 {
		return c.w1 / 64
	}
	return 1
}

type decodedMoveMem struct {
	index  uint32
	offset uint32
	addr   uint32
}

func decodeMoveMem(abi abiVariant, c cmd) decodedMoveMem {
	if abi == abiF3DEX2 {
		return decodedMoveMem{index: field(c.w0, 0, 8), offset: field(c.w0, 8, 8) * 8, addr: c.w1}
	}
	return decodedMoveMem{index: field(c.w0, 16, 8), offset: 0, addr: c.w1}
}

type decodedMoveWord struct {
	index  uint32
	offset uint32
	data   uint32
}

func decodeMoveWord(abi abiVariant, c cmd) decodedMoveWord {
	if abi == abiF3DEX2 {
		return decodedMoveWord{index: field(c.w0, 16, 8), offset: field(c.w0, 0, 16), data: c.w1}
	}
	return decodedMoveWord{index: field(c.w0, 0, 8), offset: field(c.w0, 8, 16), data: c.w1}
}

type decodedTexture struct {
	scaleS, scaleT uint32
	level, tile    uint32
	on             uint32
}

func decodeTexture(abi abiVariant, c cmd) decodedTexture {
	d := decodedTexture{
		scaleS: field(c.w1, 16, 16),
		scaleT: field(c.w1, 0, 16),
		level:  field(c.w0, 11, 3),
		tile:   field(c.w0, 8, 3),
	}
	if abi == abiF3DEX2 {
		d.on = field(c.w0, 1, 7)
	} else {
		d.on = field(c.w0, 0, 8)
	}
	return d
}

type decodedVtx struct {
	n    uint32
	v0   uint32
	addr uint32
}

func decodeVtx(abi abiVariant, c cmd) decodedVtx {
	if abi == abiF3DEX2 {
		n := field(c.w0, 12, 8)
		return decodedVtx{n: n, v0: field(c.w0, 1, 7) - n, addr: c.w1}
	}
	return decodedVtx{v0: field(c.w0, 10, 6), n: field(c.w0, 16, 8) / 2, addr: c.w1}
}

type decodedTri struct {
	v0, v1, v2 uint32
}

func decodeTri1(abi abiVariant, c cmd) decodedTri {
	if abi == abiF3DEX2 {
		return decodedTri{v0: field(c.w0, 16, 8) / 2, v1: field(c.w0, 8, 8) / 2, v2: field(c.w0, 0, 8) / 2}
	}
	return decodedTri{v0: field(c.w1, 16, 8) / 2, v1: field(c.w1, 8, 8) / 2, v2: field(c.w1, 0, 8) / 2}
}

type decodedOtherMode struct {
	shift, length uint32
	data          uint64
}

func decodeOtherModeL(abi abiVariant, c cmd) decodedOtherMode {
	if abi == abiF3DEX2 {
		length := field(c.w0, 0, 8)
		shift := 31 - field(c.w0, 8, 8) - length
		return decodedOtherMode{shift: shift, length: length + 1, data: uint64(c.w1)}
	}
	return decodedOtherMode{shift: field(c.w0, 8, 8), length: field(c.w0, 0, 8), data: uint64(c.w1)}
}

func decodeOtherModeH(abi abiVariant, c cmd) decodedOtherMode {
	if abi == abiF3DEX2 {
		length := field(c.w0, 0, 8)
		shift := 63 - field(c.w0, 8, 8) - length
		return decodedOtherMode{shift: shift, length: length + 1, data: uint64(c.w1) << 32}
	}
	return decodedOtherMode{shift: field(c.w0, 8, 8) + 32, length: field(c.w0, 0, 8), data: uint64(c.w1) << 32}
}

// combColorFormula and combAlphaFormula pack the four (a,b,c,d) selectors
// for one combiner cycle into the low bits first, matching the bit
// positions gfx_generate_cc's shift-and-mask decode expects: a occupies
// the low 4 bits, b the next 4, c the next 5, d the top 3 (16 bits total
// for color; a/b/c/d each 3 bits, 12 bits total for alpha).
func combColorFormula(a, b, c, d uint32) uint32 {
	return a | (b << 4) | (c << 8) | (d << 13)
}

func combAlphaFormula(a, b, c, d uint32) uint32 {
	return a | (b << 3) | (c << 6) | (d << 9)
}

// packCycle assembles one cycle's 28-bit formula: the 16-bit color formula
// in the low bits, the 12-bit alpha formula directly above it.
func packCycle(rgb, alpha uint32) uint64 {
	return uint64(rgb) | uint64(alpha)<<16
}

type decodedCombine struct {
	c1rgb, c1a, c2rgb, c2a uint32
}

func decodeSetCombine(c cmd) decodedCombine {
	return decodedCombine{
		c1rgb: combColorFormula(field(c.w0, 20, 4), field(c.w1, 28, 4), field(c.w0, 15, 5), field(c.w1, 15, 3)),
		c1a:   combAlphaFormula(field(c.w0, 12, 3), field(c.w1, 12, 3), field(c.w0, 9, 3), field(c.w1, 9, 3)),
		c2rgb: combColorFormula(field(c.w0, 5, 4), field(c.w1, 24, 4), field(c.w0, 0, 5), field(c.w1, 6, 3)),
		c2a:   combAlphaFormula(field(c.w1, 21, 3), field(c.w1, 3, 3), field(c.w1, 18, 3), field(c.w1, 0, 3)),
	}
}

// combineModeFrom assembles the two-cycle 56-bit combine-mode key (before
// the SHADER_OPT word is OR'd in by combineModeID) from a decoded
// SETCOMBINE command.
func combineModeFrom(d decodedCombine) uint64 {
	return packCycle(d.c1rgb, d.c1a) | packCycle(d.c2rgb, d.c2a)<<28
}
