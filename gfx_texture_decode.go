// gfx_texture_decode.go - per-format TMEM pixel decoders producing RGBA8

package gfx

import (
	"image"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"
)

// Bit-replication scale macros: N64 color DACs widen n-bit channel values to
// 8 bits by repeating the high bits into the low bits rather than a linear
// multiply, so full-scale (all-ones) inputs still map to 0xff. Not present
// verbatim in the retrieved reference excerpt; these are the standard
// N64-texture widening formulas and are noted as such in the design ledger.
func scale5to8(v uint8) uint8 { return (v << 3) | (v >> 2) }
func scale4to8(v uint8) uint8 { return (v << 4) | v }
func scale3to8(v uint8) uint8 { return (v << 5) | (v << 2) | (v >> 1) }

func be16(b []byte, i int) uint16 { return uint16(b[i])<<8 | uint16(b[i+1]) }

// decodeRGBA16 unpacks 5-5-5-1 pixels.
func decodeRGBA16(src []byte, w, h int) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		p := be16(src, i*2)
		r := uint8(p>>11) & 0x1f
		g := uint8(p>>6) & 0x1f
		b := uint8(p>>1) & 0x1f
		a := uint8(p & 1)
		alpha := uint8(0)
		if a != 0 {
			alpha = 0xff
		}
		out[i] = rgba{scale5to8(r), scale5to8(g), scale5to8(b), alpha}
	}
	return out
}

// decodeRGBA32 unpacks native 8-8-8-8 pixels.
func decodeRGBA32(src []byte, w, h int) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		o := i * 4
		out[i] = rgba{src[o], src[o+1], src[o+2], src[o+3]}
	}
	return out
}

// decodeIA4 unpacks 3-bit intensity + 1-bit alpha, two texels per byte.
func decodeIA4(src []byte, w, h int) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		byteVal := src[i/2]
		var nibble uint8
		if i%2 == 0 {
			nibble = byteVal >> 4
		} else {
			nibble = byteVal & 0xf
		}
		intensity := scale3to8(nibble >> 1)
		alpha := uint8(0)
		if nibble&1 != 0 {
			alpha = 0xff
		}
		out[i] = rgba{intensity, intensity, intensity, alpha}
	}
	return out
}

// decodeIA8 unpacks 4-bit intensity + 4-bit alpha, one texel per byte.
func decodeIA8(src []byte, w, h int) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		intensity := scale4to8(src[i] >> 4)
		alpha := scale4to8(src[i] & 0xf)
		out[i] = rgba{intensity, intensity, intensity, alpha}
	}
	return out
}

// decodeIA16 unpacks 8-bit intensity + 8-bit alpha, one texel per two bytes.
func decodeIA16(src []byte, w, h int) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		intensity := src[i*2]
		alpha := src[i*2+1]
		out[i] = rgba{intensity, intensity, intensity, alpha}
	}
	return out
}

// decodeI4 unpacks 4-bit intensity-only, two texels per byte; alpha equals
// the intensity.
func decodeI4(src []byte, w, h int) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		byteVal := src[i/2]
		var nibble uint8
		if i%2 == 0 {
			nibble = byteVal >> 4
		} else {
			nibble = byteVal & 0xf
		}
		v := scale4to8(nibble)
		out[i] = rgba{v, v, v, v}
	}
	return out
}

// decodeI8 unpacks 8-bit intensity-only; alpha equals the intensity.
func decodeI8(src []byte, w, h int) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		out[i] = rgba{src[i], src[i], src[i], src[i]}
	}
	return out
}

// decodeCI4 unpacks 4-bit palette indices, two texels per byte, resolved
// through a 16-entry TLUT slice already decoded to RGBA16 by the caller.
func decodeCI4(src []byte, w, h int, tlut []rgba) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		byteVal := src[i/2]
		var idx uint8
		if i%2 == 0 {
			idx = byteVal >> 4
		} else {
			idx = byteVal & 0xf
		}
		if int(idx) < len(tlut) {
			out[i] = tlut[idx]
		}
	}
	return out
}

// decodeCI8 unpacks 8-bit palette indices, resolved through a 256-entry TLUT.
func decodeCI8(src []byte, w, h int, tlut []rgba) []rgba {
	out := make([]rgba, w*h)
	for i := 0; i < w*h; i++ {
		idx := src[i]
		if int(idx) < len(tlut) {
			out[i] = tlut[idx]
		}
	}
	return out
}

// tileShiftScale converts a G_SETTILE shift value into the scale factor it
// applies to a tile's texture coordinates: 1-10 divide by 2^shift, 11-15
// multiply by 2^(16-shift), 0 is unscaled. This is the same encoding the
// reference's tile shiftS/shiftT fields carry for the "texture scale" effect
// a handful of titles use to fake mipmapping on intensity-only textures.
func tileShiftScale(shift uint8) float64 {
	switch {
	case shift == 0:
		return 1
	case shift <= 10:
		return 1 / float64(uint(1)<<shift)
	default:
		return float64(uint(1) << (16 - uint(shift)))
	}
}

func rgbaSliceToImage(pixels []rgba, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, p := range pixels {
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = p.R, p.G, p.B, p.A
	}
	return img
}

func imageToRGBASlice(img *image.RGBA) []rgba {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]rgba, w*h)
	for i := range out {
		o := i * 4
		out[i] = rgba{img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3]}
	}
	return out
}

// resampledDims reports the dimensions resampleForTileShift would produce
// for w x h under shiftS/shiftT, without touching any pixel data. Callers
// that need to know the post-resample size for UV normalization (see
// gfx_triangle.go's texWidth/texHeight) use this instead of duplicating the
// scale-factor arithmetic.
func resampledDims(w, h int, shiftS, shiftT uint8) (int, int) {
	sx, sy := tileShiftScale(shiftS), tileShiftScale(shiftT)
	if sx == 1 && sy == 1 || w == 0 || h == 0 {
		return w, h
	}
	nw := int(float64(w) * sx)
	nh := int(float64(h) * sy)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// resampleForTileShift box/bilinear-filters a decoded intensity-format tile
// (I4/I8/IA4/IA8/IA16) to the size its G_SETTILE shiftS/shiftT requests,
// supplementing the reference's 1:1-only sampling with a real scaled blit
// (see SPEC_FULL.md's Supplemented Features) instead of leaving the scale
// factor for the rasterizer's sampler to approximate. Only loadTileTexture's
// rectangle-draw path calls this: ordinary shift-tiled triangles already get
// the shift folded into their UV coordinates by emitVertex, and resampling
// the bitmap there too would apply the shift twice. RGBA16/32 and CI4/CI8
// stay untouched by callers since their palette/alpha-bit layouts aren't a
// good fit for a generic image resize.
func resampleForTileShift(pixels []rgba, w, h int, shiftS, shiftT uint8) ([]rgba, int, int) {
	nw, nh := resampledDims(w, h, shiftS, shiftT)
	if nw == w && nh == h {
		return pixels, w, h
	}
	src := rgbaSliceToImage(pixels, w, h)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), stddraw.Over, nil)
	return imageToRGBASlice(dst), nw, nh
}

// importTexture dispatches on (format, siz), the Go analogue of
// import_texture. tlut is only consulted for CI-format tiles and may be nil
// otherwise. Only the combinations the reference actually implements a
// decoder for are valid; everything else (YUV entirely, or any fmt paired
// with a siz it doesn't support, e.g. RGBA at 4b/8b) is a fatal-in-origin
// condition reported as a *CommandError rather than silently decoded through
// whichever branch happens to match. loadTileTexture never passes RGBA/8b
// here: it skips that pair without an upload and without an error.
func importTexture(format, siz uint8, src []byte, w, h int, tlut []rgba) ([]rgba, *CommandError) {
	switch format {
	case fmtRGBA:
		switch siz {
		case siz16b:
			return decodeRGBA16(src, w, h), nil
		case siz32b:
			return decodeRGBA32(src, w, h), nil
		}
	case fmtIA:
		switch siz {
		case siz4b:
			return decodeIA4(src, w, h), nil
		case siz8b:
			return decodeIA8(src, w, h), nil
		case siz16b:
			return decodeIA16(src, w, h), nil
		}
	case fmtI:
		switch siz {
		case siz4b:
			return decodeI4(src, w, h), nil
		case siz8b:
			return decodeI8(src, w, h), nil
		}
	case fmtCI:
		switch siz {
		case siz4b:
			return decodeCI4(src, w, h, tlut), nil
		case siz8b:
			return decodeCI8(src, w, h, tlut), nil
		}
	}
	return nil, &CommandError{
		Operation: "import-texture",
		Details:   textureFormatSizeLabel(format, siz) + " has no decoder",
	}
}

// textureFormatSizeLabel renders a (fmt, siz) pair for a CommandError's
// Details field without importing "fmt" into a file whose decode dispatch
// already uses that identifier as a parameter name.
func textureFormatSizeLabel(format, siz uint8) string {
	names := [...]string{"RGBA", "YUV", "CI", "IA", "I"}
	sizes := [...]string{"4b", "8b", "16b", "32b"}
	name, sz := "fmt?", "siz?"
	if int(format) < len(names) {
		name = names[format]
	}
	if int(siz) < len(sizes) {
		sz = sizes[siz]
	}
	return name + "/" + sz
}
