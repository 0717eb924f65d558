// gfx_command.go - opcode dispatch loop, the Go analogue of gfx_run_dl

package gfx

import (
	"encoding/binary"
	"fmt"
)

// displayList is a flat, already-resolved command stream: pairs of (w0, w1)
// words. Segment/branch opcodes index back into segmentBase via the host's
// AssetLoader or segment table rather than raw pointers.
type displayList []uint32

func (t *translator) runDL(dl displayList) *CommandError {
	for i := 0; i+1 < len(dl); i += 2 {
		c := cmd{w0: dl[i], w1: dl[i+1]}
		switch c.opcode() {
		case opMarker:
			i += 2
			t.markerOn = true
			if t.markerFunc != nil && i+1 < len(dl) {
				hash := uint64(dl[i])<<32 | uint64(dl[i+1])
				if name, ok := t.loader.NameOf(hash); ok {
					t.markerFunc(name, dl[i], dl[i+1])
				}
			}

		case opInvalTexCache:
			t.textures.clear()

		case opNoop:

		case opMtx:
			d := decodeMtx(t.abi, c)
			m := t.readMatrix(d.addr)
			t.spMatrix(d.params, m)

		case opPopMtx:
			t.spPopMatrix(decodePopMtx(t.abi, c))

		case opMoveMem:
			d := decodeMoveMem(t.abi, c)
			t.spMoveMem(uint8(d.index), d.offset, d.addr)

		case opMoveWord:
			d := decodeMoveWord(t.abi, c)
			t.spMoveWord(uint8(d.index), uint16(d.offset), d.data)

		case opTexture:
			d := decodeTexture(t.abi, c)
			t.spTexture(uint16(d.scaleS), uint16(d.scaleT), uint8(d.tile))

		case opVtx:
			d := decodeVtx(t.abi, c)
			data := t.segmentBytes(d.addr, uint32(d.n)*rawVertexSize)
			t.spVertex(int(d.n), int(d.v0), data)

		case opVtxOTR:
			i += 2
			if i+1 >= len(dl) {
				break
			}
			offset := uint64(dl[i-2+1])
			hash := uint64(dl[i])<<32 | uint64(dl[i+1])
			if raw, ok := t.loader.LoadVertices(hash); ok {
				d := decodeVtx(t.abi, c)
				start := int(offset)
				if start < len(raw) {
					t.spVertex(int(d.n), int(d.v0), raw[start:])
				}
			} else {
				t.logf("asset-hash vertex buffer miss: 0x%016x", hash)
			}

		case opDL:
			if field(c.w0, 16, 1) == 0 {
				sub := t.resolveDL(c.w1)
				if err := t.runDL(sub); err != nil {
					return err
				}
			} else {
				// Branch form: the sub-list replaces the rest of this list.
				return t.runDL(t.resolveDL(c.w1))
			}

		case opDLOTR:
			if field(c.w0, 16, 1) == 0 {
				i += 2
				if i+1 >= len(dl) {
					break
				}
				hash := uint64(dl[i])<<32 | uint64(dl[i+1])
				if raw, ok := t.loader.LoadDisplayList(hash); ok {
					if err := t.runDL(raw); err != nil {
						return err
					}
				} else {
					t.logf("asset-hash display list miss: 0x%016x", hash)
				}
			}

		case opBranchZOTR:
			vbIdx := int(c.w0 & 0xfff)
			zval := c.w1
			i += 2
			if i+1 >= len(dl) {
				break
			}
			if vbIdx < len(t.rsp.loadedVertices) && t.rsp.loadedVertices[vbIdx].Z <= float32(int32(zval)) {
				hash := uint64(dl[i])<<32 | uint64(dl[i+1])
				if raw, ok := t.loader.LoadDisplayList(hash); ok {
					if err := t.runDL(raw); err != nil {
						return err
					}
				}
			}

		case opEndDL:
			t.markerOn = false
			return nil

		case opGeometryMode:
			// clear = ~C0(0,24); geometry_mode = (geometry_mode &^ clear) | set
			// simplifies to (geometry_mode & field(w0,0,24)) | w1.
			t.rsp.geometryMode = (t.rsp.geometryMode & field(c.w0, 0, 24)) | c.w1

		case opSetGeomMode:
			t.rsp.geometryMode |= c.w1

		case opClearGeomMode:
			t.rsp.geometryMode &^= c.w1

		case opTri1:
			d := decodeTri1(t.abi, c)
			if err := t.spTri1(int(d.v0), int(d.v1), int(d.v2), false); err != nil {
				return err
			}

		case opTri2:
			d := decodeTri1(t.abi, c)
			if err := t.spTri1(int(d.v0), int(d.v1), int(d.v2), false); err != nil {
				return err
			}

		case opSetOtherModeL:
			d := decodeOtherModeL(t.abi, c)
			t.spSetOtherMode(d.shift, d.length, d.data)

		case opSetOtherModeH:
			d := decodeOtherModeH(t.abi, c)
			t.spSetOtherMode(d.shift, d.length, d.data)

		case opSetTImg:
			t.rdp.textureToLoad = textureLoad{addr: c.w1, siz: uint8(field(c.w0, 19, 2)), width: field(c.w0, 0, 10)}

		case opSetTImgOTR:
			i += 2
			if i+1 >= len(dl) {
				break
			}
			hash := uint64(dl[i])<<32 | uint64(dl[i+1])
			if raw, ok := t.loader.LoadTexture(hash); ok {
				syntheticAddr := uint32(hash)
				t.assetTextures[syntheticAddr] = raw
				t.rdp.textureToLoad = textureLoad{addr: syntheticAddr, siz: uint8(field(c.w0, 19, 2)), width: field(c.w0, 0, 10)}
			} else {
				t.logf("asset-hash texture image miss: 0x%016x", hash)
			}

		case opLoadBlock:
			t.dpLoadBlock(uint8(field(c.w1, 24, 3)), field(c.w1, 12, 12), field(c.w1, 0, 12))

		case opLoadTile:
			t.dpLoadTile(uint8(field(c.w1, 24, 3)), field(c.w0, 12, 12), field(c.w0, 0, 12), field(c.w1, 12, 12), field(c.w1, 0, 12))

		case opSetTile:
			t.dpSetTile(
				uint8(field(c.w0, 21, 3)), field(c.w0, 19, 2), field(c.w0, 9, 9), field(c.w0, 0, 9),
				uint8(field(c.w1, 24, 3)), field(c.w1, 20, 4), field(c.w1, 18, 2), field(c.w1, 14, 4),
				field(c.w1, 10, 4), field(c.w1, 8, 2), field(c.w1, 4, 4), field(c.w1, 0, 4))

		case opSetTileSize:
			t.dpSetTileSize(uint8(field(c.w1, 24, 3)), uint16(field(c.w0, 12, 12)), uint16(field(c.w0, 0, 12)), uint16(field(c.w1, 12, 12)), uint16(field(c.w1, 0, 12)))

		case opLoadTLUT:
			t.dpLoadTLUT(uint8(field(c.w1, 24, 3)))

		case opSetEnvColor:
			t.rdp.envColor = rgba{uint8(field(c.w1, 24, 8)), uint8(field(c.w1, 16, 8)), uint8(field(c.w1, 8, 8)), uint8(field(c.w1, 0, 8))}

		case opSetPrimColor:
			t.rdp.primLODFraction = uint8(field(c.w0, 0, 8))
			t.rdp.primColor = rgba{uint8(field(c.w1, 24, 8)), uint8(field(c.w1, 16, 8)), uint8(field(c.w1, 8, 8)), uint8(field(c.w1, 0, 8))}

		case opSetFogColor:
			t.rdp.fogColor = rgba{uint8(field(c.w1, 24, 8)), uint8(field(c.w1, 16, 8)), uint8(field(c.w1, 8, 8)), uint8(field(c.w1, 0, 8))}

		case opSetFillColor:
			t.dpSetFillColor(c.w1)

		case opSetCombine:
			d := decodeSetCombine(c)
			t.rdp.combineMode = combineModeFrom(d)

		case opTexRect, opTexRectFlip:
			lrx := int32(field(c.w0, 12, 12))
			lry := int32(field(c.w0, 0, 12))
			tile := uint8(field(c.w1, 24, 3))
			ulx := int32(field(c.w1, 12, 12))
			uly := int32(field(c.w1, 0, 12))
			i += 2
			if i+1 >= len(dl) {
				break
			}
			uls := int16(field(dl[i+1], 16, 16))
			ult := int16(field(dl[i+1], 0, 16))
			i += 2
			if i+1 >= len(dl) {
				break
			}
			dsdx := int16(field(dl[i+1], 16, 16))
			dtdy := int16(field(dl[i+1], 0, 16))
			if err := t.texRect(ulx, uly, lrx, lry, tile, uls, ult, dsdx, dtdy, c.opcode() == opTexRectFlip); err != nil {
				return err
			}

		case opFillRect:
			lrx := int32(field(c.w0, 12, 12))
			lry := int32(field(c.w0, 0, 12))
			ulx := int32(field(c.w1, 12, 12))
			uly := int32(field(c.w1, 0, 12))
			if err := t.fillRect(ulx, uly, lrx, lry); err != nil {
				return err
			}

		case opSetScissor:
			t.dpSetScissor(field(c.w0, 12, 12), field(c.w0, 0, 12), field(c.w1, 12, 12), field(c.w1, 0, 12))

		case opSetZImg:
			t.rdp.zBufAddr = c.w1

		case opSetCImg:
			t.rdp.colorImgAddr = c.w1

		case opRDPSetOther:
			t.rdp.otherModeH = field(c.w0, 0, 24)
			t.rdp.otherModeL = c.w1

		case opBGCopy:
			if !t.markerOn {
				bg := t.segmentBytes(c.w1, 20)
				if len(bg) >= 20 {
					frameX := int16(binary.BigEndian.Uint16(bg[0:2]))
					frameY := int16(binary.BigEndian.Uint16(bg[2:4]))
					imageW := binary.BigEndian.Uint16(bg[4:6])
					imageH := binary.BigEndian.Uint16(bg[6:8])
					imageX := int16(binary.BigEndian.Uint16(bg[8:10]))
					imageY := int16(binary.BigEndian.Uint16(bg[10:12]))
					if err := t.s2dexBGCopy(frameX, frameY, imageW, imageH, imageX, imageY, t.rdp.firstTileIndex); err != nil {
						return err
					}
				}
			}

		default:
			t.logf("unrecognized opcode 0x%02x, skipping", c.opcode())
		}
	}
	return nil
}

func (t *translator) resolveDL(addr uint32) displayList {
	raw := t.segmentBytes(addr, 0)
	if raw == nil {
		return nil
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	return words
}

func (t *translator) readMatrix(addr uint32) mat4 {
	b := t.segmentBytes(addr, 64)
	words := make([]int32, 16)
	for i := range words {
		if (i+1)*4 <= len(b) {
			words[i] = int32(binary.BigEndian.Uint32(b[i*4:]))
		}
	}
	return decodeFixedMatrix(words)
}

func (t *translator) spMoveMem(index uint8, offset, addr uint32) {
	switch index {
	case moveMemViewport:
		b := t.segmentBytes(addr, 16)
		t.calcAndSetViewport(b)
	case moveMemLight:
		idx := int(offset)/24 - 2
		data := t.segmentBytes(addr, 16)
		if idx >= 0 && idx < maxLights {
			t.rsp.currentLights[idx] = decodeLight(data)
		} else if idx < 0 {
			t.rsp.lookat[offset/24] = decodeLight(data)
		}
		t.rsp.lightsChanged = true
	case moveMemL0, moveMemL1, moveMemL2:
		data := t.segmentBytes(addr, 16)
		slot := int(index-moveMemL0) / 2
		t.rsp.currentLights[slot] = decodeLight(data)
		t.rsp.lightsChanged = true
	}
}

func decodeLight(b []byte) light {
	var l light
	if len(b) < 16 {
		return l
	}
	l.Col = [3]uint8{b[0], b[1], b[2]}
	l.ColorCopy = [3]uint8{b[4], b[5], b[6]}
	l.Dir = [3]int8{int8(b[8]), int8(b[9]), int8(b[10])}
	return l
}

func (t *translator) calcAndSetViewport(b []byte) {
	if len(b) < 8 {
		return
	}
	vscaleX := float32(int16(binary.BigEndian.Uint16(b[0:2])))
	vscaleY := float32(int16(binary.BigEndian.Uint16(b[2:4])))
	vtransX := float32(int16(binary.BigEndian.Uint16(b[8:10])))
	vtransY := float32(int16(binary.BigEndian.Uint16(b[10:12])))

	width := 2.0 * vscaleX / 4.0
	height := 2.0 * vscaleY / 4.0
	x := vtransX/4.0 - width/2.0
	y := float32(screenHeight) - (vtransY/4.0 + height/2.0)

	ratioX := float32(t.dimensions.width) / (2.0 * halfScreenWidth)
	ratioY := float32(t.dimensions.height) / (2.0 * halfScreenHeight)

	t.rdp.viewport = xyWH{uint16(x * ratioX), uint16(y * ratioY), uint16(width * ratioX), uint16(height * ratioY)}
	t.rdp.viewportOrScissorChanged = true
}

func (t *translator) spMoveWord(index uint8, offset uint16, data uint32) {
	switch index {
	case moveWordNumLight:
		t.rsp.currentNumLights = int(data/24) + 1
		t.rsp.lightsChanged = true
	case moveWordFog:
		t.rsp.fogMul = int16(data >> 16)
		t.rsp.fogOffset = int16(data)
	case moveWordSegment:
		segNum := offset / 4
		if int(segNum) < len(t.segments) {
			t.segments[segNum] = data
		}
	}
}

func (t *translator) spTexture(sc, tc uint16, tile uint8) {
	t.rsp.texScaleS = sc
	t.rsp.texScaleT = tc
	if t.rdp.firstTileIndex != tile {
		t.rdp.texturesChanged[0] = true
		t.rdp.texturesChanged[1] = true
	}
	t.rdp.firstTileIndex = tile
}

func (t *translator) spSetOtherMode(shift, length uint32, mode uint64) {
	mask := ((uint64(1) << length) - 1) << shift
	om := uint64(t.rdp.otherModeL) | uint64(t.rdp.otherModeH)<<32
	om = (om &^ mask) | mode
	t.rdp.otherModeL = uint32(om)
	t.rdp.otherModeH = uint32(om >> 32)
}

func (t *translator) dpSetScissor(ulx, uly, lrx, lry uint32) {
	ratioX := float32(t.dimensions.width) / (2.0 * halfScreenWidth)
	ratioY := float32(t.dimensions.height) / (2.0 * halfScreenHeight)
	x := float32(ulx) / 4.0 * ratioX
	y := (float32(screenHeight) - float32(lry)/4.0) * ratioY
	w := float32(lrx-ulx) / 4.0 * ratioX
	h := float32(lry-uly) / 4.0 * ratioY
	t.rdp.scissor = xyWH{uint16(x), uint16(y), uint16(w), uint16(h)}
	t.rdp.viewportOrScissorChanged = true
}

func (t *translator) dpSetTile(fmt uint8, siz, line, tmem uint32, tileIdx uint8, palette, cmt, maskt, shiftt, cms, masks, shifts uint32) {
	if cms == texWrap && masks == 0 {
		cms = texClamp
	}
	if cmt == texWrap && maskt == 0 {
		cmt = texClamp
	}
	tl := &t.rdp.textureTile[tileIdx]
	tl.palette = uint8(palette)
	tl.fmt = fmt
	tl.siz = uint8(siz)
	tl.cms = uint8(cms)
	tl.cmt = uint8(cmt)
	tl.shiftS = uint8(shifts)
	tl.shiftT = uint8(shiftt)
	tl.lineSizeBytes = line * 8
	if tmem != 0 {
		tl.tmemIndex = 1
	} else {
		tl.tmemIndex = 0
	}
	t.rdp.texturesChanged[0] = true
	t.rdp.texturesChanged[1] = true
}

func (t *translator) dpSetTileSize(tileIdx uint8, uls, ult, lrs, lrt uint16) {
	tl := &t.rdp.textureTile[tileIdx]
	tl.uls, tl.ult, tl.lrs, tl.lrt = uls, ult, lrs, lrt
	t.rdp.texturesChanged[0] = true
	t.rdp.texturesChanged[1] = true
}

func (t *translator) dpLoadTLUT(tileIdx uint8) {
	addr := t.rdp.textureToLoad.addr
	t.rdp.palette = t.segmentBytes(addr, 512)
}

// wordSizeShift reports the TMEM word-size shift for LoadBlock/LoadTile's
// byte-count arithmetic. siz is a hard assertion: the field it's decoded from
// is always 2 bits (0-3), so every valid value is listed explicitly and
// anything else means the caller is feeding this a value it never derived
// from the wire format.
func wordSizeShift(siz uint8) uint32 {
	switch siz {
	case siz4b, siz8b:
		return 0
	case siz16b:
		return 1
	case siz32b:
		return 2
	default:
		panic(fmt.Sprintf("gfx: unrecognized texture siz %d in LoadBlock/LoadTile", siz))
	}
}

func (t *translator) dpLoadBlock(tileIdx uint8, lrs, dxt uint32) {
	shift := wordSizeShift(t.rdp.textureToLoad.siz)
	sizeBytes := (lrs + 1) << shift
	idx := t.rdp.textureTile[tileIdx].tmemIndex
	t.rdp.loadedTexture[idx] = loadedTexture{
		addr: t.rdp.textureToLoad.addr, sizeBytes: sizeBytes,
		lineSizeBytes: sizeBytes, fullImageLineSizeBytes: sizeBytes,
	}
	t.rdp.texturesChanged[idx] = true
}

const textureImageFrac = 2

func (t *translator) dpLoadTile(tileIdx uint8, uls, ult, lrs, lrt uint32) {
	shift := wordSizeShift(t.rdp.textureToLoad.siz)
	sizeBytes := (((lrs-uls)>>textureImageFrac + 1) * ((lrt-ult)>>textureImageFrac + 1)) << shift
	fullLine := (t.rdp.textureToLoad.width + 1) << shift
	lineSize := ((lrs-uls)>>textureImageFrac + 1) << shift
	startOffset := fullLine*(ult>>textureImageFrac) + ((uls >> textureImageFrac) << shift)

	idx := t.rdp.textureTile[tileIdx].tmemIndex
	t.rdp.loadedTexture[idx] = loadedTexture{
		addr: t.rdp.textureToLoad.addr + startOffset, sizeBytes: sizeBytes,
		lineSizeBytes: lineSize, fullImageLineSizeBytes: fullLine,
	}
	tl := &t.rdp.textureTile[tileIdx]
	tl.uls, tl.ult, tl.lrs, tl.lrt = uint16(uls), uint16(ult), uint16(lrs), uint16(lrt)
	t.rdp.texturesChanged[idx] = true
}

func (t *translator) dpSetFillColor(packed uint32) {
	col16 := uint16(packed)
	r := uint8(col16 >> 11 & 0x1f)
	g := uint8(col16 >> 6 & 0x1f)
	b := uint8(col16 >> 1 & 0x1f)
	a := uint8(col16 & 1)
	alpha := uint8(0)
	if a != 0 {
		alpha = 255
	}
	t.rdp.fillColor = rgba{scale5to8(r), scale5to8(g), scale5to8(b), alpha}
}
