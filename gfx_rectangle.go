// gfx_rectangle.go - G_TEXRECT/G_TEXRECTFLIP/G_FILLRECT as synthesized triangles

package gfx

const (
	screenWidth      = 320
	screenHeight     = 240
	halfScreenWidth  = screenWidth / 2
	halfScreenHeight = screenHeight / 2
)

// drawRectangle synthesizes two triangles from the four aux vertex slots,
// the Go analogue of gfx_draw_rectangle: coordinates bypass the viewport
// (forced to the full framebuffer) and lighting/culling are disabled for
// the duration of the draw.
func (t *translator) drawRectangle(ulx, uly, lrx, lry int32) *CommandError {
	savedOtherModeH := t.rdp.otherModeH
	cycleType := (t.rdp.otherModeH >> cycleTypeShift) & 3
	if cycleType == cycleCopy {
		t.rdp.otherModeH = (t.rdp.otherModeH &^ (3 << 12)) // force point-filter (G_TF_POINT = 0)
	}

	ulxf := float32(ulx)/(4.0*halfScreenWidth) - 1.0
	ulyf := -(float32(uly) / (4.0 * halfScreenHeight)) + 1.0
	lrxf := float32(lrx)/(4.0*halfScreenWidth) - 1.0
	lryf := -(float32(lry) / (4.0 * halfScreenHeight)) + 1.0

	ulxf = adjustXForAspect(ulxf, t.dimensions.aspect)
	lrxf = adjustXForAspect(lrxf, t.dimensions.aspect)

	ul := &t.rsp.loadedVertices[auxVtxBase+0]
	ll := &t.rsp.loadedVertices[auxVtxBase+1]
	lr := &t.rsp.loadedVertices[auxVtxBase+2]
	ur := &t.rsp.loadedVertices[auxVtxBase+3]

	ul.X, ul.Y, ul.Z, ul.W = ulxf, ulyf, -1.0, 1.0
	ll.X, ll.Y, ll.Z, ll.W = ulxf, lryf, -1.0, 1.0
	lr.X, lr.Y, lr.Z, lr.W = lrxf, lryf, -1.0, 1.0
	ur.X, ur.Y, ur.Z, ur.W = lrxf, ulyf, -1.0, 1.0

	savedViewport := t.rdp.viewport
	savedGeomMode := t.rsp.geometryMode
	t.rdp.viewport = xyWH{0, 0, uint16(t.dimensions.width), uint16(t.dimensions.height)}
	t.rdp.viewportOrScissorChanged = true
	t.rsp.geometryMode = 0

	err1 := t.spTri1(auxVtxBase+0, auxVtxBase+1, auxVtxBase+3, true)
	err2 := t.spTri1(auxVtxBase+1, auxVtxBase+2, auxVtxBase+3, true)

	t.rsp.geometryMode = savedGeomMode
	t.rdp.viewport = savedViewport
	t.rdp.viewportOrScissorChanged = true

	if cycleType == cycleCopy {
		t.rdp.otherModeH = savedOtherModeH
	}

	if err1 != nil {
		return err1
	}
	return err2
}

// texRect draws G_TEXRECT/G_TEXRECTFLIP, assigning U10.5/S5.10 texcoords to
// the four aux vertices before handing off to drawRectangle.
func (t *translator) texRect(ulx, uly, lrx, lry int32, tileIdx uint8, uls, ult, dsdx, dtdy int16, flip bool) *CommandError {
	savedCombine := t.rdp.combineMode
	if (t.rdp.otherModeH>>cycleTypeShift)&3 == cycleCopy {
		dsdx >>= 2
		t.rdp.combineMode = packCycle(combColorFormula(0, 0, 0, ccmuxTexel0), combAlphaFormula(0, 0, 0, acmuxTexel0))
		lrx += 1 << 2
		lry += 1 << 2
	}

	if flip {
		dsdx, dtdy = -dsdx, -dtdy
	}
	var width, height int16
	if !flip {
		width, height = int16(lrx-ulx), int16(lry-uly)
	} else {
		width, height = int16(lry-uly), int16(lrx-ulx)
	}
	lrs := float32((int32(uls)<<7 + int32(dsdx)*int32(width)) >> 7)
	lrt := float32((int32(ult)<<7 + int32(dtdy)*int32(height)) >> 7)

	ul := &t.rsp.loadedVertices[auxVtxBase+0]
	ll := &t.rsp.loadedVertices[auxVtxBase+1]
	lr := &t.rsp.loadedVertices[auxVtxBase+2]
	ur := &t.rsp.loadedVertices[auxVtxBase+3]
	ul.U, ul.V = float32(uls), float32(ult)
	lr.U, lr.V = lrs, lrt
	if !flip {
		ll.U, ll.V = float32(uls), lrt
		ur.U, ur.V = lrs, float32(ult)
	} else {
		ll.U, ll.V = lrs, float32(ult)
		ur.U, ur.V = float32(uls), lrt
	}

	savedTile := t.rdp.firstTileIndex
	if savedTile != tileIdx {
		t.rdp.texturesChanged[0] = true
		t.rdp.texturesChanged[1] = true
	}
	t.rdp.firstTileIndex = tileIdx

	err := t.drawRectangle(ulx, uly, lrx, lry)

	if savedTile != tileIdx {
		t.rdp.texturesChanged[0] = true
		t.rdp.texturesChanged[1] = true
	}
	t.rdp.firstTileIndex = savedTile
	t.rdp.combineMode = savedCombine
	return err
}

// fillRect draws G_FILLRECT, painting the four aux vertices with the
// current fill color. ulx==0 && uly==0 && lrx==319*4 && lry==239*4 is kept
// as a documented widescreen hack: the reference stretches this one exact
// full-screen fade rectangle well past the 4:3 clip volume so it still
// covers the frame once the aspect-correction above has narrowed it.
func (t *translator) fillRect(ulx, uly, lrx, lry int32) *CommandError {
	if t.rdp.colorImgAddr == t.rdp.zBufAddr {
		return nil
	}
	mode := (t.rdp.otherModeH >> cycleTypeShift) & 3

	if ulx == 0 && uly == 0 && lrx == 319*4 && lry == 239*4 {
		ulx, uly, lrx, lry = -1024, -1024, 2048, 2048
	}

	if mode == cycleCopy || mode == cycleFill {
		lrx += 1 << 2
		lry += 1 << 2
	}

	for i := auxVtxBase; i < auxVtxBase+4; i++ {
		v := &t.rsp.loadedVertices[i]
		v.R, v.G, v.B, v.A = t.rdp.fillColor.R, t.rdp.fillColor.G, t.rdp.fillColor.B, t.rdp.fillColor.A
	}

	savedCombine := t.rdp.combineMode
	if mode == cycleFill {
		t.rdp.combineMode = packCycle(combColorFormula(0, 0, 0, ccmuxShade), combAlphaFormula(0, 0, 0, acmuxShade))
	}

	err := t.drawRectangle(ulx, uly, lrx, lry)
	t.rdp.combineMode = savedCombine
	return err
}

// s2dexBGCopy is the S2DEX background helper: a full-screen texture-rect
// blit used for prerendered 2D backdrops, only meaningful in COPY cycle
// mode with no scale or flip applied.
func (t *translator) s2dexBGCopy(frameX, frameY int16, imageW, imageH uint16, imageX, imageY int16, tileIdx uint8) *CommandError {
	return t.texRect(
		int32(frameX), int32(frameY),
		int32(frameX)+int32(imageW)-4, int32(frameY)+int32(imageH)-4,
		tileIdx,
		imageX<<3, imageY<<3,
		4<<10, 1<<10,
		false,
	)
}
