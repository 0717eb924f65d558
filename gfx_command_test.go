package gfx

import "testing"

func packField(dst *uint32, val uint32, pos, width uint) {
	mask := uint32((1 << width) - 1)
	*dst |= (val & mask) << pos
}

func TestRunDLEndDLStops(t *testing.T) {
	tr := newTestTranslator()
	dl := displayList{uint32(opEndDL) << 24, 0, uint32(opNoop) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
}

func TestRunDLNoopUnrecognizedDoesNotError(t *testing.T) {
	tr := newTestTranslator()
	dl := displayList{0xff000000, 0, uint32(opEndDL) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("an unrecognized opcode should be logged and skipped, not returned as an error: %v", err)
	}
}

func TestRunDLGeometryModeSetAndClear(t *testing.T) {
	tr := newTestTranslator()
	tr.rsp.geometryMode = 0xffffffff
	var w0 uint32
	w0 |= uint32(opGeometryMode) << 24
	// clear mask field is bits 0..23; zero means clear everything before OR'ing w1 in.
	dl := displayList{w0, geomShade, uint32(opEndDL) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if tr.rsp.geometryMode != geomShade {
		t.Errorf("geometryMode = 0x%x, want 0x%x", tr.rsp.geometryMode, geomShade)
	}
}

func TestRunDLSetClearGeomMode(t *testing.T) {
	tr := newTestTranslator()
	dl := displayList{
		uint32(opSetGeomMode) << 24, geomShade,
		uint32(opClearGeomMode) << 24, geomShade | geomFog,
		uint32(opEndDL) << 24, 0,
	}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if tr.rsp.geometryMode != 0 {
		t.Errorf("geometryMode = 0x%x, want 0 after set then clear of the same bit", tr.rsp.geometryMode)
	}
}

func TestRunDLSetCombine(t *testing.T) {
	tr := newTestTranslator()
	var w0, w1 uint32
	packField(&w0, ccmuxShade, 20, 4)
	packField(&w0, ccmuxShade, 15, 5)
	dl := displayList{uint32(opSetCombine)<<24 | w0, w1, uint32(opEndDL) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if tr.rdp.combineMode == 0 {
		t.Errorf("expected a nonzero combine mode after SETCOMBINE")
	}
}

func TestRunDLVtxOTRHit(t *testing.T) {
	tr := newTestTranslator()
	raw := encodeRawVertex(5, 6, 7, 0, 0, 1, 2, 3, 4)
	hash := uint64(0x1122334455667788)
	tr.loader.(*fakeLoader).vertices[hash] = raw

	var w0 uint32
	w0 |= uint32(opVtxOTR) << 24
	packField(&w0, 1, 12, 8) // n=1
	packField(&w0, 1, 1, 7)  // v0+n=1 -> v0=0

	dl := displayList{
		w0, 0, // offset=0 in w1 of this pair (read back as dl[i-2+1])
		uint32(hash >> 32), uint32(hash),
		uint32(opEndDL) << 24, 0,
	}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if tr.rsp.loadedVertices[0].X != 5 {
		t.Errorf("expected asset-hash vertex buffer to be loaded into slot 0, X=%v", tr.rsp.loadedVertices[0].X)
	}
}

func TestRunDLVtxOTRMissLogsAndContinues(t *testing.T) {
	tr := newTestTranslator()
	var w0 uint32
	w0 |= uint32(opVtxOTR) << 24
	packField(&w0, 1, 12, 8)
	dl := displayList{w0, 0, 0xdeadbeef, 0xcafebabe, uint32(opEndDL) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("a vertex-buffer miss should not fail the whole display list: %v", err)
	}
}

func TestRunDLSubDisplayListCall(t *testing.T) {
	tr := newTestTranslator()
	// Encode a 2-word (opEndDL, 0) sub display list, big-endian.
	sub := make([]byte, 8)
	sub[0] = byte(opEndDL)
	tr.segmentBase[1] = sub

	var w0 uint32
	w0 |= uint32(opDL) << 24 // bit16 of w0 is 0: push/call, not tail-jump
	dl := displayList{w0, 0x01000000, uint32(opEndDL) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL with a sub-display-list call: %v", err)
	}
}

func TestRunDLTexRectThreeWordPairs(t *testing.T) {
	tr := newTestTranslator()
	var header0, header1 uint32
	packField(&header0, 40, 12, 12) // lrx
	packField(&header0, 40, 0, 12)  // lry
	packField(&header1, 0, 24, 3)   // tile 0
	packField(&header1, 0, 12, 12)  // ulx
	packField(&header1, 0, 0, 12)   // uly

	var stCoords, dsdt uint32
	packField(&stCoords, 0, 16, 16)     // uls
	packField(&stCoords, 0, 0, 16)      // ult
	packField(&dsdt, 1<<10, 16, 16)     // dsdx
	packField(&dsdt, 1<<10, 0, 16)      // dtdy

	dl := displayList{
		uint32(opTexRect)<<24 | header0, header1,
		0, stCoords,
		0, dsdt,
		uint32(opEndDL) << 24, 0,
	}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL texrect: %v", err)
	}
	if tr.vboTris != 2 {
		t.Errorf("vboTris after TEXRECT = %d, want 2", tr.vboTris)
	}
}

func TestRunDLFillRect(t *testing.T) {
	tr := newTestTranslator()
	tr.rdp.colorImgAddr = 1
	tr.rdp.zBufAddr = 2
	var w0, w1 uint32
	packField(&w0, 40, 12, 12)
	packField(&w0, 40, 0, 12)
	dl := displayList{uint32(opFillRect)<<24 | w0, w1, uint32(opEndDL) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL fillrect: %v", err)
	}
	if tr.vboTris != 2 {
		t.Errorf("vboTris after FILLRECT = %d, want 2", tr.vboTris)
	}
}

func TestRunDLSetTImgOTRMissLeavesTextureUnset(t *testing.T) {
	tr := newTestTranslator()
	before := tr.rdp.textureToLoad
	dl := displayList{
		uint32(opSetTImgOTR) << 24, 0,
		0xaaaaaaaa, 0xbbbbbbbb,
		uint32(opEndDL) << 24, 0,
	}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if tr.rdp.textureToLoad != before {
		t.Errorf("a missed asset-hash texture should leave textureToLoad untouched")
	}
}

func TestRunDLSetTImgOTRHit(t *testing.T) {
	tr := newTestTranslator()
	hash := uint64(0x0102030405060708)
	tr.loader.(*fakeLoader).textures[hash] = []byte{1, 2, 3, 4}
	dl := displayList{
		uint32(opSetTImgOTR) << 24, 0,
		uint32(hash >> 32), uint32(hash),
		uint32(opEndDL) << 24, 0,
	}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if len(tr.assetTextures) != 1 {
		t.Errorf("expected the resolved asset texture to be registered under a synthetic address")
	}
}

func TestRunDLMarkerInvokesHook(t *testing.T) {
	tr := newTestTranslator()
	hash := uint64(0x1111111122222222)
	tr.loader.(*fakeLoader).names[hash] = "test_marker"
	var called string
	tr.markerFunc = func(name string, w0, w1 uint32) { called = name }
	dl := displayList{
		uint32(opMarker) << 24, 0,
		uint32(hash >> 32), uint32(hash),
		uint32(opEndDL) << 24, 0,
	}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if called != "test_marker" {
		t.Errorf("markerFunc was called with %q, want %q", called, "test_marker")
	}
}

func TestRunDLInvalTexCacheClears(t *testing.T) {
	tr := newTestTranslator()
	tr.textures.lookup(0x1000, fmtRGBA, siz16b, 0)
	dl := displayList{uint32(opInvalTexCache) << 24, 0, uint32(opEndDL) << 24, 0}
	if err := tr.runDL(dl); err != nil {
		t.Fatalf("runDL: %v", err)
	}
	if tr.textures.poolPos != 0 {
		t.Errorf("expected the texture cache pool to be reset by G_INVALTEXCACHE")
	}
}

func TestDpSetFillColorDecodesRGBA16(t *testing.T) {
	tr := newTestTranslator()
	tr.dpSetFillColor(0xffff)
	if tr.rdp.fillColor != (rgba{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("dpSetFillColor(0xffff) = %+v, want opaque white", tr.rdp.fillColor)
	}
}

func TestSpSetOtherModeMasksAndSets(t *testing.T) {
	tr := newTestTranslator()
	tr.rdp.otherModeL = 0xffffffff
	tr.spSetOtherMode(0, 8, 0x00)
	if tr.rdp.otherModeL&0xff != 0 {
		t.Errorf("low 8 bits of otherModeL = 0x%x, want cleared to 0", tr.rdp.otherModeL&0xff)
	}
	if tr.rdp.otherModeL&0xffffff00 != 0xffffff00 {
		t.Errorf("bits outside the written mask should be untouched")
	}
}

func TestDpSetScissorConvertsToPixelSpace(t *testing.T) {
	tr := newTestTranslator()
	tr.dpSetScissor(0, 0, 320*4, 240*4)
	if tr.rdp.scissor.Width == 0 || tr.rdp.scissor.Height == 0 {
		t.Errorf("expected a nonzero scissor rect, got %+v", tr.rdp.scissor)
	}
	if !tr.rdp.viewportOrScissorChanged {
		t.Errorf("dpSetScissor should mark viewportOrScissorChanged")
	}
}

func TestWordSizeShiftAllValidSizes(t *testing.T) {
	cases := []struct {
		siz  uint8
		want uint32
	}{
		{siz4b, 0},
		{siz8b, 0},
		{siz16b, 1},
		{siz32b, 2},
	}
	for _, c := range cases {
		if got := wordSizeShift(c.siz); got != c.want {
			t.Errorf("wordSizeShift(%d) = %d, want %d", c.siz, got, c.want)
		}
	}
}

func TestWordSizeShiftPanicsOnUnrecognizedSiz(t *testing.T) {
	expectPanic(t, func() {
		wordSizeShift(4)
	})
}
