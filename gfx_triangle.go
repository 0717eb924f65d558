// gfx_triangle.go - triangle assembly: cull, state diff, combiner-driven VBO emission

package gfx

// auxVtxBase is where the two synthesized rectangle-fill triangles borrow
// their four corner vertices from, past the addressable vertex buffer.
const auxVtxBase = 64

func inputSlotToShaderInput(sel uint8) ShaderInput {
	switch sel {
	case ccmuxPrimitive, ccmuxPrimAlpha:
		return InputPrimitive
	case ccmuxEnvironment, ccmuxEnvAlpha:
		return InputEnvironment
	case ccmuxShade:
		return InputShade
	case ccmuxLODFraction:
		return InputLODFraction
	case ccmuxPrimLODFrac:
		return InputOneMinusLODFraction
	default:
		return InputShade
	}
}

// shaderSpecFor builds the backend-facing description of one compiled
// combiner variant the first time a backend needs to create it.
func shaderSpecFor(e *combinerEntry, tm uint32) ShaderSpec {
	spec := ShaderSpec{ID0: e.shaderID0, ID1: e.shaderID1 | tm, UsedTextures: e.usedTextures}
	spec.UsesFog = e.ccID&(uint64(shaderOptFog)<<ccShaderOptPos) != 0
	spec.UsesNoise = e.ccID&(uint64(shaderOptNoise)<<ccShaderOptPos) != 0
	spec.UsesTexEdge = e.ccID&(uint64(shaderOptTextureEdge)<<ccShaderOptPos) != 0
	spec.TwoCycle = e.ccID&(uint64(shaderOpt2Cyc)<<ccShaderOptPos) != 0
	useAlpha := e.ccID&(uint64(shaderOptAlpha)<<ccShaderOptPos) != 0
	channels := 1
	if useAlpha {
		channels = 2
	}
	for ch := 0; ch < channels; ch++ {
		n := 0
		for _, sel := range e.inputMapping[ch] {
			if sel == 0 {
				continue
			}
			spec.Inputs[ch][n] = inputSlotToShaderInput(sel)
			n++
		}
		spec.NumInputs[ch] = n
	}
	return spec
}

func (t *translator) lookupOrCreateShaderProgram(e *combinerEntry, tm uint32) (ShaderHandle, error) {
	if h, ok := e.prg[tm]; ok {
		return h, nil
	}
	if h, ok := t.backend.LookupShader(e.shaderID0, e.shaderID1|tm); ok {
		e.prg[tm] = h
		return h, nil
	}
	h, err := t.backend.CreateShader(shaderSpecFor(e, tm))
	if err != nil {
		return nil, err
	}
	e.prg[tm] = h
	return h, nil
}

// flush drains the buffered triangles to the backend, the Go analogue of
// gfx_flush.
func (t *translator) flush() {
	if t.vboTris == 0 {
		return
	}
	t.backend.DrawTriangles(t.vbo, t.vboStride, t.vboTris)
	t.vbo = t.vbo[:0]
	t.vboTris = 0
}

// spTri1 assembles and potentially flushes one triangle referencing three
// loaded-vertex slots, the Go analogue of gfx_sp_tri1.
func (t *translator) spTri1(i1, i2, i3 int, isRect bool) *CommandError {
	v := [3]*vertex{&t.rsp.loadedVertices[i1], &t.rsp.loadedVertices[i2], &t.rsp.loadedVertices[i3]}

	if v[0].ClipRej&v[1].ClipRej&v[2].ClipRej != 0 {
		return nil
	}

	if t.rsp.geometryMode&(geomCullFront|geomCullBack) != 0 {
		dx1 := v[0].X/v[0].W - v[1].X/v[1].W
		dy1 := v[0].Y/v[0].W - v[1].Y/v[1].W
		dx2 := v[2].X/v[2].W - v[1].X/v[1].W
		dy2 := v[2].Y/v[2].W - v[1].Y/v[1].W
		cross := dx1*dy2 - dy1*dx2

		neg := (v[0].W < 0) != (v[1].W < 0)
		neg = neg != (v[2].W < 0)
		if neg {
			cross = -cross
		}

		switch t.rsp.geometryMode & (geomCullFront | geomCullBack) {
		case geomCullFront:
			if cross <= 0 {
				return nil
			}
		case geomCullBack:
			if cross >= 0 {
				return nil
			}
		case geomCullFront | geomCullBack:
			return nil
		}
	}

	t.diffDepthTest(t.rsp.geometryMode&geomZBuffer != 0)
	t.diffDepthMask(t.rdp.otherModeL&renderZUpdate != 0)
	t.diffDepthMode(t.rdp.otherModeL&(3<<10) == zmodeDecal<<10)
	t.diffViewportScissor()

	useAlpha, useFog, texEdge, useNoise, use2Cyc := optionWordFor(t.rdp.otherModeL, t.rdp.otherModeH, t.rdp.fogColor.A)
	_ = texEdge
	_ = useNoise
	_ = use2Cyc
	ccID := combineModeID(t.rdp.combineMode, t.rdp.otherModeL, t.rdp.otherModeH, t.rdp.fogColor.A)
	comb := t.combiners.lookupOrCreate(ccID)

	var tm uint32
	var texWidth, texHeight [2]int
	for i := 0; i < 2; i++ {
		if !comb.usedTextures[i] {
			continue
		}
		tileIdx := int(t.rdp.firstTileIndex) + i
		if t.rdp.texturesChanged[i] {
			t.flush()
			if err := t.loadTileTexture(i, tileIdx, isRect); err != nil {
				return err
			}
			t.rdp.texturesChanged[i] = false
		}

		tl := &t.rdp.textureTile[tileIdx]
		cms, cmt := tl.cms, tl.cmt

		sizeBytes := t.rdp.loadedTexture[tl.tmemIndex].sizeBytes
		lineSize := tl.lineSizeBytes
		if lineSize == 0 {
			lineSize = 1
		}
		h := int(sizeBytes / lineSize)
		switch tl.siz {
		case siz4b:
			lineSize <<= 1
		case siz16b:
			lineSize /= 2
		case siz32b:
			lineSize /= 4
			h /= 2
		}
		w := int(lineSize)
		if isRect && (tl.fmt == fmtI || tl.fmt == fmtIA) {
			w, h = resampledDims(w, h, tl.shiftS, tl.shiftT)
		}
		texWidth[i], texHeight[i] = w, h

		w2 := (int(tl.lrs) - int(tl.uls) + 4) / 4
		h2 := (int(tl.lrt) - int(tl.ult) + 4) / 4

		w1 := w << (cms & texMirror)
		h1 := h << (cmt & texMirror)

		if cms&texClamp != 0 && (cms&texMirror != 0 || w1 != w2) {
			tm |= 1 << uint(2*i)
			cms &^= texClamp
		}
		if cmt&texClamp != 0 && (cmt&texMirror != 0 || h1 != h2) {
			tm |= 1 << uint(2*i+1)
			cmt &^= texClamp
		}

		linear := t.textureFilterIsLinear()
		cur := t.rs.samplerState[i]
		if linear != cur.LinearFilter || cms != cur.clampS() || cmt != cur.clampT() {
			t.flush()
			p := SamplerParams{
				ClampS: cms&texClamp != 0, ClampT: cmt&texClamp != 0,
				MirrorS: cms&texMirror != 0, MirrorT: cmt&texMirror != 0,
				LinearFilter: linear,
			}
			t.backend.SetSamplerParams(i, p)
			t.rs.samplerState[i] = samplerCacheEntry{p, cms, cmt}
		}
	}

	prg, err := t.lookupOrCreateShaderProgram(comb, tm)
	if err != nil {
		t.logf("shader create failed: %v", err)
		return nil
	}
	if prg != t.rs.shader {
		t.flush()
		t.backend.BindShader(prg)
		t.rs.shader = prg
	}
	if useAlpha != t.rs.alphaBlend {
		t.flush()
		t.backend.SetBlend(useAlpha, BlendSrcAlpha, BlendOneMinusSrcAlpha)
		t.rs.alphaBlend = useAlpha
	}

	stride := t.strideFor(comb, useAlpha, useFog, tm)
	if t.vboTris > 0 && stride != t.vboStride {
		t.flush()
	}
	t.vboStride = stride

	for i := 0; i < 3; i++ {
		t.emitVertex(v[i], comb, useAlpha, useFog, tm, texWidth, texHeight, v[0], isRect)
	}

	t.vboTris++
	if t.vboTris == maxBufferedTris {
		t.flush()
	}
	return nil
}

type samplerCacheEntry struct {
	SamplerParams
	cms, cmt uint8
}

func (s samplerCacheEntry) clampS() uint8 { return s.cms }
func (s samplerCacheEntry) clampT() uint8 { return s.cmt }

func (t *translator) textureFilterIsLinear() bool {
	const textFiltShift = 12
	return (t.rdp.otherModeH>>textFiltShift)&3 != 0
}

func (t *translator) strideFor(comb *combinerEntry, useAlpha, useFog bool, tm uint32) int {
	n := 4 // x,y,z,w
	for i := 0; i < 2; i++ {
		if !comb.usedTextures[i] {
			continue
		}
		n += 2
		if tm&(1<<uint(2*i)) != 0 {
			n++
		}
		if tm&(1<<uint(2*i+1)) != 0 {
			n++
		}
	}
	if useFog {
		n += 4
	}
	channels := 1
	if useAlpha {
		channels = 2
	}
	for ch := 0; ch < channels; ch++ {
		for _, sel := range comb.inputMapping[ch] {
			if sel == 0 {
				continue
			}
			if ch == 0 {
				n += 3
			} else {
				n++
			}
		}
	}
	return n
}

func (t *translator) emitVertex(v *vertex, comb *combinerEntry, useAlpha, useFog bool, tm uint32, texWidth, texHeight [2]int, v0 *vertex, isRect bool) {
	z := v.Z
	t.vbo = append(t.vbo, v.X, v.Y, z, v.W)

	for i := 0; i < 2; i++ {
		if !comb.usedTextures[i] {
			continue
		}
		tl := &t.rdp.textureTile[int(t.rdp.firstTileIndex)+i]
		u := v.U / 32.0
		vv := v.V / 32.0
		// resampled is true when loadTileTexture already rescaled the backing
		// bitmap for this shift factor (rect draws only, see
		// resampleForTileShift); applying the shift to both the bitmap and the
		// UV coordinate would scale the tile twice.
		resampled := isRect && (tl.fmt == fmtI || tl.fmt == fmtIA)
		if !resampled {
			if tl.shiftS != 0 {
				if tl.shiftS <= 10 {
					u /= float32(uint32(1) << tl.shiftS)
				} else {
					u *= float32(uint32(1) << (16 - tl.shiftS))
				}
			}
			if tl.shiftT != 0 {
				if tl.shiftT <= 10 {
					vv /= float32(uint32(1) << tl.shiftT)
				} else {
					vv *= float32(uint32(1) << (16 - tl.shiftT))
				}
			}
		}
		u -= float32(tl.uls) / 4.0
		vv -= float32(tl.ult) / 4.0

		if !isRect && t.textureFilterIsLinear() {
			u += 0.5
			vv += 0.5
		}

		t.vbo = append(t.vbo, u/float32(texWidth[i]), vv/float32(texHeight[i]))
		if tm&(1<<uint(2*i)) != 0 {
			t.vbo = append(t.vbo, (float32(int((tl.lrs-tl.uls+4)/4))-0.5)/float32(texWidth[i]))
		}
		if tm&(1<<uint(2*i+1)) != 0 {
			t.vbo = append(t.vbo, (float32(int((tl.lrt-tl.ult+4)/4))-0.5)/float32(texHeight[i]))
		}
	}

	if useFog {
		t.vbo = append(t.vbo,
			float32(t.rdp.fogColor.R)/255.0,
			float32(t.rdp.fogColor.G)/255.0,
			float32(t.rdp.fogColor.B)/255.0,
			float32(v.A)/255.0,
		)
	}

	channels := 1
	if useAlpha {
		channels = 2
	}
	for ch := 0; ch < channels; ch++ {
		for _, sel := range comb.inputMapping[ch] {
			if sel == 0 {
				continue
			}
			r, g, b, a := t.resolveShaderInput(sel, v, v0, useFog)
			if ch == 0 {
				t.vbo = append(t.vbo, r, g, b)
			} else {
				t.vbo = append(t.vbo, a)
			}
		}
	}
}

// resolveShaderInput maps a canonical input slot to the per-vertex color it
// sources from, matching the reference's G_CCMUX_*/G_ACMUX_* color switch.
func (t *translator) resolveShaderInput(sel uint8, v, v0 *vertex, useFog bool) (r, g, b, a float32) {
	switch sel {
	case ccmuxPrimitive:
		c := t.rdp.primColor
		return float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255
	case ccmuxShade:
		if useFog {
			a = 1.0
		} else {
			a = float32(v.A) / 255
		}
		return float32(v.R) / 255, float32(v.G) / 255, float32(v.B) / 255, a
	case ccmuxEnvironment:
		c := t.rdp.envColor
		return float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255
	case ccmuxPrimAlpha:
		p := float32(t.rdp.primColor.A) / 255
		return p, p, p, p
	case ccmuxEnvAlpha:
		p := float32(t.rdp.envColor.A) / 255
		return p, p, p, p
	case ccmuxPrimLODFrac:
		p := float32(t.rdp.primLODFraction) / 255
		return p, p, p, p
	case ccmuxLODFraction:
		frac := float32(1.0)
		if t.rdp.otherModeL&(1<<16) != 0 {
			frac = (v0.W - 3000.0) / 3000.0
			frac = clampF32(frac, 0, 1)
		}
		return frac, frac, frac, frac
	default:
		return 0, 0, 0, 0
	}
}

func (t *translator) diffDepthTest(v bool) {
	if v != t.rs.depthTest {
		t.flush()
		t.backend.SetDepthTest(v)
		t.rs.depthTest = v
	}
}

func (t *translator) diffDepthMask(v bool) {
	if v != t.rs.depthMask {
		t.flush()
		t.backend.SetDepthMask(v)
		t.rs.depthMask = v
	}
}

func (t *translator) diffDepthMode(decal bool) {
	mode := DepthOpaque
	if decal {
		mode = DepthDecal
	}
	if mode != t.rs.depthMode {
		t.flush()
		t.backend.SetDepthMode(mode)
		t.rs.depthMode = mode
	}
}

func (t *translator) diffViewportScissor() {
	if !t.rdp.viewportOrScissorChanged {
		return
	}
	vp := Viewport{int(t.rdp.viewport.X), int(t.rdp.viewport.Y), int(t.rdp.viewport.Width), int(t.rdp.viewport.Height)}
	if vp != t.rs.viewport {
		t.flush()
		t.backend.SetViewport(vp)
		t.rs.viewport = vp
	}
	sc := Viewport{int(t.rdp.scissor.X), int(t.rdp.scissor.Y), int(t.rdp.scissor.Width), int(t.rdp.scissor.Height)}
	if sc != t.rs.scissor {
		t.flush()
		t.backend.SetScissor(sc)
		t.rs.scissor = sc
	}
	t.rdp.viewportOrScissorChanged = false
}

func (t *translator) logf(format string, args ...interface{}) {
	if t.log != nil {
		t.log.Printf(format, args...)
	}
}
