package headless

import (
	"testing"

	"github.com/zotley/rcp64gfx"
)

func TestEdgeFunctionSign(t *testing.T) {
	// CCW (y up) triangle (0,0)->(1,0)->(0,1): (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
	// = 0*0 - 1*1 = -1, so this winding gives a negative value.
	got := edgeFunction(0, 0, 1, 0, 0, 1)
	if got >= 0 {
		t.Errorf("edgeFunction = %v, want < 0 for this winding", got)
	}
}

func TestClampf(t *testing.T) {
	cases := []struct{ v, lo, hi, want float32 }{
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0.5, 0, 1, 0.5},
	}
	for _, c := range cases {
		if got := clampf(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("clampf(%v,%v,%v) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestMin3Max3(t *testing.T) {
	if got := min3(3, 1, 2); got != 1 {
		t.Errorf("min3 = %v, want 1", got)
	}
	if got := max3(3, 1, 2); got != 3 {
		t.Errorf("max3 = %v, want 3", got)
	}
}

func TestDepthPassesLessMode(t *testing.T) {
	if !depthPasses(0.4, 0.5, gfx.DepthOpaque) {
		t.Errorf("0.4 should pass depth-less test against 0.5")
	}
	if depthPasses(0.6, 0.5, gfx.DepthOpaque) {
		t.Errorf("0.6 should fail depth-less test against 0.5")
	}
}

func TestDepthPassesDecalMode(t *testing.T) {
	if !depthPasses(0.5, 0.5, gfx.DepthDecal) {
		t.Errorf("equal depth should pass in decal mode")
	}
	if depthPasses(0.6, 0.5, gfx.DepthDecal) {
		t.Errorf("greater depth should fail in decal mode")
	}
}

func TestBlendFactorValue(t *testing.T) {
	if got := blendFactorValue(gfx.BlendZero, 0.7, 0); got != 0 {
		t.Errorf("BlendZero = %v, want 0", got)
	}
	if got := blendFactorValue(gfx.BlendOne, 0.7, 0); got != 1 {
		t.Errorf("BlendOne = %v, want 1", got)
	}
	if got := blendFactorValue(gfx.BlendSrcAlpha, 0.7, 0); got != 0.7 {
		t.Errorf("BlendSrcAlpha = %v, want 0.7", got)
	}
	if got := blendFactorValue(gfx.BlendOneMinusSrcAlpha, 0.7, 0); got != 0.3 {
		t.Errorf("BlendOneMinusSrcAlpha = %v, want 0.3", got)
	}
}

func TestInitAllocatesBuffers(t *testing.T) {
	b := New()
	if err := b.Init(4, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	px := b.ReadPixels()
	if len(px) != 4*4*4 {
		t.Fatalf("len(ReadPixels()) = %d, want %d", len(px), 4*4*4)
	}
}

func TestClearFillsColorBuffer(t *testing.T) {
	b := New()
	b.Init(2, 2)
	b.Clear(10, 20, 30, 40)
	px := b.ReadPixels()
	for i := 0; i < len(px); i += 4 {
		if px[i] != 10 || px[i+1] != 20 || px[i+2] != 30 || px[i+3] != 40 {
			t.Fatalf("pixel %d = %v, want {10,20,30,40}", i/4, px[i:i+4])
		}
	}
}

func TestDrawTrianglesFillsCoveredPixel(t *testing.T) {
	b := New()
	b.Init(4, 4)
	b.Clear(0, 0, 0, 0)

	// One large CCW triangle covering the whole 4x4 raster, solid red,
	// 10-float records in the layout DrawTriangles reads: x,y,z,w,u,v,r,g,b,a.
	const stride = 10
	vbo := make([]float32, 3*stride)
	verts := [3][2]float32{{-10, -10}, {10, -10}, {0, 10}}
	for i, v := range verts {
		off := i * stride
		vbo[off+0] = v[0]
		vbo[off+1] = v[1]
		vbo[off+2] = 0
		vbo[off+3] = 1
		vbo[off+6] = 1 // r
		vbo[off+7] = 0 // g
		vbo[off+8] = 0 // b
		vbo[off+9] = 1 // a
	}
	// Shift triangle into the middle of the 4x4 viewport.
	for i := range vbo {
		if i%stride == 0 {
			vbo[i] += 2
		}
		if i%stride == 1 {
			vbo[i] += 2
		}
	}

	b.DrawTriangles(vbo, stride, 1)
	px := b.ReadPixels()
	idx := (2*4 + 2) * 4
	if px[idx] != 255 || px[idx+1] != 0 || px[idx+2] != 0 {
		t.Errorf("center pixel = %v, want solid red", px[idx:idx+4])
	}
}

func TestDrawTrianglesSkipsDegenerateTriangle(t *testing.T) {
	b := New()
	b.Init(4, 4)
	b.Clear(1, 2, 3, 4)
	const stride = 10
	// All three vertices coincide: zero area, must not touch the buffer.
	vbo := make([]float32, 3*stride)
	b.DrawTriangles(vbo, stride, 1)
	px := b.ReadPixels()
	if px[0] != 1 || px[1] != 2 || px[2] != 3 || px[3] != 4 {
		t.Errorf("degenerate triangle modified the framebuffer: %v", px[0:4])
	}
}

func TestShaderCreateAndLookupRoundTrip(t *testing.T) {
	b := New()
	b.Init(4, 4)
	spec := gfx.ShaderSpec{ID0: 0xabc, ID1: 7}
	h, err := b.CreateShader(spec)
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	got, ok := b.LookupShader(0xabc, 7)
	if !ok || got != h {
		t.Errorf("LookupShader did not return the handle just created")
	}
	if _, ok := b.LookupShader(0xabc, 8); ok {
		t.Errorf("LookupShader should miss on a different ID1")
	}
}

func TestUploadTextureAssignsDistinctHandles(t *testing.T) {
	b := New()
	b.Init(4, 4)
	h1, err := b.UploadTexture(make([]byte, 4), 1, 1)
	if err != nil {
		t.Fatalf("UploadTexture: %v", err)
	}
	h2, _ := b.UploadTexture(make([]byte, 4), 1, 1)
	if h1 == h2 {
		t.Errorf("expected distinct texture handles for two uploads")
	}
}

var _ gfx.RasterBackend = (*Backend)(nil)
