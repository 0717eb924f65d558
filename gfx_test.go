package gfx

import "testing"

func newTestTranslatorPublic() (*Translator, *fakeBackend, *fakeWindow, *fakeLoader) {
	b := newFakeBackend()
	w := newFakeWindow(320, 240)
	l := newFakeLoader()
	tr := New(b, w, l)
	return tr, b, w, l
}

func TestNewDefaultsToF3DEX2(t *testing.T) {
	tr, _, _, _ := newTestTranslatorPublic()
	if tr.t.abi != abiF3DEX2 {
		t.Errorf("default ABI = %v, want abiF3DEX2", tr.t.abi)
	}
}

func TestWithABIOption(t *testing.T) {
	b, w, l := newFakeBackend(), newFakeWindow(320, 240), newFakeLoader()
	tr := New(b, w, l, WithABI(ABIF3DEX1))
	if tr.t.abi != abiF3DEX1 {
		t.Errorf("WithABI(ABIF3DEX1) did not take effect: got %v", tr.t.abi)
	}
}

func TestInitWarmsUpPrecompiledShaders(t *testing.T) {
	tr, b, _, _ := newTestTranslatorPublic()
	if err := tr.Init(320, 240); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(b.shaders) == 0 {
		t.Errorf("expected Init to warm up at least one precompiled shader")
	}
}

func TestInitPropagatesBackendError(t *testing.T) {
	b := newFakeBackend()
	tr := New(b, newFakeWindow(320, 240), newFakeLoader())
	// Wrap the backend's Init to fail by swapping in a failing one via a
	// dedicated type, since fakeBackend.Init never fails on its own.
	tr2 := New(&failingInitBackend{}, newFakeWindow(320, 240), newFakeLoader())
	if err := tr2.Init(320, 240); err == nil {
		t.Errorf("expected Init to propagate a backend Init failure")
	}
	_ = tr
}

type failingInitBackend struct{ fakeBackend }

func (b *failingInitBackend) Init(width, height int) error {
	return &CommandError{Operation: "init", Details: "forced"}
}

func TestSetSegmentRegistersBuffer(t *testing.T) {
	tr, _, _, _ := newTestTranslatorPublic()
	data := []byte{1, 2, 3, 4}
	tr.SetSegment(2, data)
	if got := tr.t.segmentBase[2]; len(got) != 4 {
		t.Errorf("SetSegment did not register the buffer")
	}
}

func TestStartFrameLatchesDimensions(t *testing.T) {
	tr, _, w, _ := newTestTranslatorPublic()
	w.width, w.height = 640, 480
	tr.StartFrame()
	gotW, gotH := tr.GetDimensions()
	if gotW != 640 || gotH != 480 {
		t.Errorf("GetDimensions() = (%d,%d), want (640,480)", gotW, gotH)
	}
}

func TestStartFrameGuardsZeroHeight(t *testing.T) {
	tr, _, w, _ := newTestTranslatorPublic()
	w.width, w.height = 640, 0
	tr.StartFrame()
	_, h := tr.GetDimensions()
	if h != 1 {
		t.Errorf("GetDimensions height = %d, want 1 (guarded against divide-by-zero)", h)
	}
}

func TestRunDroppedFrameSkipsBackend(t *testing.T) {
	tr, b, w, _ := newTestTranslatorPublic()
	tr.Init(320, 240)
	w.dropNext = true
	tr.StartFrame()
	dl := []uint32{uint32(opEndDL) << 24, 0}
	if err := tr.Run(dl); err != nil {
		t.Fatalf("Run: %v", err)
	}
	before := len(b.drawCalls)
	tr.EndFrame()
	if len(b.drawCalls) != before {
		t.Errorf("EndFrame after a dropped frame should not touch the backend further")
	}
}

func TestRunEndToEnd(t *testing.T) {
	tr, _, _, _ := newTestTranslatorPublic()
	if err := tr.Init(320, 240); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tr.StartFrame()
	dl := []uint32{uint32(opEndDL) << 24, 0}
	if err := tr.Run(dl); err != nil {
		t.Fatalf("Run: %v", err)
	}
	tr.EndFrame()
}

func TestSetFrameDivisorForwardsToWindow(t *testing.T) {
	tr, _, w, _ := newTestTranslatorPublic()
	tr.SetFrameDivisor(3)
	if w.divisor != 3 {
		t.Errorf("window divisor = %d, want 3", w.divisor)
	}
}

func TestCurrentRenderingBackendReturnsConstructorArg(t *testing.T) {
	tr, b, _, _ := newTestTranslatorPublic()
	if tr.CurrentRenderingBackend() != b {
		t.Errorf("CurrentRenderingBackend() did not return the backend passed to New")
	}
}

func TestInvalidateTextureClearsEntry(t *testing.T) {
	tr, _, _, _ := newTestTranslatorPublic()
	tr.t.textures.lookup(0x5000, fmtRGBA, siz16b, 0)
	tr.InvalidateTexture(0x5000)
	_, hit := tr.t.textures.lookup(0x5000, fmtRGBA, siz16b, 0)
	if hit {
		t.Errorf("expected InvalidateTexture to force a miss on the next lookup")
	}
}
