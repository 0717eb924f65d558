package gfx

import "testing"

func TestIdentity4(t *testing.T) {
	m := identity4()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if m[i][j] != want {
				t.Errorf("identity4()[%d][%d] = %v, want %v", i, j, m[i][j], want)
			}
		}
	}
}

func TestMatMulIdentity(t *testing.T) {
	a := mat4{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}, {13, 14, 15, 16}}
	got := matMul(a, identity4())
	if got != a {
		t.Errorf("matMul(a, identity) = %v, want %v", got, a)
	}
}

func TestDecodeFixedMatrixIdentity(t *testing.T) {
	// Each integer-part word packs two adjacent columns' integer halves
	// (high 16 bits then low 16 bits); the fractional words are all zero
	// for a matrix with no fractional component.
	words := make([]int32, 16)
	words[0] = 1 << 16 // m[0][0]=1, m[0][1]=0
	words[2] = 1       // m[1][0]=0, m[1][1]=1
	words[5] = 1 << 16 // m[2][2]=1, m[2][3]=0
	words[7] = 1       // m[3][2]=0, m[3][3]=1

	m := decodeFixedMatrix(words)
	if m != identity4() {
		t.Errorf("decodeFixedMatrix(identity words) = %v, want identity", m)
	}
}

func TestDecodeFixedMatrixFraction(t *testing.T) {
	// m[0][0] = 1.5: integer part 1 in the high half of words[0], fractional
	// part 0x8000 (0.5) in the high half of words[8].
	words := make([]int32, 16)
	words[0] = 1 << 16
	frac := uint32(0x8000)
	words[8] = int32(frac << 16)
	m := decodeFixedMatrix(words)
	if m[0][0] != 1.5 {
		t.Errorf("m[0][0] = %v, want 1.5", m[0][0])
	}
}

func TestSpMatrixPushLoadMultiply(t *testing.T) {
	tr := newTestTranslator()
	base := mat4{{2, 0, 0, 0}, {0, 2, 0, 0}, {0, 0, 2, 0}, {0, 0, 0, 1}}
	tr.spMatrix(mtxLoad, base)
	if tr.rsp.modelViewStack[0] != base {
		t.Fatalf("load did not replace top of stack")
	}

	tr.spMatrix(mtxPush|mtxLoad, identity4())
	if tr.rsp.modelViewStackSize != 2 {
		t.Fatalf("modelViewStackSize = %d, want 2", tr.rsp.modelViewStackSize)
	}
	if tr.rsp.modelViewStack[1] != identity4() {
		t.Errorf("pushed+loaded matrix should be identity, got %v", tr.rsp.modelViewStack[1])
	}

	// A multiply (no load bit) composes with the current top.
	tr.spMatrix(0, base)
	got := tr.rsp.modelViewStack[1]
	want := matMul(base, identity4())
	if got != want {
		t.Errorf("multiplied matrix = %v, want %v", got, want)
	}
}

func TestSpMatrixProjectionSeparateFromModelview(t *testing.T) {
	tr := newTestTranslator()
	proj := mat4{{3, 0, 0, 0}, {0, 3, 0, 0}, {0, 0, 3, 0}, {0, 0, 0, 1}}
	tr.spMatrix(mtxProjection|mtxLoad, proj)
	if tr.rsp.pMatrix != proj {
		t.Errorf("projection matrix not loaded")
	}
	if tr.rsp.modelViewStack[0] != identity4() {
		t.Errorf("projection load should not touch modelview stack")
	}
}

func TestSpPopMatrix(t *testing.T) {
	tr := newTestTranslator()
	tr.spMatrix(mtxPush|mtxLoad, identity4())
	tr.spMatrix(mtxPush|mtxLoad, identity4())
	if tr.rsp.modelViewStackSize != 3 {
		t.Fatalf("stack size = %d, want 3", tr.rsp.modelViewStackSize)
	}
	tr.spPopMatrix(2)
	if tr.rsp.modelViewStackSize != 1 {
		t.Errorf("stack size after pop(2) = %d, want 1", tr.rsp.modelViewStackSize)
	}
}

func TestSpPopMatrixPanicsOnUnderflow(t *testing.T) {
	tr := newTestTranslator()
	expectPanic(t, func() {
		tr.spPopMatrix(5)
	})
}

func TestModelViewStackPushRespectsMax(t *testing.T) {
	tr := newTestTranslator()
	for i := 0; i < maxModelViewStack+5; i++ {
		tr.spMatrix(mtxPush, identity4())
	}
	if tr.rsp.modelViewStackSize > maxModelViewStack {
		t.Errorf("modelViewStackSize = %d, exceeds max %d", tr.rsp.modelViewStackSize, maxModelViewStack)
	}
}
