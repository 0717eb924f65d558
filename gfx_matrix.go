// gfx_matrix.go - modelview/projection matrix stack

package gfx

import "fmt"

func matMul(a, b mat4) mat4 {
	var r mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j] + a[i][3]*b[3][j]
		}
	}
	return r
}

// decodeFixedMatrix converts a 16-word fixed-point N64 matrix (8 words of
// integer halves followed by 8 words of fractional halves) into a float32
// 4x4 matrix.
func decodeFixedMatrix(words []int32) mat4 {
	var m mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j += 2 {
			intPart := words[i*2+j/2]
			fracPart := uint32(words[8+i*2+j/2])
			m[i][j] = float32(int32((uint32(intPart)&0xffff0000)|(fracPart>>16))) / 65536.0
			m[i][j+1] = float32(int32((uint32(intPart)<<16)|(fracPart&0xffff))) / 65536.0
		}
	}
	return m
}

func (t *translator) spMatrix(params uint32, m mat4) {
	if params&mtxProjection != 0 {
		if params&mtxLoad != 0 {
			t.rsp.pMatrix = m
		} else {
			t.rsp.pMatrix = matMul(m, t.rsp.pMatrix)
		}
	} else {
		top := t.rsp.modelViewStackSize - 1
		if params&mtxPush != 0 && t.rsp.modelViewStackSize < maxModelViewStack {
			t.rsp.modelViewStackSize++
			top++
			t.rsp.modelViewStack[top] = t.rsp.modelViewStack[top-1]
		}
		if params&mtxLoad != 0 {
			t.rsp.modelViewStack[top] = m
		} else {
			t.rsp.modelViewStack[top] = matMul(m, t.rsp.modelViewStack[top])
		}
		t.rsp.lightsChanged = true
	}
	top := t.rsp.modelViewStackSize - 1
	t.rsp.mpMatrix = matMul(t.rsp.modelViewStack[top], t.rsp.pMatrix)
}

// spPopMatrix pops count entries off the modelview stack. Popping past the
// bottom is a hard assertion, not a recoverable condition: a display list
// that pops more than it pushed is malformed and the reference itself would
// read the stack out of bounds.
func (t *translator) spPopMatrix(count uint32) {
	for ; count > 0; count-- {
		if t.rsp.modelViewStackSize == 0 {
			panic(fmt.Sprintf("gfx: modelview stack underflow popping %d more (already empty)", count))
		}
		t.rsp.modelViewStackSize--
		if t.rsp.modelViewStackSize > 0 {
			top := t.rsp.modelViewStackSize - 1
			t.rsp.mpMatrix = matMul(t.rsp.modelViewStack[top], t.rsp.pMatrix)
		}
	}
}
