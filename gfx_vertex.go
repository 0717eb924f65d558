// gfx_vertex.go - RSP vertex load: clip-space transform, lighting, texgen, fog

package gfx

import "encoding/binary"

// rawVertex is the 16-byte N64 Vtx layout: ob[3]int16, flag uint16,
// tc[2]int16, cn[4]uint8. When lighting is enabled cn[0:3] is instead a
// signed eye-space normal and cn[3] remains alpha.
const rawVertexSize = 16

func decodeRawVertex(b []byte) (ob [3]int16, tc [2]int16, cn [4]uint8) {
	ob[0] = int16(binary.BigEndian.Uint16(b[0:2]))
	ob[1] = int16(binary.BigEndian.Uint16(b[2:4]))
	ob[2] = int16(binary.BigEndian.Uint16(b[4:6]))
	tc[0] = int16(binary.BigEndian.Uint16(b[8:10]))
	tc[1] = int16(binary.BigEndian.Uint16(b[10:12]))
	cn[0], cn[1], cn[2], cn[3] = b[12], b[13], b[14], b[15]
	return
}

func adjustXForAspect(x float32, aspect float32) float32 {
	return x * (4.0 / 3.0) / aspect
}

// spVertex loads n vertices from raw memory starting at destIndex in the
// loaded-vertex buffer, the Go analogue of gfx_sp_vertex.
func (t *translator) spVertex(n, destIndex int, data []byte) {
	for i := 0; i < n && destIndex+i < len(t.rsp.loadedVertices); i++ {
		if (i+1)*rawVertexSize > len(data) {
			return
		}
		ob, tc, cn := decodeRawVertex(data[i*rawVertexSize:])
		d := &t.rsp.loadedVertices[destIndex+i]

		mp := t.rsp.mpMatrix
		x := float32(ob[0])*mp[0][0] + float32(ob[1])*mp[1][0] + float32(ob[2])*mp[2][0] + mp[3][0]
		y := float32(ob[0])*mp[0][1] + float32(ob[1])*mp[1][1] + float32(ob[2])*mp[2][1] + mp[3][1]
		z := float32(ob[0])*mp[0][2] + float32(ob[1])*mp[1][2] + float32(ob[2])*mp[2][2] + mp[3][2]
		w := float32(ob[0])*mp[0][3] + float32(ob[1])*mp[1][3] + float32(ob[2])*mp[2][3] + mp[3][3]

		x = adjustXForAspect(x, t.dimensions.aspect)

		u := int32(tc[0]) * int32(t.rsp.texScaleS) >> 16
		v := int32(tc[1]) * int32(t.rsp.texScaleT) >> 16

		if t.rsp.geometryMode&geomLighting != 0 {
			nx, ny, nz := float32(int8(cn[0])), float32(int8(cn[1])), float32(int8(cn[2]))
			r, g, b, gu, gv, didTexgen := t.shadeVertex(nx, ny, nz)
			d.R, d.G, d.B = r, g, b
			if didTexgen {
				u, v = gu, gv
			}
		} else {
			d.R, d.G, d.B = cn[0], cn[1], cn[2]
		}

		d.U = float32(int16(u))
		d.V = float32(int16(v))

		// Trivial clip rejection. The near-z plane is deliberately never
		// tested here, matching the reference's commented-out bit 16.
		d.ClipRej = 0
		if x < -w {
			d.ClipRej |= 1
		}
		if x > w {
			d.ClipRej |= 2
		}
		if y < -w {
			d.ClipRej |= 4
		}
		if y > w {
			d.ClipRej |= 8
		}
		if z > w {
			d.ClipRej |= 32
		}

		d.X, d.Y, d.Z, d.W = x, y, z, w

		if t.rsp.geometryMode&geomFog != 0 {
			ww := w
			if ww < 0 {
				if -ww < 0.001 {
					ww = 0.001
				}
			} else if ww < 0.001 {
				ww = 0.001
			}
			winv := float32(1.0) / ww
			if winv < 0 {
				winv = 32767.0
			}
			fogZ := z*winv*float32(t.rsp.fogMul) + float32(t.rsp.fogOffset)
			fogZ = clampF32(fogZ, 0, 255)
			d.A = uint8(fogZ)
		} else {
			d.A = cn[3]
		}
	}
}
