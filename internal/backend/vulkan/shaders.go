package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Embedded SPIR-V for the combiner pipeline's vertex/fragment stages,
// adapted from the teacher's embedded-placeholder-SPIR-V idiom
// (voodoo_shaders.go): a real build would compile these from GLSL that
// implements the two-cycle combiner ALU (see ShaderSpec.Inputs) per
// compiled variant, one pair per distinct shaderID0/shaderID1; what's
// embedded here is the minimal valid-header placeholder the teacher used
// before its own real shaders existed.
//
// Vertex shader GLSL sketch (per-ShaderSpec variants substitute the
// combiner's resolved per-input sourcing for fragColor):
//
//	#version 450
//	layout(location = 0) in vec4 inPosition;
//	layout(location = 1) in vec2 inTexCoord;
//	layout(location = 2) in vec4 inColor;
//	layout(location = 0) out vec4 fragColor;
//	layout(location = 1) out vec2 fragTexCoord;
//	void main() {
//		gl_Position = inPosition;
//		fragColor = inColor;
//		fragTexCoord = inTexCoord;
//	}
//
// Fragment shader GLSL sketch (the combiner's two cycles collapse to a
// sequence of per-input multiplies/adds resolved at CreateShader time from
// ShaderSpec.Inputs rather than at draw time):
//
//	#version 450
//	layout(location = 0) in vec4 fragColor;
//	layout(location = 1) in vec2 fragTexCoord;
//	layout(location = 0) out vec4 outColor;
//	layout(binding = 0) uniform sampler2D texel0;
//	layout(binding = 1) uniform sampler2D texel1;
//	void main() { outColor = fragColor; }
var (
	combinerVertexSPIRV = []byte{
		0x03, 0x02, 0x23, 0x07, // SPIR-V magic number
		0x00, 0x00, 0x01, 0x00, // version 1.0
		0x00, 0x00, 0x00, 0x00, // generator magic
		0x00, 0x00, 0x00, 0x00, // bound
		0x00, 0x00, 0x00, 0x00, // schema
	}
	combinerFragmentSPIRV = []byte{
		0x03, 0x02, 0x23, 0x07,
		0x00, 0x00, 0x01, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
)

// vertexStride is the byte size of one 10-float vertex record:
// x, y, z, w, u, v, r, g, b, a. gfx's emitVertex record length varies with
// the combiner and only matches this for one texture, one color input and
// alpha, without fog or clamp coordinates.
const vertexStride = 10 * 4

// createShaderModule wraps raw SPIR-V bytes into a vk.ShaderModule, the
// direct counterpart of the teacher's createShaderModule.
func (b *Backend) createShaderModule(code []byte) (vk.ShaderModule, error) {
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(b.device, &info, nil, &module); res != vk.Success {
		return vk.NullHandle, fmt.Errorf("vkCreateShaderModule failed: %d", res)
	}
	return module, nil
}

// vertexInputBindingDescription describes vertexStride-byte vertex records
// to the pipeline, the combiner-pipeline analogue of
// GetVertexInputBindingDescription.
func vertexInputBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    vertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
}

// vertexInputAttributeDescriptions lays out the x/y/z/w, u/v, r/g/b/a
// fields at their byte offsets within one vertex record.
func vertexInputAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 4 * 4},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: 6 * 4},
	}
}

// sliceUint32 reinterprets a SPIR-V byte blob as the []uint32 words the
// Vulkan API expects, matching the teacher's sliceUint32 helper.
func sliceUint32(data []byte) []uint32 {
	out := make([]uint32, (len(data)+3)/4)
	for i := range out {
		for j := 0; j < 4; j++ {
			idx := i*4 + j
			if idx < len(data) {
				out[i] |= uint32(data[idx]) << uint(j*8)
			}
		}
	}
	return out
}
