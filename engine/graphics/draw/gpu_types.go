package draw

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// EntityUniform is the GPU-aligned per-entity uniform block, mirrored on the
// CPU and uploaded by FlushAll each frame. Matches the WGSL EntityUniform
// struct layout exactly (64 bytes, vec4-aligned; only the xy lanes of
// position, scale, and image dimensions are meaningful).
type EntityUniform struct {
	Color           [4]float32 // offset  0: RGBA tint (vec4<f32>)
	GlobalPosition  [4]float32 // offset 16: world position, xy used (vec4<f32>)
	Scale           [4]float32 // offset 32: axis scale, xy used (vec4<f32>)
	ImageDimensions [4]uint32  // offset 48: source image size, xy used (vec4<u32>)
}

// Size returns the size of the EntityUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (e *EntityUniform) Size() int {
	return int(unsafe.Sizeof(*e))
}

// Marshal serializes the EntityUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (e *EntityUniform) Marshal() []byte {
	buf := make([]byte, e.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(e.Color[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(e.GlobalPosition[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(e.Scale[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[48+i*4:], e.ImageDimensions[i])
	}
	return buf
}
