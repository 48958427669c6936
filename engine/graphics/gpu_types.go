package graphics

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GlobalUniform is the GPU-aligned engine-wide uniform block, shared by every
// entity's shader invocation through bind group 0. Matches the WGSL
// GlobalUniform struct layout exactly (48 bytes, vec4-aligned; only the xy
// lanes are meaningful). A negative camera scale component inverts that axis.
type GlobalUniform struct {
	WindowSize     [4]uint32  // offset  0: window pixel size, xy used (vec4<u32>)
	CameraPosition [4]float32 // offset 16: camera world position, xy used (vec4<f32>)
	CameraScale    [4]float32 // offset 32: camera axis scale, xy used (vec4<f32>)
}

// Size returns the size of the GlobalUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GlobalUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GlobalUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GlobalUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], g.WindowSize[i])
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.CameraScale[i]))
	}
	return buf
}
