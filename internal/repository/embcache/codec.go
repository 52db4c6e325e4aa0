package embcache

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vectors are stored as packed little-endian float32, 4 bytes per dimension.
const bytesPerDim = 4

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*bytesPerDim)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*bytesPerDim:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%bytesPerDim != 0 {
		return nil, fmt.Errorf("cached embedding has %d bytes, not a multiple of %d", len(data), bytesPerDim)
	}
	vec := make([]float32, len(data)/bytesPerDim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*bytesPerDim:]))
	}
	return vec, nil
}
