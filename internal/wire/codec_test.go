package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutUint64(buf, 10)
	// S1: a 10-byte file_size is wire-represented as 00 00 00 00 00 00 00 0A
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0x0A}, buf)
	assert.Equal(t, uint64(10), Uint64(buf))
}

func TestUint32RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutUint32(buf, 0x46494C45) // "FILE"
	require.Equal(t, []byte{0x46, 0x49, 0x4C, 0x45}, buf)
	assert.Equal(t, uint32(0x46494C45), Uint32(buf))
}

func TestBigEndianNotHostEndian(t *testing.T) {
	// Regardless of host architecture the high byte must come first.
	buf := make([]byte, 8)
	PutUint64(buf, 0x0102030405060708)
	assert.Equal(t, byte(0x01), buf[0])
	assert.Equal(t, byte(0x08), buf[7])
}
