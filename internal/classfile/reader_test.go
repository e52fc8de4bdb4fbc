package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderPrimitiveDecoding(t *testing.T) {
	data := []byte{
		0xCA, // U8
		0x01, 0x02, // U16 = 0x0102
		0xFF, 0xFF, 0xFF, 0xFE, // I32 = -2
		0x00, 0x00, 0x00, 0x03, // U32 = 3
	}
	r := NewReader("test", data)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xCA), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	i32, err := r.I32()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), u32)

	assert.False(t, r.HasMore())
}

func TestReaderUTF8(t *testing.T) {
	data := []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	r := NewReader("test", data)

	s, err := r.UTF8()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestReaderUnexpectedEOF(t *testing.T) {
	r := NewReader("test", []byte{0x01})
	_, err := r.U32()
	assert.Error(t, err)
}

func TestReaderBlobIsIndependentCursor(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader("test", data)
	_, err := r.U8()
	require.NoError(t, err)

	sub, err := r.Blob(2)
	require.NoError(t, err)
	b0, err := sub.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x02), b0)

	rest, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x04), rest, "advancing the sub-reader must not move the parent cursor")
}

func TestReaderFloatRoundTrip(t *testing.T) {
	data := []byte{0x3F, 0x80, 0x00, 0x00} // 1.0f
	r := NewReader("test", data)
	f, err := r.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f)
}
