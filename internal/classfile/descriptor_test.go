package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamCount(t *testing.T) {
	cases := []struct {
		desc string
		want int
	}{
		{"()V", 0},
		{"(I)V", 1},
		{"(IJD)V", 3},
		{"(Ljava/lang/String;)V", 1},
		{"([Ljava/lang/String;)V", 1},
		{"(I[IDLjava/lang/Object;)Z", 4},
	}
	for _, c := range cases {
		got, err := ParamCount(c.desc)
		require.NoError(t, err, c.desc)
		assert.Equal(t, c.want, got, c.desc)
	}
}

func TestParamCountMalformed(t *testing.T) {
	_, err := ParamCount("I)V")
	assert.Error(t, err)

	_, err = ParamCount("(I")
	assert.Error(t, err)

	_, err = ParamCount("(Q)V")
	assert.Error(t, err)
}

func TestReturnDescriptor(t *testing.T) {
	ret, err := ReturnDescriptor("(I)Ljava/lang/String;")
	require.NoError(t, err)
	assert.Equal(t, "Ljava/lang/String;", ret)

	ret, err = ReturnDescriptor("()V")
	require.NoError(t, err)
	assert.Equal(t, "V", ret)
}

func TestObjectAndArrayDescriptors(t *testing.T) {
	assert.True(t, IsObjectDescriptor("Ljava/lang/String;"))
	assert.False(t, IsObjectDescriptor("I"))
	assert.True(t, IsArrayDescriptor("[I"))
	assert.False(t, IsArrayDescriptor("I"))
}

func TestNewArrayElemDesc(t *testing.T) {
	desc, err := NewArrayElemDesc(ATInt)
	require.NoError(t, err)
	assert.Equal(t, "I", desc)

	_, err = NewArrayElemDesc(99)
	assert.Error(t, err)
}

func TestObjectClassName(t *testing.T) {
	assert.Equal(t, "java/lang/String", ObjectClassName("Ljava/lang/String;"))
	assert.Equal(t, "I", ObjectClassName("I"))
}
