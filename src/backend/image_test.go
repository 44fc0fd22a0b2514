package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageEmitAndReadBack(t *testing.T) {
	img := NewImage()
	img.Emit1(CONST, 42)
	img.Emit0(HALT)

	assert.Equal(t, int32(CONST), img.ReadWord(0))
	assert.EqualValues(t, 42, img.ReadWord(1))
	assert.Equal(t, int32(HALT), img.ReadWord(2))
	assert.EqualValues(t, 3, img.Size())
}

func TestImagePatchDoesNotMoveEmitCursor(t *testing.T) {
	img := NewImage()
	jmpAddr := img.Emit1(JMP, 0) // forward reference, target unknown yet
	img.Emit0(HALT)
	target := img.Addr()

	img.Patch(jmpAddr+1, target)

	assert.Equal(t, target, img.ReadWord(jmpAddr+1))
	assert.Equal(t, target, img.Addr(), "patch must not disturb the emit cursor")
}

func TestImageDisassembleRendersOperands(t *testing.T) {
	img := NewImage()
	img.Emit1(CONST, 7)
	img.Emit2(CALL, 10, 2)
	img.Emit0(RET)

	out := img.Disassemble()
	require.Contains(t, out, "CONST")
	require.Contains(t, out, "7")
	require.Contains(t, out, "CALL")
	require.Contains(t, out, "10, 2")
	require.Contains(t, out, "RET")
}
