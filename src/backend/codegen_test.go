package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vslc/src/ir"
)

func TestGenerateEntryStubAndHalt(t *testing.T) {
	mod, root, err := ir.Parse(`int main() { return 0; }`)
	require.NoError(t, err)

	img, err := Generate(mod, root)
	require.NoError(t, err)

	assert.Equal(t, int32(CALL), img.ReadWord(0))
	assert.EqualValues(t, 4, img.ReadWord(1), "main's address should be word 4, right after the entry stub")
	assert.EqualValues(t, 0, img.ReadWord(2))
	assert.Equal(t, int32(HALT), img.ReadWord(3))
}

func TestGenerateMissingEntryPointIsError(t *testing.T) {
	mod, root, err := ir.Parse(`int foo() { return 0; }`)
	require.NoError(t, err)

	_, err = Generate(mod, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry point")
}

func TestGenerateBreakOutsideWhileIsError(t *testing.T) {
	mod, root, err := ir.Parse(`
		int main() {
			break;
			return 0;
		}
	`)
	require.NoError(t, err)

	_, err = Generate(mod, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "break outside")
}

func TestGenerateNoSentinelLeftInImage(t *testing.T) {
	mod, root, err := ir.Parse(`
		int main() {
			int i;
			i = 0;
			while (i < 10) {
				if (i == 5) break;
				i = i + 1;
			}
			iput(i);
			return 0;
		}
	`)
	require.NoError(t, err)

	img, err := Generate(mod, root)
	require.NoError(t, err)

	for _, w := range img.Words() {
		assert.NotEqual(t, int32(-1), w, "no word may equal the 0xFFFFFFFF break sentinel")
	}
}

func TestGenerateAssignToArgumentIsError(t *testing.T) {
	mod, root, err := ir.Parse(`
		int f(int a) {
			a = 1;
			return a;
		}
		int main() { return f(1); }
	`)
	require.NoError(t, err)

	_, err = Generate(mod, root)
	require.Error(t, err)
}

func TestGenerateCallStatementDropsResult(t *testing.T) {
	mod, root, err := ir.Parse(`
		int f() { return 1; }
		int main() {
			f();
			return 0;
		}
	`)
	require.NoError(t, err)

	img, err := Generate(mod, root)
	require.NoError(t, err)

	out := img.Disassemble()
	assert.Contains(t, out, "DROP")
}
