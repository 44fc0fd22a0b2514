package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFactorial(t *testing.T) {
	mod, root, err := Parse(`
		int fact(int n) {
			if (n <= 1) return 1;
			return n * fact(n - 1);
		}
	`)
	require.NoError(t, err)
	require.Len(t, mod.Children, 1)

	fn := mod.Children[0]
	assert.Equal(t, FUNCTION, fn.Kind)
	assert.Equal(t, "fact", fn.Tok.Text)
	assert.Equal(t, 1, fn.Sym.Nargs)

	sym, ok := root.Lookup("fact")
	require.True(t, ok)
	assert.Equal(t, FUNC_SYM, sym.Kind)
}

func TestParseUndefinedSymbolIsError(t *testing.T) {
	_, _, err := Parse(`
		int main() {
			return y;
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not defined")
}

func TestParseDuplicateSymbolIsError(t *testing.T) {
	_, _, err := Parse(`
		int main() {
			int x;
			int x;
			return 0;
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

func TestParseBuiltinsPreRegistered(t *testing.T) {
	_, root, err := Parse(`int main() { return 0; }`)
	require.NoError(t, err)

	iput, ok := root.Lookup("iput")
	require.True(t, ok)
	assert.Equal(t, FUNC_SYM, iput.Kind)
	assert.Equal(t, 1, iput.Nargs)

	iget, ok := root.Lookup("iget")
	require.True(t, ok)
	assert.Equal(t, FUNC_SYM, iget.Kind)
	assert.Equal(t, 0, iget.Nargs)
}

func TestParseNestedBlocksGetDistinctScopes(t *testing.T) {
	mod, _, err := Parse(`
		int main() {
			int x;
			x = 1;
			{
				int x;
				x = 2;
			}
			{
				int x;
				x = 3;
			}
			return x;
		}
	`)
	require.NoError(t, err)

	fn := mod.Children[0]
	body := fn.Children[2]

	var blockScopes []string
	for _, stmt := range body.Children {
		if stmt.Kind == BLOCK {
			blockScopes = append(blockScopes, stmt.Scope.Name)
		}
	}
	require.Len(t, blockScopes, 2)
	assert.NotEqual(t, blockScopes[0], blockScopes[1])
}

func TestParsePrecedenceBitwiseBindsTighterThanMultiplicative(t *testing.T) {
	// term := bitwise (('*'|'/') bitwise)*; bitwise := factor (bitop factor)*
	// so "2 * 3 & 1" parses as (2 * (3 & 1)), not ((2 * 3) & 1).
	mod, _, err := Parse(`
		int main() {
			return 2 * 3 & 1;
		}
	`)
	require.NoError(t, err)

	fn := mod.Children[0]
	ret := fn.Children[2].Children[0]
	require.Equal(t, RETURN, ret.Kind)

	top := ret.Children[0]
	require.Equal(t, BINARY_OP, top.Kind)
	assert.Equal(t, "*", top.Tok.Text)

	rhs := top.Children[1]
	require.Equal(t, BINARY_OP, rhs.Kind)
	assert.Equal(t, "&", rhs.Tok.Text)
}

func TestParseUnaryMinusLowersToBinarySubtraction(t *testing.T) {
	mod, _, err := Parse(`
		int main() {
			return -5;
		}
	`)
	require.NoError(t, err)

	fn := mod.Children[0]
	ret := fn.Children[2].Children[0]
	expr := ret.Children[0]

	require.Equal(t, BINARY_OP, expr.Kind)
	require.Len(t, expr.Children, 2)
	assert.Equal(t, CONSTANT, expr.Children[0].Kind)
	assert.EqualValues(t, 0, expr.Children[0].Value)
	assert.EqualValues(t, 5, expr.Children[1].Value)
}

func TestParseCallArgumentsUseFullCondition(t *testing.T) {
	mod, _, err := Parse(`
		int f(int a) { return a; }
		int main() {
			return f(1 == 1);
		}
	`)
	require.NoError(t, err)
	main := mod.Children[1]
	ret := main.Children[2].Children[0]
	call := ret.Children[0]
	require.Equal(t, CALL, call.Kind)
	require.Len(t, call.Children, 1)
	assert.Equal(t, BINARY_OP, call.Children[0].Kind)
	assert.Equal(t, "==", call.Children[0].Tok.Text)
}
