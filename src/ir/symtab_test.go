package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymTabScopeUniqueness(t *testing.T) {
	root := NewScope(nil, "module")
	_, err := root.Declare("x", VAR_SYM)
	require.NoError(t, err)
	_, err = root.Declare("x", VAR_SYM)
	assert.Error(t, err, "redeclaring a name in the same scope must fail")
}

func TestSymTabDenseIndexing(t *testing.T) {
	root := NewScope(nil, "module")
	fn := NewScope(root, "f")

	a, err := fn.Declare("a", ARG_SYM)
	require.NoError(t, err)
	b, err := fn.Declare("b", ARG_SYM)
	require.NoError(t, err)
	x, err := fn.Declare("x", VAR_SYM)
	require.NoError(t, err)
	y, err := fn.Declare("y", VAR_SYM)
	require.NoError(t, err)
	z, err := fn.Declare("z", VAR_SYM)
	require.NoError(t, err)

	assert.Equal(t, 0, a.LocalIndex)
	assert.Equal(t, 1, b.LocalIndex)
	assert.Equal(t, 0, x.LocalIndex)
	assert.Equal(t, 1, y.LocalIndex)
	assert.Equal(t, 2, z.LocalIndex)
}

func TestSymTabLookupWalksParentChain(t *testing.T) {
	root := NewScope(nil, "module")
	_, err := root.Declare("g", VAR_SYM)
	require.NoError(t, err)

	fn := NewScope(root, "f")
	blk := NewScope(fn, "block0")

	sym, ok := blk.Lookup("g")
	require.True(t, ok)
	assert.Equal(t, "g", sym.Name)

	_, ok = blk.Lookup("nope")
	assert.False(t, ok)
}

func TestSymTabShadowingIsAllowedAcrossScopes(t *testing.T) {
	root := NewScope(nil, "module")
	fn := NewScope(root, "f")
	outer := NewScope(fn, "block0")
	inner := NewScope(outer, "block1")

	xOuter, err := outer.Declare("x", VAR_SYM)
	require.NoError(t, err)
	xInner, err := inner.Declare("x", VAR_SYM)
	require.NoError(t, err)

	assert.NotSame(t, xOuter, xInner)

	sym, ok := inner.Lookup("x")
	require.True(t, ok)
	assert.Same(t, xInner, sym)
}
