package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectContextImports(t *testing.T) {
	src := `import pandas
import numpy as np
from os import path
from os.path import join as j
from collections import *
`
	ctx := CollectContext(parseSource(t, src))

	assert.Contains(t, ctx.imports, "pandas")
	assert.Equal(t, "numpy", ctx.ResolveName("np"))
	assert.Equal(t, "os.path", ctx.ResolveName("path"))
	assert.Equal(t, "os.path.join", ctx.ResolveName("j"))
	assert.Contains(t, ctx.imports, "collections")

	// Unknown names resolve to themselves.
	assert.Equal(t, "df", ctx.ResolveName("df"))
}

func TestCollectContextNoImports(t *testing.T) {
	ctx := CollectContext(parseSource(t, "x = 1\n"))
	assert.Empty(t, ctx.imports)
	assert.Empty(t, ctx.aliases)
}

func TestCollectContextSubmoduleImport(t *testing.T) {
	ctx := CollectContext(parseSource(t, "import pandas.io.sql\n"))
	assert.Contains(t, ctx.imports, "pandas.io.sql")
}
