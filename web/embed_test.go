package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates(t *testing.T) {
	t.Parallel()

	tmpl, err := Templates()
	require.NoError(t, err)
	assert.NotNil(t, tmpl.Lookup("index.tmpl"))
}

func TestPublic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir  string
		file string
	}{
		{dir: "css", file: "style.css"},
		{dir: "js", file: "index.js"},
		{dir: "js", file: "data/data.csv"},
		{dir: "js", file: "data/gold.csv"},
		{dir: "img", file: "logo.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.dir+"/"+tt.file, func(t *testing.T) {
			t.Parallel()

			sub, err := Public(tt.dir)
			require.NoError(t, err)
			b, err := fs.ReadFile(sub, tt.file)
			require.NoError(t, err)
			assert.NotEmpty(t, b)
		})
	}
}
