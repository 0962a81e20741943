package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyLength(t *testing.T) {
	t.Parallel()

	key, err := generateKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
	for _, ch := range key {
		assert.Contains(t, charset, string(ch))
	}
}

func TestSetEnvLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		want     string
	}{
		{name: "empty file", contents: "", want: "PASETO_SYMMETRIC_KEY=new\n"},
		{name: "append", contents: "PORT=3000\n", want: "PORT=3000\nPASETO_SYMMETRIC_KEY=new\n"},
		{name: "replace", contents: "PASETO_SYMMETRIC_KEY=old\nPORT=3000\n", want: "PASETO_SYMMETRIC_KEY=new\nPORT=3000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := setEnvLine([]byte(tt.contents), envKey, "new")
			assert.Equal(t, tt.want, string(got))
		})
	}
}
