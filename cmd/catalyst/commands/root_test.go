package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	tests := []struct {
		path []string
	}{
		{[]string{"study", "run"}},
		{[]string{"study", "results"}},
		{[]string{"study", "list"}},
		{[]string{"trials", "fetch"}},
		{[]string{"prices", "fetch"}},
		{[]string{"scheduler", "start"}},
		{[]string{"scheduler", "run"}},
		{[]string{"api"}},
		{[]string{"migrate"}},
	}

	for _, tt := range tests {
		cmd, _, err := rootCmd.Find(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.path[len(tt.path)-1], cmd.Name())
	}
}

func TestOrNA(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "PHASE3", orNA("PHASE3"))
	assert.Equal(t, "+1.50%", pct(0.015))
	assert.Equal(t, "-0.25%", pct(-0.0025))
}
