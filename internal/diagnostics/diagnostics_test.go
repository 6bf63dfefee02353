package diagnostics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input       string
		expected    Level
		expectError bool
	}{
		{input: "", expected: Silent},
		{input: "off", expected: Silent},
		{input: "ERROR", expected: Error},
		{input: "warning", expected: Warn},
		{input: "info", expected: Info},
		{input: "verbose", expected: Verbose},
		{input: " debug ", expected: Debug},
		{input: "loud", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestSystem_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(Info, &buf)

	d.Debug("hidden %d", 1)
	d.Verbose("hidden too")
	d.Info("shown %s", "info")
	d.Warn("shown warn")
	d.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] shown info")
	assert.Contains(t, out, "[WARN] shown warn")
	assert.Contains(t, out, "[ERROR] shown error")
}

func TestSystem_Indent(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(Debug, &buf)

	d.Indent()
	d.Debug("nested")
	d.Unindent()
	d.Unindent()
	d.Debug("top")

	assert.Equal(t, "  [DEBUG] nested\n[DEBUG] top\n", buf.String())
}

func TestSystem_NilIsSilent(t *testing.T) {
	var d *System
	assert.False(t, d.Enabled(Error))
	assert.Equal(t, Silent, d.Level())

	// Must not panic
	d.Error("nothing")
	d.Debug("nothing")
	d.Indent()
	d.Unindent()
}
