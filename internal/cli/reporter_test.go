package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

func init() {
	color.NoColor = true
}

func TestReporter_ReportError(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		err      error
		contains []string
		missing  []string
	}{
		{
			name: "plain error",
			err:  errors.New("boom"),
			contains: []string{
				"ERROR: build failed\n===================\n\n",
				"Message: boom",
			},
		},
		{
			name: "coded error with suggestion",
			err: mverrors.New(mverrors.RoutingErrorCode, "no route matches '/x'").
				WithSuggestion("Run 'mytested routes'\nto list them"),
			contains: []string{
				"[RoutingError] no route matches '/x'\n",
				"   Suggestions:\n     - Run 'mytested routes'\n       to list them\n",
			},
			missing: []string{"Context:"},
		},
		{
			name: "wrapped coded error",
			err:  fmt.Errorf("loading: %w", mverrors.New(mverrors.ConfigurationErrorCode, "bad file")),
			contains: []string{
				"[ConfigurationError] bad file",
			},
		},
		{
			name: "collected errors are numbered",
			err: func() error {
				errs := mverrors.NewMultipleErrors()
				errs.Add(mverrors.New(mverrors.SyntaxErrorCode, "first"))
				errs.Add(mverrors.New(mverrors.ValidationErrorCode, "second"))
				return errs
			}(),
			contains: []string{
				"1) [SyntaxError] first\n",
				"2) [ValidationError] second\n",
			},
		},
		{
			name:    "verbose shows context and causes",
			verbose: true,
			err: mverrors.WrapConfigurationError("mytested.yaml", "read", errors.New("permission denied")).
				WithLocation(mverrors.Location{Controller: "HomeController"}),
			contains: []string{
				"[ConfigurationError] HomeController: failed to read configuration 'mytested.yaml'",
				"   Context:\n     Config Type: mytested.yaml\n     Operation: read\n",
				"   Caused by:\n     1. permission denied\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewReporter(&buf, tt.verbose).ReportError("build failed", tt.err)

			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.missing {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestReporter_ReportWarning(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, false).ReportWarning("%s not found", "mytested.yaml")
	assert.Equal(t, "! mytested.yaml not found\n", buf.String())
}

func TestFormatContextKey(t *testing.T) {
	assert.Equal(t, "Config Type", formatContextKey("config_type"))
	assert.Equal(t, "Parameter", formatContextKey("parameter"))
}
