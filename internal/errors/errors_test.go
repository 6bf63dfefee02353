package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	binding := WrapBindingError("id", fmt.Errorf("not a number"))

	multi := NewMultipleErrors()
	multi.Add(New(SyntaxErrorCode, "bad"))

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{name: "nil", err: nil, code: BindingErrorCode, want: false},
		{name: "direct", err: binding, code: BindingErrorCode, want: true},
		{name: "other code", err: binding, code: RoutingErrorCode, want: false},
		{name: "wrapped by fmt", err: fmt.Errorf("resolve: %w", binding), code: BindingErrorCode, want: true},
		{name: "joined", err: stderrors.Join(fmt.Errorf("plain"), binding), code: BindingErrorCode, want: true},
		{name: "joined without code", err: stderrors.Join(fmt.Errorf("plain")), code: BindingErrorCode, want: false},
		{name: "multiple errors", err: multi, code: SyntaxErrorCode, want: true},
		{name: "plain error", err: fmt.Errorf("plain"), code: UnknownErrorCode, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasCode(tt.err, tt.code))
		})
	}
}

func TestWrapBindingError(t *testing.T) {
	cause := fmt.Errorf("strconv.Atoi: parsing \"abc\": invalid syntax")
	err := WrapBindingError("id", cause)

	assert.Equal(t, "failed to bind parameter 'id'", err.Error())
	assert.Equal(t, BindingErrorCode, err.ErrorCode())
	assert.Equal(t, "id", err.Context()["parameter"])
	assert.ErrorIs(t, err, cause)
}
