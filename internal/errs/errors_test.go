package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	assert.Equal(t, "[not_found] object missing", New(ErrKindNotFound, "object missing").Error())
	assert.Equal(t,
		"[transport] failed to get object: unexpected EOF",
		Wrap(ErrKindTransport, "failed to get object", io.ErrUnexpectedEOF).Error(),
	)
	assert.Equal(t, "[configuration] local: root_dir is required",
		Newf(ErrKindConfiguration, "%s: %s is required", "local", "root_dir").Error())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"unsupported", New(ErrKindUnsupported, "x"), IsUnsupported},
		{"transport", Wrap(ErrKindTransport, "x", io.EOF), IsTransport},
		{"configuration", New(ErrKindConfiguration, "x"), IsConfiguration},
		{"unsupported kind", New(ErrKindUnsupportedKind, "x"), IsUnsupportedKind},
		{"invalid input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"wrapped by fmt", fmt.Errorf("download a: %w", New(ErrKindNotFound, "x")), IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestUnwrap(t *testing.T) {
	err := Wrap(ErrKindTransport, "read failed", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
