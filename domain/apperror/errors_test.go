package apperror_test

import (
	"fmt"
	"testing"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperror.Kind
		code string
	}{
		{"validation", apperror.ErrInvalidLevel, apperror.KindValidation, "invalid_level"},
		{"referential", apperror.ErrNotJoined, apperror.KindReferential, "not_joined"},
		{"conflict wrapped by fmt", fmt.Errorf("create: %w", apperror.ErrDuplicateName), apperror.KindConflict, "duplicate_name"},
		{"not found wrapped by pkg/errors", errors.Wrap(apperror.ErrNotFound, "find location"), apperror.KindNotFound, "not_found"},
		{"detailed", apperror.ErrInvalidMessage.Withf("body exceeds %d characters", 2000), apperror.KindValidation, "invalid_message"},
		{"plain error", errors.New("connection refused"), apperror.KindInternal, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			req.Equal(tt.kind, apperror.KindOf(tt.err))
			req.Equal(tt.code, apperror.CodeOf(tt.err))
		})
	}
}

func TestWithfKeepsIdentity(t *testing.T) {
	req := require.New(t)

	err := apperror.ErrInvalidMessage.Withf("message body cannot be empty")

	req.ErrorIs(err, apperror.ErrInvalidMessage)
	req.Equal("message body cannot be empty", err.Error())
	req.NotErrorIs(err, apperror.ErrInvalidDisplayName)
}
