package user

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	violation := func(constraint string) error {
		return fmt.Errorf("pq: duplicate key value violates unique constraint %q", constraint)
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "username constraint",
			err:  violation("users_username_key"),
			want: ErrDuplicateUsername,
		},
		{
			name: "email constraint",
			err:  violation("users_email_key"),
			want: ErrDuplicateEmail,
		},
		{
			name: "unrelated error",
			err:  errors.New("pq: connection refused"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mapUniqueViolation(tt.err))
		})
	}
}

func TestMapUniqueViolation_UnknownConstraint(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("pq: duplicate key value violates unique constraint %q", "users_phone_number_key")
	got := mapUniqueViolation(cause)

	// Unknown constraints must not be mislabeled as a username conflict
	require.Error(t, got)
	assert.NotErrorIs(t, got, ErrDuplicateUsername)
	assert.NotErrorIs(t, got, ErrDuplicateEmail)
	assert.ErrorIs(t, got, cause)
}
