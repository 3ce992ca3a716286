package dberrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsUniqueViolation(errors.New("not a pg error")))
}

func TestIsDuplicateConstraintError(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "participations_user_id_mission_id_key"}
	assert.True(t, IsDuplicateConstraintError(err, "participations_user_id_mission_id_key"))
	assert.False(t, IsDuplicateConstraintError(err, "users_email_key"))
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"server rejected connection", &pgconn.PgError{Code: "08004"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"network failure", &net.OpError{Op: "read", Err: errors.New("connection reset by peer")}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped network failure", fmt.Errorf("error executing query: %w", &net.OpError{Op: "dial", Err: errors.New("connection refused")}), true},
		{"ordinary error", errors.New("no such column"), false},
		{"cancelled context", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionError(tt.err))
		})
	}
}
