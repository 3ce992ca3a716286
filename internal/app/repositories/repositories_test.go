package repositories

import (
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aylin/missionhub/internal/pkg/apperrors"
)

func TestQueryErrorMapsConnectionFailures(t *testing.T) {
	err := queryError("error executing query", &pgconn.PgError{Code: "08006"})
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)

	err = queryError("error executing query", &net.OpError{Op: "read", Err: errors.New("connection reset by peer")})
	assert.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestQueryErrorPreservesStatementFailures(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", ConstraintName: "participations_user_id_mission_id_key"}

	err := queryError("error executing query", cause)
	require.NotErrorIs(t, err, apperrors.ErrBackendUnavailable)

	// The original error stays reachable for constraint inspection
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)
}
