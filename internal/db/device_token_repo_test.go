package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"outagealert/internal/types"
)

func TestDeviceTokenRepository_GetActiveTokensForUser(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDeviceTokenRepository(db)

	db.On("Query", mock.Anything, sqlContaining("FROM device_tokens"), []any{"user_1"}).
		Return(newMockRows(func(dest ...any) error {
			*dest[0].(*string) = "tok_1"
			*dest[1].(*string) = "user_1"
			*dest[2].(*string) = "arn:aws:sns:us-east-1:123:endpoint/GCM/app/abc"
			*dest[3].(*string) = "android"
			*dest[4].(*bool) = true
			*dest[5].(*time.Time) = time.Now()
			return nil
		}), nil)

	tokens, err := repo.GetActiveTokensForUser(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "android", tokens[0].Platform)
}

func TestDeviceTokenRepository_Deactivate(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDeviceTokenRepository(db)
	db.On("Exec", mock.Anything, sqlContaining("SET active = FALSE"), []any{"tok_1"}).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	require.NoError(t, repo.Deactivate(context.Background(), "tok_1"))
	db.AssertExpectations(t)
}

func TestDeviceTokenRepository_Deactivate_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDeviceTokenRepository(db)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, errors.New("down"))

	err := repo.Deactivate(context.Background(), "tok_1")
	assert.True(t, types.HasCode(err, types.ErrCodeInternalDB))
}
