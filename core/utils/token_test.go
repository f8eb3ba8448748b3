package utils

import (
	"testing"
	"time"

	"slotswap-api/core/constants"
	"slotswap-api/core/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := uuid.New()
	email := "bob@example.com"
	handle := "bob-x1y2z3a"

	token, err := GenerateToken(userID, &email, &handle, constants.ScopeTokenAccess, time.Minute)
	require.NoError(t, err)

	claims, err := ValidateAndParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, email, *claims.Email)
	assert.Equal(t, constants.ScopeTokenAccess, claims.Scope)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateAndParseToken_Expired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken(uuid.New(), nil, nil, constants.ScopeTokenAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateAndParseToken(token)
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTokenExpired, appErr.Code)
}

func TestValidateAndParseToken_Garbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := ValidateAndParseToken("definitely.not.ajwt")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrInvalidTokenFormat, appErr.Code)
}

func TestTokenIDsAreUnique(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	first, err := GenerateToken(uuid.New(), nil, nil, constants.ScopeTokenAccess, time.Minute)
	require.NoError(t, err)
	second, err := GenerateToken(uuid.New(), nil, nil, constants.ScopeTokenAccess, time.Minute)
	require.NoError(t, err)

	firstClaims, err := ValidateAndParseToken(first)
	require.NoError(t, err)
	secondClaims, err := ValidateAndParseToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}
