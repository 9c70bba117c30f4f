package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studio-live/errors"
)

func TestTokenService_RoundTrip(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService("a_long_test_secret_for_signing", time.Hour)

	// Given a token issued for a user
	token, err := svc.Generate("user-42", true)
	req.NoError(err)
	req.NotEmpty(token)

	// When the token is validated
	claims, err := svc.Validate(token)

	// Then the identity survives the round trip
	req.NoError(err)
	req.Equal("user-42", claims.UserID)
	req.True(claims.Admin)
}

func TestTokenService_Expired(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService("a_long_test_secret_for_signing", -time.Minute)

	token, err := svc.Generate("user-42", false)
	req.NoError(err)

	_, err = svc.Validate(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	req := require.New(t)
	issuerSvc := NewTokenService("secret_number_one_for_signing", time.Hour)
	verifierSvc := NewTokenService("secret_number_two_for_signing", time.Hour)

	token, err := issuerSvc.Generate("user-42", false)
	req.NoError(err)

	_, err = verifierSvc.Validate(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestTokenService_Garbage(t *testing.T) {
	req := require.New(t)
	svc := NewTokenService("a_long_test_secret_for_signing", time.Hour)

	_, err := svc.Validate("not-a-jwt")
	req.ErrorIs(err, errors.ErrInvalidToken)
}
