package token

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify(t *testing.T) {
	verifier := NewVerifier("top-secret")
	userID := uuid.New()
	staffID := uuid.New()

	tokenString := sign(t, "top-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Name:             "Dana",
		Role:             "waiter",
		StaffID:          staffID.String(),
	})

	identity, err := verifier.Verify(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "Dana", identity.Name)
	assert.Equal(t, domain.RoleWaiter, identity.Role)
	require.NotNil(t, identity.StaffID)
	assert.Equal(t, staffID, *identity.StaffID)
}

func TestVerifyCustomerWithoutStaffID(t *testing.T) {
	verifier := NewVerifier("top-secret")
	userID := uuid.New()

	tokenString := sign(t, "top-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Role:             "customer",
	})

	identity, err := verifier.Verify(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Nil(t, identity.StaffID)
}

func TestVerifyRejections(t *testing.T) {
	verifier := NewVerifier("top-secret")

	t.Run("wrong secret", func(t *testing.T) {
		tokenString := sign(t, "other-secret", Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
			Role:             "waiter",
		})
		_, err := verifier.Verify(context.Background(), tokenString)
		assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "not.a.token")
		assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
	})

	t.Run("non-uuid subject", func(t *testing.T) {
		tokenString := sign(t, "top-secret", Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-17"},
			Role:             "waiter",
		})
		_, err := verifier.Verify(context.Background(), tokenString)
		assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
	})

	t.Run("non-uuid staff id", func(t *testing.T) {
		tokenString := sign(t, "top-secret", Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
			Role:             "waiter",
			StaffID:          "staff-3",
		})
		_, err := verifier.Verify(context.Background(), tokenString)
		assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
	})
}
