package token

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
	"github.com/syslogsitsolutions/menulogs/internal/interfaces"
)

// Claims mirror what the identity service signs into its bearer
// tokens. REST requests and realtime handshakes verify against the
// same secret, so one credential works on both surfaces.
type Claims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Role    string `json:"role"`
	StaffID string `json:"staff_id,omitempty"`
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (domain.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.Identity{}, domain.WrapError(domain.KindAuthorization, err, "invalid credential")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, domain.NewError(domain.KindAuthorization, "invalid subject in credential")
	}

	identity := domain.Identity{
		UserID: userID,
		Name:   claims.Name,
		Role:   domain.Role(claims.Role),
	}
	if claims.StaffID != "" {
		staffID, err := uuid.Parse(claims.StaffID)
		if err != nil {
			return domain.Identity{}, domain.NewError(domain.KindAuthorization, "invalid staff id in credential")
		}
		identity.StaffID = &staffID
	}
	return identity, nil
}

var _ interfaces.TokenVerifier = (*Verifier)(nil)
