package gauth

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// Claims is the registered claim set of a minted ID token plus the email
// Google adds for service accounts.
type Claims struct {
	jwt.Claims
	Email string `json:"email,omitempty"`
}

// ExpiresAt returns the exp claim, or the zero time when absent.
func (c Claims) ExpiresAt() time.Time {
	if c.Expiry == nil {
		return time.Time{}
	}
	return c.Expiry.Time()
}

// InspectToken decodes the claims of an RS256 ID token without verifying its
// signature. Use it for display and expiry bookkeeping only; the receiving
// service is responsible for verification.
func InspectToken(token string) (Claims, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.RS256})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}

	var claims Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return Claims{}, fmt.Errorf("decoding claims: %w", err)
	}
	return claims, nil
}
