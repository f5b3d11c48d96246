package gauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAudience = "https://api.example.run.app"
	testEmail    = "runner@yootils-test.iam.gserviceaccount.com"
)

// tokenEndpoint fakes the Google OAuth token endpoint for the JWT bearer grant.
type tokenEndpoint struct {
	key    *rsa.PrivateKey
	expiry time.Time

	mu        sync.Mutex
	assertion map[string]any
}

func (e *tokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	parsed, err := jwt.ParseSigned(r.PostForm.Get("assertion"), []jose.SignatureAlgorithm{jose.RS256})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var claims map[string]any
	if err := parsed.Claims(&e.key.PublicKey, &claims); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	e.mu.Lock()
	e.assertion = claims
	e.mu.Unlock()

	idToken, err := signToken(e.key, Claims{
		Claims: jwt.Claims{
			Issuer:   "https://accounts.google.com",
			Subject:  testEmail,
			Audience: jwt.Audience{claims["target_audience"].(string)},
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Expiry:   jwt.NewNumericDate(e.expiry),
		},
		Email: testEmail,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id_token": idToken})
}

func (e *tokenEndpoint) lastAssertion() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assertion
}

func signToken(key *rsa.PrivateKey, claims Claims) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}
	return jwt.Signed(signer).Claims(claims).Serialize()
}

func newServiceAccount(t *testing.T) (*rsa.PrivateKey, *tokenEndpoint, map[string]string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	endpoint := &tokenEndpoint{
		key:    key,
		expiry: time.Now().Add(time.Hour).Truncate(time.Second),
	}
	srv := httptest.NewServer(endpoint)
	t.Cleanup(srv.Close)

	info := map[string]string{
		"type":           "service_account",
		"project_id":     "yootils-test",
		"private_key_id": "test-key-id",
		"private_key":    string(keyPEM),
		"client_email":   testEmail,
		"client_id":      "1234567890",
		"token_uri":      srv.URL,
	}
	return key, endpoint, info
}

func TestServiceAccountOIDCJWT(t *testing.T) {
	_, endpoint, info := newServiceAccount(t)

	token, expiry, err := ServiceAccountOIDCJWT(context.Background(), info, testAudience,
		WithAdditionalClaims(map[string]string{"team": "platform"}),
	)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.True(t, expiry.Equal(endpoint.expiry), "expiry %v, want %v", expiry, endpoint.expiry)

	assertion := endpoint.lastAssertion()
	require.NotNil(t, assertion)
	assert.Equal(t, testAudience, assertion["target_audience"])
	assert.Equal(t, "platform", assertion["team"])
	assert.Equal(t, testEmail, assertion["iss"])

	claims, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, testEmail, claims.Email)
	assert.Equal(t, jwt.Audience{testAudience}, claims.Audience)
	assert.True(t, claims.ExpiresAt().Equal(expiry))
}

func TestServiceAccountOIDCJWT_QuotaProjectOverride(t *testing.T) {
	_, _, info := newServiceAccount(t)

	token, _, err := ServiceAccountOIDCJWT(context.Background(), info, testAudience,
		WithQuotaProjectID("billing-project"),
	)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestServiceAccountOIDCJWT_MissingAudience(t *testing.T) {
	_, _, info := newServiceAccount(t)

	_, _, err := ServiceAccountOIDCJWT(context.Background(), info, "")
	assert.ErrorIs(t, err, ErrMissingAudience)
}

func TestServiceAccountOIDCJWT_EndpointRejects(t *testing.T) {
	_, _, info := newServiceAccount(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	info["token_uri"] = srv.URL

	_, _, err := ServiceAccountOIDCJWT(context.Background(), info, testAudience)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching id token")
}

func TestOptionsApply(t *testing.T) {
	in := []byte(`{"type":"service_account","client_email":"a@b"}`)

	out, err := options{}.apply(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = options{quotaProjectID: "qp", universeDomain: "example.com"}.apply(in)
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal(out, &info))
	assert.Equal(t, "qp", info[quotaProjectKey])
	assert.Equal(t, "example.com", info[universeDomainKey])
	assert.Equal(t, "a@b", info["client_email"])

	_, err = options{quotaProjectID: "qp"}.apply([]byte("not json"))
	assert.Error(t, err)
}

func TestInspectToken_Malformed(t *testing.T) {
	_, err := InspectToken("not-a-jwt")
	assert.Error(t, err)
}
