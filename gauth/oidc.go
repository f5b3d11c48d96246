// Package gauth mints OpenID Connect ID tokens for Google service accounts.
//
// The tokens are what a service account presents to a third party that trusts
// Google-signed identity, such as a Cloud Run service or an IAP-protected API.
package gauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/auth/credentials/idtoken"
)

const (
	quotaProjectKey   = "quota_project_id"
	universeDomainKey = "universe_domain"
)

// ErrMissingAudience is returned when no target audience is given.
var ErrMissingAudience = errors.New("target audience is required")

type options struct {
	additionalClaims map[string]string
	quotaProjectID   string
	universeDomain   string
	client           *http.Client
}

// Option customizes how a token is minted.
type Option func(*options)

// WithAdditionalClaims adds private claims to the assertion sent to the token
// endpoint. target_audience is always set from the audience argument.
func WithAdditionalClaims(claims map[string]string) Option {
	return func(o *options) {
		o.additionalClaims = claims
	}
}

// WithQuotaProjectID overrides the quota project of the credentials.
func WithQuotaProjectID(projectID string) Option {
	return func(o *options) {
		o.quotaProjectID = projectID
	}
}

// WithUniverseDomain overrides the universe domain of the credentials.
func WithUniverseDomain(domain string) Option {
	return func(o *options) {
		o.universeDomain = domain
	}
}

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// ServiceAccountOIDCJWT generates an OIDC JWT for a service account with
// respect to targetAudience. credentialsInfo is the content of the service
// account key file. It returns the signed token and its expiry.
func ServiceAccountOIDCJWT(ctx context.Context, credentialsInfo map[string]string, targetAudience string, opts ...Option) (string, time.Time, error) {
	b, err := json.Marshal(credentialsInfo)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encoding credentials info: %w", err)
	}
	return ServiceAccountOIDCJWTFromJSON(ctx, b, targetAudience, opts...)
}

// ServiceAccountOIDCJWTFromJSON is ServiceAccountOIDCJWT for a raw key file.
func ServiceAccountOIDCJWTFromJSON(ctx context.Context, credentialsJSON []byte, targetAudience string, opts ...Option) (string, time.Time, error) {
	if targetAudience == "" {
		return "", time.Time{}, ErrMissingAudience
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	credentialsJSON, err := o.apply(credentialsJSON)
	if err != nil {
		return "", time.Time{}, err
	}

	idOpts := &idtoken.Options{
		Audience:        targetAudience,
		CredentialsJSON: credentialsJSON,
		Client:          o.client,
	}
	if len(o.additionalClaims) > 0 {
		claims := make(map[string]interface{}, len(o.additionalClaims))
		for k, v := range o.additionalClaims {
			claims[k] = v
		}
		idOpts.CustomClaims = claims
	}

	creds, err := idtoken.NewCredentials(idOpts)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("creating id token credentials: %w", err)
	}

	token, err := creds.Token(ctx)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("fetching id token: %w", err)
	}

	return token.Value, token.Expiry, nil
}

// apply writes the quota project and universe domain overrides into the key
// file, where the credentials loader picks them up.
func (o options) apply(credentialsJSON []byte) ([]byte, error) {
	if o.quotaProjectID == "" && o.universeDomain == "" {
		return credentialsJSON, nil
	}

	var info map[string]any
	if err := json.Unmarshal(credentialsJSON, &info); err != nil {
		return nil, fmt.Errorf("decoding credentials info: %w", err)
	}
	if o.quotaProjectID != "" {
		info[quotaProjectKey] = o.quotaProjectID
	}
	if o.universeDomain != "" {
		info[universeDomainKey] = o.universeDomain
	}

	b, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encoding credentials info: %w", err)
	}
	return b, nil
}
