// Copyright 2023 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package impersonate is used to impersonate Google Credentials. If you need
// to impersonate some credentials to use with a client library see
// [NewCredentials]. If instead you would like to create an OpenID Connect ID
// token using impersonation see [NewIDTokenCredentials].
package impersonate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2/internallog"
	"github.com/googleapis/go-auth"
	"github.com/googleapis/go-auth/credentials"
	"github.com/googleapis/go-auth/httptransport"
	"github.com/googleapis/go-auth/internal"
)

var (
	universeDomainPlaceholder            = "UNIVERSE_DOMAIN"
	iamCredentialsUniverseDomainEndpoint = "https://iamcredentials.UNIVERSE_DOMAIN"
	oauth2Endpoint                       = "https://oauth2.googleapis.com"

	errMissingTargetPrincipal = errors.New("impersonate: target service account must be provided")
	errMissingScopes          = errors.New("impersonate: scopes must be provided")
	errLifetimeOverMax        = errors.New("impersonate: max lifetime is 12 hours")

	errUniverseNotSupportedDomainWideDelegation = errors.New("impersonate: " +
		"Domain-wide delegation is not supported in universes other than " +
		internal.DefaultUniverseDomain)
)

// NewCredentials returns an impersonated
// [github.com/googleapis/go-auth.Credentials] configured with the provided
// options and using credentials loaded from Application Default Credentials as
// the base credentials if not provided with the opts.
func NewCredentials(opts *CredentialsOptions) (*auth.Credentials, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var isStaticToken bool
	// Default to the longest acceptable value of one hour as the token will
	// be refreshed automatically if not set.
	lifetime := 1 * time.Hour
	if opts.Lifetime != 0 {
		lifetime = opts.Lifetime
		// Don't auto-refresh token if a lifetime is configured.
		isStaticToken = true
	}

	client := opts.Client
	creds := opts.Credentials
	logger := internallog.New(opts.Logger)
	if client == nil {
		var err error
		if creds == nil {
			creds, err = credentials.DetectDefault(&credentials.DetectOptions{
				Scopes:           []string{defaultScope},
				UseSelfSignedJWT: true,
				Logger:           logger,
			})
			if err != nil {
				return nil, err
			}
		}
		client, err = httptransport.NewClient(&httptransport.Options{
			Credentials:    creds,
			UniverseDomain: opts.UniverseDomain,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
	}

	universeDomainProvider := resolveUniverseDomainProvider(creds)
	// If a subject is specified a domain-wide delegation auth-flow is initiated
	// to impersonate as the provided subject (user).
	if opts.Subject != "" {
		if !opts.isUniverseDomainGDU() {
			return nil, errUniverseNotSupportedDomainWideDelegation
		}
		return user(opts, client, lifetime, isStaticToken, logger)
	}

	its := impersonatedTokenProvider{
		client:                 client,
		universeDomainProvider: universeDomainProvider,
		targetPrincipal:        opts.TargetPrincipal,
		lifetime:               fmt.Sprintf("%.fs", lifetime.Seconds()),
	}
	for _, v := range opts.Delegates {
		its.delegates = append(its.delegates, internal.FormatIAMServiceAccountResource(v))
	}
	its.scopes = make([]string, len(opts.Scopes))
	copy(its.scopes, opts.Scopes)

	return auth.NewCredentials(&auth.CredentialsOptions{
		TokenProvider:          its,
		UniverseDomainProvider: universeDomainProvider,
		DisableAutoRefresh:     isStaticToken,
		Logger:                 logger,
	}), nil
}

// resolveUniverseDomainProvider returns the default service domain for a given
// Cloud universe. The default value is "googleapis.com". This is the universe
// domain configured for the credentials, which will be used in endpoint.
func resolveUniverseDomainProvider(creds *auth.Credentials) auth.CredentialsPropertyProvider {
	if creds != nil {
		return auth.CredentialsPropertyFunc(creds.UniverseDomain)
	}
	return internal.StaticCredentialsProperty(internal.DefaultUniverseDomain)
}

// CredentialsOptions for generating an impersonated credential token.
type CredentialsOptions struct {
	// TargetPrincipal is the email address of the service account to
	// impersonate. Required.
	TargetPrincipal string
	// Scopes that the impersonated credential should have. Required.
	Scopes []string
	// Delegates are the service account email addresses in a delegation chain.
	// Each service account must be granted roles/iam.serviceAccountTokenCreator
	// on the next service account in the chain. Optional.
	Delegates []string
	// Lifetime is the amount of time until the impersonated token expires. If
	// unset the token's lifetime will be one hour and be automatically
	// refreshed. If set the token may have a max lifetime of one hour and will
	// not be refreshed. Service accounts that have been added to an org policy
	// with constraints/iam.allowServiceAccountCredentialLifetimeExtension may
	// request a token lifetime of up to 12 hours. Optional.
	Lifetime time.Duration
	// Subject is the subject field of a JWT. This field should only be set if
	// you wish to impersonate as a user. This feature is useful when using
	// domain wide delegation. Optional.
	Subject string

	// Credentials used in generating the impersonated token. If empty, an
	// attempt will be made to detect credentials from the environment (see
	// [github.com/googleapis/go-auth/credentials.DetectDefault]). Optional.
	Credentials *auth.Credentials
	// Client configures the underlying client used to make network requests
	// when fetching tokens. If provided the client should provide its own
	// base credentials at call time. Optional.
	Client *http.Client
	// UniverseDomain is the default service domain for a given Cloud universe.
	// The default value is "googleapis.com". This option is ignored for
	// authentication flows that do not support universe domain. Optional.
	UniverseDomain string
	// Logger is used for debug logging. If provided, logging will be enabled
	// at the logger's configured level. Optional.
	Logger *slog.Logger
}

func (o *CredentialsOptions) validate() error {
	if o == nil {
		return errors.New("impersonate: options must be provided")
	}
	if o.TargetPrincipal == "" {
		return errMissingTargetPrincipal
	}
	if len(o.Scopes) == 0 {
		return errMissingScopes
	}
	if o.Lifetime.Hours() > 12 {
		return errLifetimeOverMax
	}
	return nil
}

// isUniverseDomainGDU determines if the universe domain is the default Google
// universe.
func (o *CredentialsOptions) isUniverseDomainGDU() bool {
	return o.UniverseDomain == "" || o.UniverseDomain == internal.DefaultUniverseDomain
}

type generateAccessTokenRequest struct {
	Delegates []string `json:"delegates,omitempty"`
	Lifetime  string   `json:"lifetime,omitempty"`
	Scope     []string `json:"scope,omitempty"`
}

type generateAccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpireTime  string `json:"expireTime"`
}

type impersonatedTokenProvider struct {
	client                 *http.Client
	universeDomainProvider auth.CredentialsPropertyProvider

	targetPrincipal string
	lifetime        string
	scopes          []string
	delegates       []string
}

// Token returns an impersonated Token.
func (i impersonatedTokenProvider) Token(ctx context.Context) (*auth.Token, error) {
	reqBody := generateAccessTokenRequest{
		Delegates: i.delegates,
		Lifetime:  i.lifetime,
		Scope:     i.scopes,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("impersonate: unable to marshal request: %w", err)
	}
	universeDomain, err := i.universeDomainProvider.GetProperty(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := strings.Replace(iamCredentialsUniverseDomainEndpoint, universeDomainPlaceholder, universeDomain, 1)
	url := fmt.Sprintf("%s/v1/%s:generateAccessToken", endpoint, internal.FormatIAMServiceAccountResource(i.targetPrincipal))
	body, err := internal.DoJSONRequest(ctx, i.client, url, "POST", b, "impersonate")
	if err != nil {
		return nil, err
	}

	var accessTokenResp generateAccessTokenResponse
	if err := json.Unmarshal(body, &accessTokenResp); err != nil {
		return nil, fmt.Errorf("impersonate: unable to parse response: %w", err)
	}
	expiry, err := time.Parse(time.RFC3339, accessTokenResp.ExpireTime)
	if err != nil {
		return nil, fmt.Errorf("impersonate: unable to parse expiry: %w", err)
	}
	return &auth.Token{
		Value:  accessTokenResp.AccessToken,
		Expiry: expiry,
	}, nil
}
