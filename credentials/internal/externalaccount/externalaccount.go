// Copyright 2025 Google LLC
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

// Package externalaccount exchanges third-party subject tokens for Google
// Cloud access tokens via the Secure Token Service, optionally followed by
// service account impersonation.
package externalaccount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2/internallog"
	"github.com/googleapis/go-auth"
	"github.com/googleapis/go-auth/credentials/internal/impersonate"
	"github.com/googleapis/go-auth/credentials/internal/stsexchange"
	"github.com/googleapis/go-auth/internal"
	"github.com/googleapis/go-auth/internal/credsfile"
)

const (
	// Subject token file types.
	fileTypeText = "text"
	fileTypeJSON = "json"

	// Subject token types, as defined by RFC 8693 section 3.
	jwtTokenType = "urn:ietf:params:oauth:token-type:jwt"
	idTokenType  = "urn:ietf:params:oauth:token-type:id_token"

	universeDomainPlaceholder = "UNIVERSE_DOMAIN"
	defaultTokenURL           = "https://sts." + universeDomainPlaceholder + "/v1/token"
	defaultUniverseDomain     = "googleapis.com"
)

var (
	// Now aliases time.Now for testing.
	Now = func() time.Time {
		return time.Now().UTC()
	}
	validWorkforceAudiencePattern *regexp.Regexp = regexp.MustCompile(`//iam\.googleapis\.com/locations/[^/]+/workforcePools/`)
)

// Options stores the configuration for fetching tokens with external credentials.
type Options struct {
	// Audience is the Secure Token Service (STS) audience which contains the
	// resource name for the workload identity pool or the workforce pool and
	// the provider identifier in that pool.
	Audience string
	// SubjectTokenType is the STS token type based on the Oauth2.0 token
	// exchange spec e.g. `urn:ietf:params:oauth:token-type:jwt`.
	SubjectTokenType string
	// TokenURL is the STS token exchange endpoint.
	TokenURL string
	// TokenInfoURL is the token_info endpoint used to retrieve the account
	// related information (user attributes like account identifier, eg.
	// email, username, uid, etc). This is needed for gCloud session account
	// identification.
	TokenInfoURL string
	// ServiceAccountImpersonationURL is the URL for the service account
	// impersonation request. This is only required for workload identity
	// pools when APIs to be accessed have not integrated with UberMint.
	ServiceAccountImpersonationURL string
	// ServiceAccountImpersonationLifetimeSeconds is the number of seconds the
	// service account impersonation token will be valid for.
	ServiceAccountImpersonationLifetimeSeconds int
	// ClientSecret is currently only required if token_info endpoint also
	// needs to be called with the generated GCP access token. When provided,
	// STS will be called with additional basic authentication using client_id
	// as username and client_secret as password.
	ClientSecret string
	// ClientID is only required in conjunction with ClientSecret, as
	// described above.
	ClientID string
	// CredentialSource contains the necessary information to retrieve the
	// token itself, as well as some environmental information.
	CredentialSource *credsfile.CredentialSource
	// QuotaProjectID is injected by gCloud. If the value is non-empty, the
	// Auth libraries will set the x-goog-user-project header which overrides
	// the project associated with the credentials.
	QuotaProjectID string
	// Scopes contains the desired scopes for the returned access token.
	Scopes []string
	// WorkforcePoolUserProject is the optional workforce pool user project
	// number when the credential corresponds to a workforce pool and not a
	// workload identity pool. The underlying principal must still have
	// serviceusage.services.use IAM permission to use the project for
	// billing/quota.
	WorkforcePoolUserProject string
	// UniverseDomain is the default service domain for a given Cloud
	// universe. The default value is "googleapis.com". Optional.
	UniverseDomain string
	// SubjectTokenProvider is an optional token provider for OIDC/SAML
	// credentials. One of SubjectTokenProvider or CredentialSource must be
	// provided.
	SubjectTokenProvider SubjectTokenProvider
	// Client for token request.
	Client *http.Client
	// IsDefaultClient marks whether the client passed in is a default client
	// that can be overridden. This is important for authentication mechanisms
	// that alter the transport of the configured client.
	IsDefaultClient bool
	// Logger is used for debug logging. If provided, logging will be enabled
	// at the logger's configured level. Optional.
	Logger *slog.Logger
}

// SubjectTokenProvider can be used to supply a subject token to exchange for a
// GCP access token.
type SubjectTokenProvider interface {
	// SubjectToken should return a valid subject token or an error.
	// The external account token provider does not cache the returned subject
	// token, so caching logic should be implemented in the provider to
	// prevent multiple requests for the same subject token.
	SubjectToken(ctx context.Context, opts *RequestOptions) (string, error)
}

// RequestOptions contains information about the requested subject token
// to be passed to [SubjectTokenProvider.SubjectToken].
type RequestOptions struct {
	// Audience is the requested audience for the subject token.
	Audience string
	// Subject token type is the requested subject token type for the subject
	// token, e.g. `urn:ietf:params:oauth:token-type:jwt`.
	SubjectTokenType string
}

func (o *Options) validate() error {
	if o.Audience == "" {
		return errors.New("externalaccount: Audience must be set")
	}
	if o.SubjectTokenType == "" {
		return errors.New("externalaccount: Subject token type must be set")
	}
	if o.WorkforcePoolUserProject != "" {
		if valid := validWorkforceAudiencePattern.MatchString(o.Audience); !valid {
			return errors.New("externalaccount: workforce_pool_user_project should not be set for non-workforce pool credentials")
		}
	}
	count := 0
	if o.CredentialSource != nil {
		count++
	}
	if o.SubjectTokenProvider != nil {
		count++
	}
	if count == 0 {
		return errors.New("externalaccount: one of CredentialSource or SubjectTokenProvider must be set")
	}
	if count > 1 {
		return errors.New("externalaccount: only one of CredentialSource or SubjectTokenProvider must be set")
	}
	return nil
}

// resolveTokenURL sets the default STS token endpoint with the configured
// universe domain.
func (o *Options) resolveTokenURL() {
	if o.TokenURL != "" {
		return
	} else if o.UniverseDomain != "" {
		o.TokenURL = strings.Replace(defaultTokenURL, universeDomainPlaceholder, o.UniverseDomain, 1)
	} else {
		o.TokenURL = strings.Replace(defaultTokenURL, universeDomainPlaceholder, defaultUniverseDomain, 1)
	}
}

func (o *Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return internal.CloneDefaultClient()
}

// NewTokenProvider returns a [auth.TokenProvider] configured with the provided
// options.
func NewTokenProvider(opts *Options) (auth.TokenProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.resolveTokenURL()
	logger := internallog.New(opts.Logger)
	stp, err := newSubjectTokenProvider(opts)
	if err != nil {
		return nil, err
	}

	client := opts.client()
	tp := &tokenProvider{
		client: client,
		opts:   opts,
		logger: logger,
		stp:    stp,
	}

	if opts.ServiceAccountImpersonationURL == "" {
		return auth.NewCredentials(&auth.CredentialsOptions{TokenProvider: tp}), nil
	}

	scopes := make([]string, len(opts.Scopes))
	copy(scopes, opts.Scopes)
	// The impersonated credential carries the configured scopes, the STS
	// exchange itself always asks for cloud-platform.
	opts.Scopes = []string{"https://www.googleapis.com/auth/cloud-platform"}
	imp, err := impersonate.NewTokenProvider(&impersonate.Options{
		Client:               client,
		URL:                  opts.ServiceAccountImpersonationURL,
		Scopes:               scopes,
		Tp:                   auth.NewCredentials(&auth.CredentialsOptions{TokenProvider: tp}),
		TokenLifetimeSeconds: opts.ServiceAccountImpersonationLifetimeSeconds,
		Logger:               logger,
	})
	if err != nil {
		return nil, err
	}
	return auth.NewCredentials(&auth.CredentialsOptions{TokenProvider: imp}), nil
}

type subjectTokenProvider interface {
	subjectToken(ctx context.Context) (string, error)
	providerType() string
}

// newSubjectTokenProvider determines the type of credential source needed to
// create a subjectTokenProvider.
func newSubjectTokenProvider(o *Options) (subjectTokenProvider, error) {
	logger := internallog.New(o.Logger)
	reqOpts := &RequestOptions{Audience: o.Audience, SubjectTokenType: o.SubjectTokenType}
	if cs := o.CredentialSource; cs != nil {
		if cs.File != "" {
			return &fileSubjectProvider{File: cs.File, Format: cs.Format}, nil
		} else if cs.URL != "" {
			return &urlSubjectProvider{
				URL:     cs.URL,
				Headers: cs.Headers,
				Format:  cs.Format,
				Client:  o.client(),
				Logger:  logger,
			}, nil
		}
	} else if o.SubjectTokenProvider != nil {
		return &programmaticProvider{stp: o.SubjectTokenProvider, opts: reqOpts}, nil
	}
	return nil, errors.New("externalaccount: unable to parse credential source")
}

// tokenProvider is the provider that handles external credentials. It is used
// to retrieve Tokens.
type tokenProvider struct {
	client *http.Client
	logger *slog.Logger
	opts   *Options
	stp    subjectTokenProvider
}

func (tp *tokenProvider) Token(ctx context.Context) (*auth.Token, error) {
	subjectToken, err := tp.stp.subjectToken(ctx)
	if err != nil {
		return nil, err
	}

	stsRequest := &stsexchange.TokenRequest{
		GrantType:          stsexchange.GrantType,
		Audience:           tp.opts.Audience,
		Scope:              tp.opts.Scopes,
		RequestedTokenType: stsexchange.TokenType,
		SubjectToken:       subjectToken,
		SubjectTokenType:   tp.opts.SubjectTokenType,
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Add("x-goog-api-client", getGoogHeaderValue(tp.opts, tp.stp.providerType()))
	clientAuth := stsexchange.ClientAuthentication{
		AuthStyle:    auth.StyleInHeader,
		ClientID:     tp.opts.ClientID,
		ClientSecret: tp.opts.ClientSecret,
	}
	var options map[string]interface{}
	// Do not pass workforce_pool_user_project when client authentication is
	// used. The client ID is sufficient for determining the user project.
	if tp.opts.WorkforcePoolUserProject != "" && tp.opts.ClientID == "" {
		options = map[string]interface{}{
			"userProject": tp.opts.WorkforcePoolUserProject,
		}
	}
	stsResp, err := stsexchange.ExchangeToken(ctx, &stsexchange.Options{
		Client:         tp.client,
		Logger:         tp.logger,
		Endpoint:       tp.opts.TokenURL,
		Request:        stsRequest,
		Authentication: clientAuth,
		Headers:        header,
		ExtraOpts:      options,
	})
	if err != nil {
		return nil, err
	}

	tok := &auth.Token{
		Value: stsResp.AccessToken,
		Type:  stsResp.TokenType,
	}
	if stsResp.ExpiresIn <= 0 {
		return nil, fmt.Errorf("externalaccount: got invalid expiry from security token service")
	}
	tok.Expiry = Now().Add(time.Duration(stsResp.ExpiresIn) * time.Second)
	return tok, nil
}

func getGoogHeaderValue(conf *Options, p string) string {
	return fmt.Sprintf("gl-go/%s auth/%s google-byoid-sdk source/%s sa-impersonation/%t config-lifetime/%t",
		goVersion(),
		"unknown",
		p,
		conf.ServiceAccountImpersonationURL != "",
		conf.ServiceAccountImpersonationLifetimeSeconds != 0)
}
