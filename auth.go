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

// Package auth provides credentials that obtain, cache, and refresh access
// tokens used to authenticate outbound API requests.
//
// The heart of the package is [Credentials]: it owns a cached token, decides
// on every access whether that token is still fresh, merely stale, or
// expired, and coordinates refreshes so that any number of concurrent callers
// share at most one in-flight call to the underlying [TokenProvider]. Stale
// tokens are served immediately while a refresh runs in the background; only
// callers that observe an expired token block.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/googleapis/gax-go/v2/internallog"
	"github.com/googleapis/go-auth/internal"
	"github.com/googleapis/go-auth/internal/jwt"
)

const (
	// Parameter keys for AuthCodeURL method to support PKCE.
	codeChallengeKey       = "code_challenge"
	codeChallengeMethodKey = "code_challenge_method"

	// Parameter key for Exchange method to support PKCE.
	codeVerifierKey = "code_verifier"

	// defaultExpirationMargin is the remaining lifetime below which a cached
	// token is treated as expired and callers block for a refresh.
	defaultExpirationMargin = 3 * time.Minute

	// defaultRefreshMargin is the remaining lifetime below which a cached
	// token is treated as stale and a refresh is started proactively. It must
	// exceed the expiration margin for the proactive refresh to have effect.
	defaultRefreshMargin = 3*time.Minute + 45*time.Second

	authorizationHeader = "Authorization"
)

var (
	defaultGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	defaultHeader    = &jwt.Header{Algorithm: jwt.HeaderAlgRSA256, Type: jwt.HeaderType}

	// for testing
	timeNow = time.Now
)

// TokenProvider specifies an interface for anything that can return a token.
type TokenProvider interface {
	// Token returns a Token or an error.
	// The Token returned must be safe to use
	// concurrently.
	// The returned Token must not be modified.
	// The context provided must be sent along to any requests that are made in
	// the implementing code.
	Token(context.Context) (*Token, error)
}

// RequestHeaderProvider is optionally implemented by a [TokenProvider] to
// contribute extra headers, such as a quota-project header, that are merged
// into the request metadata cached alongside each token.
type RequestHeaderProvider interface {
	// RequestHeaders returns extra headers merged into every cached metadata
	// map. The returned map must not be modified afterwards.
	RequestHeaders() map[string][]string
}

// ChangeListener is notified after a refresh commits a new token. Listeners
// are best-effort side channels such as persisting the new token to disk; a
// panic in a listener is discarded and never surfaces to the caller that
// drove the refresh.
type ChangeListener interface {
	// OnTokenChange is called synchronously, in registration order, with the
	// newly committed token.
	OnTokenChange(tok *Token)
}

// Token holds the credential token used to authorize requests. All fields are
// considered read-only.
type Token struct {
	// Value is the token used to authorize requests. It is usually an access
	// token but may be other types of tokens such as ID tokens in some flows.
	Value string
	// Type is the type of token Value is. If uninitialized, it should be
	// assumed to be a "Bearer" token.
	Type string
	// Expiry is the time the token is set to expire. A zero value means the
	// token does not expire.
	Expiry time.Time
	// Metadata may include, but is not limited to, the body of the token
	// response returned by the server.
	Metadata map[string]interface{}
}

// IsValid reports that a [Token] is non-nil, has a [Token.Value], and has not
// expired. A token is considered expired if [Token.Expiry] has passed or will
// pass in the next 3 minutes.
func (t *Token) IsValid() bool {
	return t.isValidWithEarlyExpiry(defaultExpirationMargin)
}

// MetadataString is a convenience method for reading the string value of an
// entry in [Token.Metadata]. Returns an empty string if the key is absent or
// its value is not a string.
func (t *Token) MetadataString(k string) string {
	if t == nil || t.Metadata == nil {
		return ""
	}
	s, ok := t.Metadata[k].(string)
	if !ok {
		return ""
	}
	return s
}

func (t *Token) isValidWithEarlyExpiry(earlyExpiry time.Duration) bool {
	if t == nil || t.Value == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return !t.Expiry.Round(0).Add(-earlyExpiry).Before(timeNow())
}

// tokenState is the freshness classification of a cached token. It is derived
// state, recomputed on every access because time moves forward.
type tokenState int

const (
	// fresh indicates the token is valid. It is not expired or close to
	// expired, or the token has no expiry.
	fresh tokenState = iota
	// stale indicates the token is close to expired and should be refreshed.
	// The token can still be used normally while the refresh runs in the
	// background.
	stale
	// expired indicates the token is expired or absent. It cannot be used for
	// a normal operation.
	expired
)

// cachedValue pairs a token with the request metadata rendered from it. The
// metadata is computed once here so it can never diverge from the token; the
// whole value is replaced atomically on each successful refresh.
type cachedValue struct {
	token    *Token
	metadata map[string][]string
}

func newCachedValue(tok *Token, extra map[string][]string) *cachedValue {
	md := make(map[string][]string, 1+len(extra))
	typ := tok.Type
	if typ == "" {
		typ = internal.TokenTypeBearer
	}
	md[authorizationHeader] = []string{typ + " " + tok.Value}
	for k, vs := range extra {
		md[k] = append([]string(nil), vs...)
	}
	return &cachedValue{token: tok, metadata: md}
}

// refreshTask is the single-flight slot for one refresh. The result fields
// are written exactly once, before done is closed; waiters block on done.
type refreshTask struct {
	done chan struct{}
	tok  *Token
	err  error
}

func (t *refreshTask) wait(ctx context.Context) (*Token, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("auth: interrupted while waiting for token refresh: %w", ctx.Err())
	case <-t.done:
		return t.tok, t.err
	}
}

// CredentialsPropertyProvider provides an implementation to fetch a property
// value for [Credentials].
type CredentialsPropertyProvider interface {
	GetProperty(context.Context) (string, error)
}

// CredentialsPropertyFunc is a type adapter to allow the use of ordinary
// functions as a [CredentialsPropertyProvider].
type CredentialsPropertyFunc func(context.Context) (string, error)

// GetProperty loads the properly value provided the given context.
func (p CredentialsPropertyFunc) GetProperty(ctx context.Context) (string, error) {
	return p(ctx)
}

// CredentialsOptions configures a [Credentials].
type CredentialsOptions struct {
	// TokenProvider performs the actual token acquisition when a refresh is
	// needed. If nil, refreshing fails and only InitialToken can ever be
	// served.
	TokenProvider TokenProvider
	// InitialToken seeds the cache. Optional.
	InitialToken *Token
	// ExpirationMargin is the remaining lifetime below which a token is
	// treated as expired. Defaults to 3 minutes. Optional.
	ExpirationMargin time.Duration
	// RefreshMargin is the remaining lifetime below which a token is treated
	// as stale and refreshed in the background. It should be greater than
	// ExpirationMargin. Defaults to 3 minutes and 45 seconds. Optional.
	RefreshMargin time.Duration
	// DisableAutoRefresh makes the credential always return the cached token,
	// even if it is expired. Optional.
	DisableAutoRefresh bool
	// DisableAsyncRefresh makes all refreshes run on the calling goroutine
	// instead of in the background. Stale tokens are then refreshed inline
	// rather than served. Optional.
	DisableAsyncRefresh bool
	// Logger is used for debug logging. If provided, logging will be enabled
	// at the logger's configured level. Optional.
	Logger *slog.Logger

	// JSON is the raw contents of the credentials file. Optional.
	JSON []byte
	// ProjectIDProvider resolves the project ID associated with the
	// credentials. Optional.
	ProjectIDProvider CredentialsPropertyProvider
	// QuotaProjectIDProvider resolves the quota project ID associated with
	// the credentials. Optional.
	QuotaProjectIDProvider CredentialsPropertyProvider
	// UniverseDomainProvider resolves the universe domain with the
	// credentials. Optional.
	UniverseDomainProvider CredentialsPropertyProvider
}

func (o *CredentialsOptions) expirationMargin() time.Duration {
	if o == nil || o.ExpirationMargin == 0 {
		return defaultExpirationMargin
	}
	return o.ExpirationMargin
}

func (o *CredentialsOptions) refreshMargin() time.Duration {
	if o == nil || o.RefreshMargin == 0 {
		return defaultRefreshMargin
	}
	return o.RefreshMargin
}

// NewCredentials creates a [Credentials] from the provided options.
func NewCredentials(opts *CredentialsOptions) *Credentials {
	c := &Credentials{
		tp:                  opts.TokenProvider,
		expirationMargin:    opts.expirationMargin(),
		refreshMargin:       opts.refreshMargin(),
		disableAutoRefresh:  opts.DisableAutoRefresh,
		disableAsyncRefresh: opts.DisableAsyncRefresh,
		logger:              internallog.New(opts.Logger),
		json:                opts.JSON,
		projectID:           opts.ProjectIDProvider,
		quotaProjectID:      opts.QuotaProjectIDProvider,
		universeDomain:      opts.UniverseDomainProvider,
	}
	if opts.InitialToken != nil {
		c.current.Store(newCachedValue(opts.InitialToken, c.extraHeaders()))
	}
	return c
}

// Credentials caches a token obtained from a [TokenProvider] and keeps it
// fresh. It is safe for concurrent use. The zero value is not usable; obtain
// one from [NewCredentials].
//
// Credentials itself implements [TokenProvider], so instances can be layered,
// for example as the source credential of an impersonated one.
type Credentials struct {
	tp                  TokenProvider
	expirationMargin    time.Duration
	refreshMargin       time.Duration
	disableAutoRefresh  bool
	disableAsyncRefresh bool
	logger              *slog.Logger

	json           []byte
	projectID      CredentialsPropertyProvider
	quotaProjectID CredentialsPropertyProvider
	universeDomain CredentialsPropertyProvider

	// current is read without the lock on the fast path. It is only ever
	// written while holding mu.
	current atomic.Pointer[cachedValue]

	mu        sync.Mutex
	pending   *refreshTask
	listeners []ChangeListener
}

// tokenState classifies the cached token at the current instant. Boundaries
// are inclusive of the more conservative state.
func (c *Credentials) tokenState() tokenState {
	return c.stateOf(c.current.Load())
}

func (c *Credentials) stateOf(v *cachedValue) tokenState {
	if v == nil || v.token == nil || v.token.Value == "" {
		return expired
	}
	if v.token.Expiry.IsZero() {
		return fresh
	}
	remaining := v.token.Expiry.Round(0).Sub(timeNow())
	switch {
	case remaining <= c.expirationMargin:
		return expired
	case remaining <= c.refreshMargin:
		return stale
	default:
		return fresh
	}
}

// Token returns the cached token, refreshing it first if it is no longer
// usable. It implements [TokenProvider].
func (c *Credentials) Token(ctx context.Context) (*Token, error) {
	v, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return v.token, nil
}

// RequestMetadata returns the request headers, including the authorization
// header, to attach to a request for the given URI. The returned map is
// shared and must not be modified. When the cached token is fresh the only
// cost is a single atomic load; a stale token is returned immediately while a
// refresh runs in the background; an expired token blocks the caller until
// the shared in-flight refresh completes.
func (c *Credentials) RequestMetadata(ctx context.Context, uri string) (map[string][]string, error) {
	v, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return v.metadata, nil
}

// RequestMetadataAsync behaves like [Credentials.RequestMetadata] but never
// blocks the caller: it returns immediately and invokes done with the
// resolved metadata, or with the error that caused resolution to fail. If the
// cached token is usable, done is invoked inline before RequestMetadataAsync
// returns.
func (c *Credentials) RequestMetadataAsync(ctx context.Context, uri string, done func(map[string][]string, error)) {
	if v := c.current.Load(); c.stateOf(v) == fresh {
		done(v.metadata, nil)
		return
	}
	if c.disableAutoRefresh {
		if v := c.current.Load(); v != nil {
			done(v.metadata, nil)
			return
		}
	}
	task, created := c.getOrCreateRefreshTask()
	if created {
		go c.executeRefreshTask(context.WithoutCancel(ctx), task)
	}
	// A stale value is still usable, hand it out without waiting on the
	// in-flight refresh.
	if v := c.current.Load(); c.stateOf(v) != expired {
		done(v.metadata, nil)
		return
	}
	go func() {
		if _, err := task.wait(ctx); err != nil {
			done(nil, err)
			return
		}
		v, err := c.cachedOrError()
		done(metadataOf(v), err)
	}()
}

// Refresh unconditionally fetches a new token from the underlying provider,
// regardless of the cached token's freshness, and blocks until the refresh
// completes. If a refresh is already in flight its result is shared instead
// of starting another. Use it when the current token is known to be invalid,
// for example after an authorization failure.
func (c *Credentials) Refresh(ctx context.Context) error {
	task, created := c.getOrCreateRefreshTask()
	if created {
		c.executeRefreshTask(ctx, task)
	}
	_, err := task.wait(ctx)
	return err
}

// RefreshIfExpired refreshes the cached token if it is no longer usable. A
// fresh token is a no-op, a stale token starts a background refresh without
// waiting on it, and an expired token blocks until the refresh completes.
func (c *Credentials) RefreshIfExpired(ctx context.Context) error {
	_, err := c.resolve(ctx)
	return err
}

// AccessToken returns the last cached token, or nil if none has been cached
// yet. It never triggers a refresh.
func (c *Credentials) AccessToken() *Token {
	if v := c.current.Load(); v != nil {
		return v.token
	}
	return nil
}

// JSON returns the raw contents of the credentials file, if they were
// provided.
func (c *Credentials) JSON() []byte {
	return c.json
}

// ProjectID returns the associated project ID from the underlying file or
// environment.
func (c *Credentials) ProjectID(ctx context.Context) (string, error) {
	return resolveProperty(ctx, c.projectID)
}

// QuotaProjectID returns the associated quota project ID from the underlying
// file or environment.
func (c *Credentials) QuotaProjectID(ctx context.Context) (string, error) {
	return resolveProperty(ctx, c.quotaProjectID)
}

// UniverseDomain returns the default service domain for a given Cloud
// universe. The default value is "googleapis.com".
func (c *Credentials) UniverseDomain(ctx context.Context) (string, error) {
	if c.universeDomain == nil {
		return internal.DefaultUniverseDomain, nil
	}
	v, err := c.universeDomain.GetProperty(ctx)
	if err != nil {
		return "", err
	}
	if v == "" {
		return internal.DefaultUniverseDomain, nil
	}
	return v, err
}

func resolveProperty(ctx context.Context, p CredentialsPropertyProvider) (string, error) {
	if p == nil {
		return "", nil
	}
	return p.GetProperty(ctx)
}

// AddChangeListener registers a listener notified after each successful
// refresh.
func (c *Credentials) AddChangeListener(l ChangeListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveChangeListener removes a previously registered listener. Listeners
// are compared by interface identity.
func (c *Credentials) RemoveChangeListener(l ChangeListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, have := range c.listeners {
		if have == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// resolve is the shared slow-path engine behind Token, RequestMetadata, and
// RefreshIfExpired.
func (c *Credentials) resolve(ctx context.Context) (*cachedValue, error) {
	if v := c.current.Load(); c.stateOf(v) == fresh {
		return v, nil
	}
	// With auto refresh disabled a cached token is returned as-is, no matter
	// how old. An empty cache still refreshes, there is nothing to serve.
	if c.disableAutoRefresh {
		if v := c.current.Load(); v != nil {
			return v, nil
		}
	}
	task, created := c.getOrCreateRefreshTask()
	if created {
		if c.disableAsyncRefresh {
			// Direct execution on the calling goroutine, outside the lock.
			c.executeRefreshTask(ctx, task)
		} else {
			// The refresh must outlive this caller: a stale-path caller
			// returns immediately and its context may be canceled while the
			// refresh is still useful to others.
			go c.executeRefreshTask(context.WithoutCancel(ctx), task)
		}
	}
	if !c.disableAsyncRefresh {
		// Re-check: a concurrent refresh may have landed already, or the
		// value is merely stale and still usable. Only expired callers wait.
		if v := c.current.Load(); c.stateOf(v) != expired {
			return v, nil
		}
	}
	if task == nil {
		return nil, errors.New("auth: credentials expired, but no refresh is in flight")
	}
	if _, err := task.wait(ctx); err != nil {
		return nil, err
	}
	return c.cachedOrError()
}

func (c *Credentials) cachedOrError() (*cachedValue, error) {
	if v := c.current.Load(); v != nil {
		return v, nil
	}
	return nil, errors.New("auth: no token in cache")
}

func metadataOf(v *cachedValue) map[string][]string {
	if v == nil {
		return nil
	}
	return v.metadata
}

// getOrCreateRefreshTask returns the in-flight refresh task, creating and
// installing one if none exists. The second result reports whether this call
// created the task; only the creator may execute it.
func (c *Credentials) getOrCreateRefreshTask() (*refreshTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return c.pending, false
	}
	t := &refreshTask{done: make(chan struct{})}
	c.pending = t
	return t, true
}

// executeRefreshTask performs the refresh and commits its result. It must be
// called exactly once per task, by the caller that created it, and never
// while holding the lock.
func (c *Credentials) executeRefreshTask(ctx context.Context, t *refreshTask) {
	tok, err := c.performRefresh(ctx)
	t.tok, t.err = tok, err

	var listeners []ChangeListener
	c.mu.Lock()
	if err == nil {
		c.current.Store(newCachedValue(tok, c.extraHeaders()))
		listeners = append(listeners, c.listeners...)
	}
	// Clear the single-flight slot only if it still refers to this task, so
	// that a subsequent call always gets a new attempt.
	if c.pending == t {
		c.pending = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.DebugContext(ctx, "auth: token refresh failed", "error", err)
	}
	for _, l := range listeners {
		notifyListener(l, tok)
	}
	close(t.done)
}

func notifyListener(l ChangeListener, tok *Token) {
	// Listener panics must not corrupt the refresh that triggered them.
	defer func() { recover() }()
	l.OnTokenChange(tok)
}

func (c *Credentials) performRefresh(ctx context.Context) (*Token, error) {
	if c.tp == nil {
		return nil, errors.New("auth: credentials do not support refresh, a TokenProvider must be configured")
	}
	tok, err := c.tp.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.Value == "" {
		return nil, errors.New("auth: token provider returned an empty token")
	}
	return tok, nil
}

func (c *Credentials) extraHeaders() map[string][]string {
	if hp, ok := c.tp.(RequestHeaderProvider); ok {
		return hp.RequestHeaders()
	}
	return nil
}

// Error is a error associated with retrieving a [Token]. It can hold useful
// additional details for debugging.
type Error struct {
	// Response is the HTTP response associated with error. The body will always
	// be already closed and consumed.
	Response *http.Response
	// Body is the HTTP response body.
	Body []byte
	// Err is the underlying wrapped error.
	Err error

	// code returned in the token response
	code string
	// description returned in the token response
	description string
	// uri returned in the token response
	uri string
}

func (e *Error) Error() string {
	if e.code != "" {
		s := fmt.Sprintf("auth: %q", e.code)
		if e.description != "" {
			s += fmt.Sprintf(" %q", e.description)
		}
		if e.uri != "" {
			s += fmt.Sprintf(" %q", e.uri)
		}
		return s
	}
	return fmt.Sprintf("auth: cannot fetch token: %v\nResponse: %s", e.Response.StatusCode, e.Body)
}

// Temporary returns true if the error is considered temporary and may be able
// to be retried.
func (e *Error) Temporary() bool {
	if e.Response == nil {
		return false
	}
	sc := e.Response.StatusCode
	return sc == http.StatusInternalServerError || sc == http.StatusServiceUnavailable || sc == http.StatusRequestTimeout || sc == http.StatusTooManyRequests
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Style describes how the token endpoint wants to receive the ClientID and
// ClientSecret.
type Style int

const (
	// StyleUnknown means the value has not been initiated. Sending this in
	// a request will cause the token exchange to fail.
	StyleUnknown Style = iota
	// StyleInParams sends client info in the body of a POST request.
	StyleInParams
	// StyleInHeader sends client info using Basic Authorization header.
	StyleInHeader
)

// Options2LO is the configuration settings for doing a 2-legged JWT OAuth2 flow.
type Options2LO struct {
	// Email is the OAuth2 client ID. This value is set as the "iss" in the
	// JWT.
	Email string
	// PrivateKey contains the contents of an RSA private key or the
	// contents of a PEM file that contains a private key. It is used to sign
	// the JWT created.
	PrivateKey []byte
	// PrivateKeyID is the ID of the key used to sign the JWT. It is used as
	// the "kid" in the JWT header.
	PrivateKeyID string
	// Subject is the user to impersonate. It is used as the "sub" in the JWT.
	// Optional.
	Subject string
	// Scopes specifies requested permissions for the token. Optional.
	Scopes []string
	// TokenURL is the URL the JWT is sent to.
	TokenURL string
	// Expires specifies the lifetime of the token requested. Optional.
	Expires time.Duration
	// Audience specifies the "aud" in the JWT. Optional.
	Audience string
	// PrivateClaims allows specifying any custom claims for the JWT. Optional.
	PrivateClaims map[string]interface{}

	// Client is the client to be used to make the underlying token requests.
	// Optional.
	Client *http.Client
	// UseIDToken requests that the token returned be an ID token if one is
	// returned from the server. Optional.
	UseIDToken bool
	// Logger is used for debug logging. If provided, logging will be enabled
	// at the logger's configured level. Optional.
	Logger *slog.Logger
}

func (o *Options2LO) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return internal.CloneDefaultClient()
}

func (o *Options2LO) validate() error {
	if o == nil {
		return errors.New("auth: options must be provided")
	}
	if o.Email == "" {
		return errors.New("auth: email must be provided")
	}
	if len(o.PrivateKey) == 0 {
		return errors.New("auth: private key must be provided")
	}
	if o.TokenURL == "" {
		return errors.New("auth: token URL must be provided")
	}
	return nil
}

// New2LOTokenProvider returns a [TokenProvider] from the provided options.
func New2LOTokenProvider(opts *Options2LO) (TokenProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return tokenProvider2LO{opts: opts, Client: opts.client(), logger: internallog.New(opts.Logger)}, nil
}

type tokenProvider2LO struct {
	opts   *Options2LO
	Client *http.Client
	logger *slog.Logger
}

func (tp tokenProvider2LO) Token(ctx context.Context) (*Token, error) {
	pk, err := internal.ParseKey(tp.opts.PrivateKey)
	if err != nil {
		return nil, err
	}
	claimSet := &jwt.Claims{
		Iss:              tp.opts.Email,
		Scope:            strings.Join(tp.opts.Scopes, " "),
		Aud:              tp.opts.TokenURL,
		Sub:              tp.opts.Subject,
		AdditionalClaims: tp.opts.PrivateClaims,
	}
	if t := tp.opts.Expires; t > 0 {
		claimSet.Exp = time.Now().Add(t).Unix()
	}
	if aud := tp.opts.Audience; aud != "" {
		claimSet.Aud = aud
	}
	h := *defaultHeader
	h.KeyID = tp.opts.PrivateKeyID
	payload, err := jwt.EncodeJWS(&h, claimSet, pk)
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("grant_type", defaultGrantType)
	v.Set("assertion", payload)
	encoded := v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tp.opts.TokenURL, strings.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tp.logger.DebugContext(ctx, "2LO token request", "request", internallog.HTTPRequest(req, []byte(encoded)))
	resp, body, err := doRequest(tp.Client, req)
	if err != nil {
		return nil, fmt.Errorf("auth: cannot fetch token: %w", err)
	}
	tp.logger.DebugContext(ctx, "2LO token response", "response", internallog.HTTPResponse(resp, body))
	if c := resp.StatusCode; c < http.StatusOK || c >= http.StatusMultipleChoices {
		return nil, &Error{
			Response: resp,
			Body:     body,
		}
	}
	// tokenRes is the JSON response body.
	var tokenRes struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		IDToken     string `json:"id_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenRes); err != nil {
		return nil, fmt.Errorf("auth: cannot fetch token: %w", err)
	}
	token := &Token{
		Value: tokenRes.AccessToken,
		Type:  tokenRes.TokenType,
	}
	token.Metadata = make(map[string]interface{})
	json.Unmarshal(body, &token.Metadata) // no error checks for optional fields

	if secs := tokenRes.ExpiresIn; secs > 0 {
		token.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
	}
	if v := tokenRes.IDToken; v != "" {
		// decode returned id token to get expiry
		claimSet, err := jwt.DecodeJWS(v)
		if err != nil {
			return nil, fmt.Errorf("auth: error decoding JWT token: %w", err)
		}
		token.Expiry = time.Unix(claimSet.Exp, 0)
	}
	if tp.opts.UseIDToken {
		if tokenRes.IDToken == "" {
			return nil, errors.New("auth: response doesn't have JWT token")
		}
		token.Value = tokenRes.IDToken
	}
	return token, nil
}

func doRequest(client *http.Client, req *http.Request) (*http.Response, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := internal.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}
