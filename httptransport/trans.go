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

package httptransport

import (
	"context"
	"net/http"
	"net/url"
	"os"

	"github.com/googleapis/go-auth"
	"github.com/googleapis/go-auth/credentials"
	"github.com/googleapis/go-auth/internal"
	"github.com/googleapis/go-auth/internal/transport"
)

const (
	quotaProjectHeaderKey = "X-Goog-User-Project"
)

func newTransport(base http.RoundTripper, opts *Options) (http.RoundTripper, error) {
	var headers http.Header
	if opts != nil {
		headers = opts.Headers
	}
	ht := &headerTransport{
		base:    base,
		headers: headers,
	}
	var trans http.RoundTripper = ht
	switch {
	case opts.DisableAuthentication:
		// Do nothing.
	case opts.APIKey != "":
		qp := internal.GetQuotaProject(nil, opts.Headers.Get(quotaProjectHeaderKey))
		if qp != "" {
			if headers == nil {
				headers = make(map[string][]string, 1)
			}
			headers.Set(quotaProjectHeaderKey, qp)
			ht.headers = headers
		}
		trans = &apiKeyTransport{
			Transport: trans,
			Key:       opts.APIKey,
		}
	default:
		var creds *auth.Credentials
		if opts.Credentials != nil {
			creds = opts.Credentials
		} else {
			var err error
			creds, err = credentials.DetectDefault(opts.resolveDetectOptions())
			if err != nil {
				return nil, err
			}
		}
		qp, err := creds.QuotaProjectID(context.Background())
		if err != nil {
			return nil, err
		}
		if qp != "" {
			if headers == nil {
				headers = make(map[string][]string, 1)
			}
			// Don't overwrite a quota project the user set themselves.
			if v := headers.Get(quotaProjectHeaderKey); v == "" {
				headers.Set(quotaProjectHeaderKey, qp)
				ht.headers = headers
			}
		}
		var skipUD bool
		if opts.InternalOptions != nil {
			skipUD = opts.InternalOptions.SkipUniverseDomainValidation
		}
		trans = &authTransport{
			base:                         trans,
			creds:                        creds,
			clientUniverseDomain:         internal.StaticCredentialsProperty(opts.UniverseDomain),
			skipUniverseDomainValidation: skipUD,
		}
	}
	return trans, nil
}

// apiKeyTransport sets the API key as a query parameter on each request.
type apiKeyTransport struct {
	// Key is the API key to set on requests.
	Key string
	// Transport is the underlying HTTP transport.
	// If nil, http.DefaultTransport is used.
	Transport http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	newReq := *req
	args := newReq.URL.Query()
	args.Set("key", t.Key)
	newReq.URL = new(url.URL)
	*newReq.URL = *req.URL
	newReq.URL.RawQuery = args.Encode()
	return t.Transport.RoundTrip(&newReq)
}

type headerTransport struct {
	headers http.Header
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := t.base
	newReq := *req
	newReq.Header = make(http.Header)
	for k, vv := range req.Header {
		newReq.Header[k] = vv
	}

	for k, v := range t.headers {
		newReq.Header[k] = v
	}

	return rt.RoundTrip(&newReq)
}

type authTransport struct {
	creds                        *auth.Credentials
	base                         http.RoundTripper
	clientUniverseDomain         auth.CredentialsPropertyProvider
	skipUniverseDomainValidation bool
}

// getClientUniverseDomain returns the default service domain for a given
// Cloud universe, with the following precedence:
//
// 1. A non-empty option.WithUniverseDomain or similar client option.
// 2. A non-empty environment variable GOOGLE_CLOUD_UNIVERSE_DOMAIN.
// 3. The default value "googleapis.com".
//
// This is the universe domain configured for the client, which will be compared
// to the universe domain that is separately configured for the credentials.
func (t *authTransport) getClientUniverseDomain(ctx context.Context) (string, error) {
	if t.clientUniverseDomain != nil {
		ud, err := t.clientUniverseDomain.GetProperty(ctx)
		if err != nil {
			return "", err
		}
		if ud != "" {
			return ud, nil
		}
	}
	if envUD := os.Getenv(internal.UniverseDomainEnvVar); envUD != "" {
		return envUD, nil
	}
	return internal.DefaultUniverseDomain, nil
}

// RoundTrip sets the Authorization header on the request using a token
// sourced from the underlying credentials, validating the universe domain
// first unless the credentials came from the metadata server.
//
// req is not modified, a new request is cloned from it.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqo := req.Clone(req.Context())
	reqo.Close = false
	token, err := t.creds.Token(reqo.Context())
	if err != nil {
		return nil, err
	}
	if !t.skipUniverseDomainValidation && token.MetadataString("auth.google.tokenSource") != "compute-metadata" {
		credentialsUniverseDomain, err := t.creds.UniverseDomain(reqo.Context())
		if err != nil {
			return nil, err
		}
		clientUniverseDomain, err := t.getClientUniverseDomain(reqo.Context())
		if err != nil {
			return nil, err
		}
		if err := transport.ValidateUniverseDomain(clientUniverseDomain, credentialsUniverseDomain); err != nil {
			return nil, err
		}
	}
	typ := token.Type
	if typ == "" {
		typ = internal.TokenTypeBearer
	}
	reqo.Header.Set("Authorization", typ+" "+token.Value)
	return t.base.RoundTrip(reqo)
}
