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

// Package stsexchange performs OAuth 2.0 token exchanges as defined by
// RFC 8693 against a Secure Token Service endpoint.
package stsexchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/googleapis/gax-go/v2/internallog"
	"github.com/googleapis/go-auth/internal"
)

const (
	// GrantType for a sts exchange.
	GrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
	// TokenType for a sts exchange.
	TokenType = "urn:ietf:params:oauth:token-type:access_token"
)

// Options stores the configuration for making an sts exchange request.
type Options struct {
	Client         *http.Client
	Logger         *slog.Logger
	Endpoint       string
	Request        *TokenRequest
	Authentication ClientAuthentication
	Headers        http.Header
	// ExtraOpts are optional fields marshalled into the `options` field of the
	// request body.
	ExtraOpts map[string]interface{}
}

// ExchangeToken performs an oauth2 token exchange with the provided endpoint.
func ExchangeToken(ctx context.Context, opts *Options) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("audience", opts.Request.Audience)
	data.Set("grant_type", GrantType)
	data.Set("requested_token_type", TokenType)
	data.Set("subject_token_type", opts.Request.SubjectTokenType)
	data.Set("subject_token", opts.Request.SubjectToken)
	data.Set("scope", strings.Join(opts.Request.Scope, " "))
	if opts.ExtraOpts != nil {
		opts, err := json.Marshal(opts.ExtraOpts)
		if err != nil {
			return nil, fmt.Errorf("stsexchange: failed to marshal additional options: %w", err)
		}
		data.Set("options", string(opts))
	}
	return doRequest(ctx, opts, data)
}

func doRequest(ctx context.Context, opts *Options, data url.Values) (*TokenResponse, error) {
	opts.Authentication.InjectAuthentication(data, opts.Headers)
	encodedData := data.Encode()
	logger := internallog.New(opts.Logger)

	req, err := http.NewRequestWithContext(ctx, "POST", opts.Endpoint, strings.NewReader(encodedData))
	if err != nil {
		return nil, fmt.Errorf("stsexchange: failed to properly build http request: %w", err)
	}
	for key, list := range opts.Headers {
		for _, val := range list {
			req.Header.Add(key, val)
		}
	}
	req.Header.Set("Content-Length", strconv.Itoa(len(encodedData)))

	logger.DebugContext(ctx, "sts token request", "request", internallog.HTTPRequest(req, []byte(encodedData)))
	resp, body, err := internal.DoRequest(opts.Client, req)
	if err != nil {
		return nil, fmt.Errorf("stsexchange: invalid response from Secure Token Server: %w", err)
	}
	logger.DebugContext(ctx, "sts token response", "response", internallog.HTTPResponse(resp, body))
	if c := resp.StatusCode; c < http.StatusOK || c > http.StatusMultipleChoices {
		return nil, fmt.Errorf("stsexchange: status code %d: %s", c, body)
	}
	var stsResp TokenResponse
	if err := json.Unmarshal(body, &stsResp); err != nil {
		return nil, fmt.Errorf("stsexchange: failed to unmarshal response body from Secure Token Server: %w", err)
	}
	return &stsResp, nil
}

// TokenRequest contains fields necessary to make an oauth2 token
// exchange.
type TokenRequest struct {
	ActingParty struct {
		ActorToken     string
		ActorTokenType string
	}
	GrantType          string
	Resource           string
	Audience           string
	Scope              []string
	RequestedTokenType string
	SubjectToken       string
	SubjectTokenType   string
}

// TokenResponse is used to decode the remote server response during
// an oauth2 token exchange.
type TokenResponse struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int    `json:"expires_in"`
	Scope           string `json:"scope"`
	RefreshToken    string `json:"refresh_token"`
}
