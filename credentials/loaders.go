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

package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/googleapis/go-auth"
	"github.com/googleapis/go-auth/internal/credsfile"
)

// CredentialsType is the type of credentials being loaded with
// [NewCredentialsFromFile] or [NewCredentialsFromJSON].
type CredentialsType int

const (
	// UnknownCredentialsType is an unknown credentals type.
	UnknownCredentialsType CredentialsType = iota
	// ServiceAccount loads credentials of type "service_account".
	ServiceAccount
	// UserCredentials loads credentials of type "authorized_user".
	UserCredentials
	// ExternalAccount loads credentials of type "external_account". These
	// credentials can be configured to call arbitrary endpoints, only load
	// configurations from trusted sources.
	ExternalAccount
	// ImpersonatedServiceAccount loads credentials of type
	// "impersonated_service_account". These credentials can be configured to
	// call arbitrary endpoints, only load configurations from trusted sources.
	ImpersonatedServiceAccount
)

func (t CredentialsType) typeString() string {
	switch t {
	case ServiceAccount:
		return credsfile.ParseCredentialTypeString(credsfile.ServiceAccountKey)
	case UserCredentials:
		return credsfile.ParseCredentialTypeString(credsfile.UserCredentialsKey)
	case ExternalAccount:
		return credsfile.ParseCredentialTypeString(credsfile.ExternalAccountKey)
	case ImpersonatedServiceAccount:
		return credsfile.ParseCredentialTypeString(credsfile.ImpersonatedServiceAccountKey)
	default:
		return credsfile.ParseCredentialTypeString(credsfile.UnknownCredType)
	}
}

// NewCredentialsFromFile loads a credential file and returns credentials only
// if the file's type matches typ. Unlike [DetectDefault] it never falls back
// to other detection mechanisms.
func NewCredentialsFromFile(ctx context.Context, typ CredentialsType, filename string, opts *DetectOptions) (*auth.Credentials, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewCredentialsFromJSON(ctx, typ, b, opts)
}

// NewCredentialsFromJSON returns credentials from the provided JSON bytes
// only if their type matches typ.
func NewCredentialsFromJSON(ctx context.Context, typ CredentialsType, b []byte, opts *DetectOptions) (*auth.Credentials, error) {
	if opts == nil {
		opts = &DetectOptions{}
	}
	var f struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if want := typ.typeString(); f.Type != want {
		return nil, fmt.Errorf("credentials: expected type %q, found %q", want, f.Type)
	}
	return fileCredentials(b, opts)
}
