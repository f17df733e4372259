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

// Package retry provides a retryer for transient token endpoint failures.
// The credential cache itself performs exactly one attempt per refresh; retry
// policy belongs to the providers that talk to the network.
package retry

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"time"
)

const (
	maxRetryAttempts = 5
)

// New returns a retryer with the default backoff configuration.
func New() *Retryer {
	return &Retryer{
		bo: &defaultBackoff{
			cur: 100 * time.Millisecond,
			max: 30 * time.Second,
			mul: 2,
		},
	}
}

// Retryer decides whether a token request should be retried and how long to
// pause before the next attempt.
type Retryer struct {
	bo       *defaultBackoff
	attempts int
}

// Retry reports whether the request that produced the given status code and
// error should be retried, and if so the pause to apply first.
func (r *Retryer) Retry(status int, err error) (time.Duration, bool) {
	if r.attempts >= maxRetryAttempts {
		return 0, false
	}
	if !shouldRetry(status, err) {
		return 0, false
	}
	r.attempts++
	return r.bo.Pause(), true
}

// Sleep pauses for the given duration, returning early with the context's
// error if it is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func shouldRetry(status int, err error) bool {
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		return true
	}
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}

type defaultBackoff struct {
	max time.Duration
	mul float64
	cur time.Duration
}

// Pause returns a random duration up to the current backoff ceiling and grows
// the ceiling for the next call.
func (b *defaultBackoff) Pause() time.Duration {
	d := time.Duration(1 + rand.Int63n(int64(b.cur)))
	b.cur = time.Duration(float64(b.cur) * b.mul)
	if b.cur > b.max {
		b.cur = b.max
	}
	return d
}
