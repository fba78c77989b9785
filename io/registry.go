// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package io

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
)

// SchemeFactory builds an IO implementation for a parsed location URI and
// its storage properties.
type SchemeFactory func(ctx context.Context, parsed *url.URL, props map[string]string) (IO, error)

type schemeRegistry struct {
	mu        sync.RWMutex
	factories map[string]SchemeFactory
}

func (r *schemeRegistry) set(scheme string, factory SchemeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[scheme] = factory
}

func (r *schemeRegistry) lookup(scheme string) (SchemeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[scheme]

	return factory, ok
}

func (r *schemeRegistry) remove(scheme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, scheme)
}

func (r *schemeRegistry) schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		out = append(out, scheme)
	}
	slices.Sort(out)

	return out
}

var defaultRegistry = &schemeRegistry{factories: make(map[string]SchemeFactory)}

// Register adds a scheme factory, replacing any factory previously
// registered for the same scheme.
func Register(scheme string, factory SchemeFactory) {
	if factory == nil {
		panic("io: Register factory is nil")
	}
	defaultRegistry.set(scheme, factory)
}

// Unregister removes the factory for a scheme.
func Unregister(scheme string) {
	defaultRegistry.remove(scheme)
}

// GetRegisteredSchemes returns the registered scheme names, sorted.
func GetRegisteredSchemes() []string {
	return defaultRegistry.schemes()
}

func init() {
	localFSFactory := func(ctx context.Context, parsed *url.URL, props map[string]string) (IO, error) {
		return LocalFS{}, nil
	}
	Register("file", localFSFactory)
	Register("", localFSFactory)
	Register("mem", memBucketFactory)
}

func inferFileIOFromScheme(ctx context.Context, path string, props map[string]string) (IO, error) {
	parsed, err := url.Parse(path)
	if err != nil {
		return nil, err
	}

	factory, ok := defaultRegistry.lookup(parsed.Scheme)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIONotFound, parsed.Scheme)
	}

	return factory(ctx, parsed, props)
}
