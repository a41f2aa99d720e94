// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package channel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/staranto/routesgo/internal/endpoint"
)

func setHeader(k, v string) HeaderFunc {
	return func(md metadata.MD) { md.Set(k, v) }
}

func TestRegistry_FirstWriteWins(t *testing.T) {
	r := NewRegistry()
	ep := endpoint.MustParse("https://example:443")

	w, ok := r.Register(ep, setHeader("k", "first"))
	assert.True(t, ok)
	assert.NotNil(t, w)

	_, ok = r.Register(ep, setHeader("k", "second"))
	assert.False(t, ok)

	ctx, err := r.inject(context.Background(), ep)
	require.NoError(t, err)
	md, _ := metadata.FromOutgoingContext(ctx)
	assert.Equal(t, []string{"first"}, md.Get("k"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_NilWriterNeverRegisters(t *testing.T) {
	r := NewRegistry()
	ep := endpoint.MustParse("https://example:443")

	w, ok := r.Register(ep, nil)
	assert.False(t, ok)
	assert.Nil(t, w)
	assert.Equal(t, 0, r.Len())

	_, err := r.inject(context.Background(), ep)
	assert.ErrorIs(t, err, ErrNoHeaderWriter)
}

func TestRegistry_Forget(t *testing.T) {
	r := NewRegistry()
	ep := endpoint.MustParse("https://example:443")

	r.Register(ep, setHeader("k", "first"))
	assert.True(t, r.Forget(ep))
	assert.False(t, r.Forget(ep))

	_, ok := r.Register(ep, setHeader("k", "second"))
	assert.True(t, ok)
}

func TestRegistry_InjectKeepsCallerMetadata(t *testing.T) {
	r := NewRegistry()
	ep := endpoint.MustParse("https://example:443")
	r.Register(ep, setHeader("x-goog-api-key", "ABC"))

	parent := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", "42")
	ctx, err := r.inject(parent, ep)
	require.NoError(t, err)

	md, _ := metadata.FromOutgoingContext(ctx)
	assert.Equal(t, []string{"42"}, md.Get("x-request-id"))
	assert.Equal(t, []string{"ABC"}, md.Get("x-goog-api-key"))

	// The caller's metadata is copied, never mutated.
	orig, _ := metadata.FromOutgoingContext(parent)
	assert.Empty(t, orig.Get("x-goog-api-key"))
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	ep := endpoint.MustParse("https://example:443")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.Register(ep, setHeader("k", "v")); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
