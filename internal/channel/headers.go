// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/staranto/routesgo/internal/endpoint"
)

// HeaderWriter augments the outgoing metadata of a single call. It may be
// invoked concurrently, once per call.
type HeaderWriter interface {
	WriteHeaders(md metadata.MD)
}

// HeaderFunc adapts a plain function to HeaderWriter.
type HeaderFunc func(md metadata.MD)

// WriteHeaders calls f(md).
func (f HeaderFunc) WriteHeaders(md metadata.MD) {
	f(md)
}

// Registry maps endpoints to their header writers. The first writer
// registered for an endpoint stays in effect until it is forgotten.
type Registry struct {
	mu      sync.RWMutex
	writers map[endpoint.Endpoint]HeaderWriter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		writers: make(map[endpoint.Endpoint]HeaderWriter),
	}
}

// Register stores w for ep unless a writer is already present. It returns
// the writer in effect and whether w was the one stored. A nil w never
// registers.
func (r *Registry) Register(ep endpoint.Endpoint, w HeaderWriter) (HeaderWriter, bool) {
	r.mu.RLock()
	existing, ok := r.writers[ep]
	r.mu.RUnlock()
	if ok || w == nil {
		return existing, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.writers[ep]; ok {
		return existing, false
	}
	r.writers[ep] = w
	return w, true
}

// Lookup returns the writer registered for ep.
func (r *Registry) Lookup(ep endpoint.Endpoint) (HeaderWriter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.writers[ep]
	return w, ok
}

// Forget drops the writer for ep and reports whether one was present.
func (r *Registry) Forget(ep endpoint.Endpoint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.writers[ep]
	delete(r.writers, ep)
	return ok
}

// Len returns the number of registered writers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.writers)
}

func (r *Registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.writers)
}

// inject applies the writer currently registered for ep to a copy of the
// outgoing metadata carried by ctx.
func (r *Registry) inject(ctx context.Context, ep endpoint.Endpoint) (context.Context, error) {
	w, ok := r.Lookup(ep)
	if !ok {
		return ctx, fmt.Errorf("%w: %s", ErrNoHeaderWriter, ep)
	}

	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	w.WriteHeaders(md)

	return metadata.NewOutgoingContext(ctx, md), nil
}

func (r *Registry) unaryInterceptor(ep endpoint.Endpoint) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, err := r.inject(ctx, ep)
		if err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (r *Registry) streamInterceptor(ep endpoint.Endpoint) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		ctx, err := r.inject(ctx, ep)
		if err != nil {
			return nil, err
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}
