// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/staranto/routesgo/internal/endpoint"
)

const (
	DefaultMaxEntries = 128
	DefaultTTL        = 10 * time.Minute
	DefaultDrainDelay = 30 * time.Second
)

// Sentinel errors returned by the cache and by calls made on its channels.
var (
	ErrClosed         = errors.New("channel cache is closed")
	ErrDial           = errors.New("failed to create channel")
	ErrNoHeaderWriter = errors.New("no header writer registered for endpoint")
)

// DialFunc creates the client connection behind a Channel. grpc.NewClient
// is the default; tests swap in a dialer over an in-memory listener.
type DialFunc func(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error)

// Options tunes a Cache. Zero values take the package defaults.
type Options struct {
	// MaxEntries bounds the number of live channels. The oldest insertion is
	// evicted first.
	MaxEntries int
	// TTL is measured from insertion. Lookups do not extend it.
	TTL time.Duration
	// DrainDelay is how long an evicted channel stays open for calls that
	// are still in flight on it.
	DrainDelay time.Duration
	// EagerConnect makes Get wait until the new connection is READY.
	EagerConnect bool
	Dial         DialFunc
	DialOptions  []grpc.DialOption
}

func (o Options) withDefaults() Options {
	if o.MaxEntries <= 0 {
		o.MaxEntries = DefaultMaxEntries
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.DrainDelay <= 0 {
		o.DrainDelay = DefaultDrainDelay
	}
	if o.Dial == nil {
		o.Dial = grpc.NewClient
	}
	return o
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Loads      uint64
	LoadErrors uint64
	Evictions  uint64
	Entries    int
	Writers    int
}

// Cache hands out shared channels keyed by endpoint. It is safe for
// concurrent use.
type Cache struct {
	opts    Options
	headers *Registry
	entries *expirable.LRU[endpoint.Endpoint, *Channel]
	flight  singleflight.Group
	closed  atomic.Bool

	mu      sync.Mutex
	retired map[*Channel]*time.Timer

	hits       atomic.Uint64
	misses     atomic.Uint64
	loads      atomic.Uint64
	loadErrors atomic.Uint64
	evictions  atomic.Uint64
}

// New returns an empty Cache.
func New(opts Options) *Cache {
	c := &Cache{
		opts:    opts.withDefaults(),
		headers: NewRegistry(),
		retired: make(map[*Channel]*time.Timer),
	}
	c.entries = expirable.NewLRU[endpoint.Endpoint, *Channel](c.opts.MaxEntries, c.onEvict, c.opts.TTL)
	return c
}

// Get returns the shared channel for ep, creating it on first use. w is
// registered as ep's header writer unless one is already registered, in
// which case w is ignored. Concurrent misses for the same endpoint share a
// single construction.
func (c *Cache) Get(ctx context.Context, ep endpoint.Endpoint, w HeaderWriter) (*Channel, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if ep.IsZero() {
		return nil, fmt.Errorf("%w: empty", endpoint.ErrInvalidEndpoint)
	}

	if _, ok := c.headers.Register(ep, w); ok {
		log.Debugf("registered header writer for %s", ep)
	}

	// Peek, not Get: a lookup must not change the eviction order.
	if ch, ok := c.entries.Peek(ep); ok {
		c.hits.Add(1)
		return ch, nil
	}
	c.misses.Add(1)

	v, err, shared := c.flight.Do(ep.String(), func() (any, error) {
		return c.load(ctx, ep)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debugf("shared channel construction for %s", ep)
	}

	return v.(*Channel), nil
}

func (c *Cache) load(ctx context.Context, ep endpoint.Endpoint) (*Channel, error) {
	// A caller that missed just before the previous flight finished lands
	// here after the entry was already added.
	if ch, ok := c.entries.Peek(ep); ok {
		return ch, nil
	}

	c.loads.Add(1)
	ch, err := c.dial(ctx, ep)
	if err != nil {
		c.loadErrors.Add(1)
		log.WithError(err).Warnf("channel construction failed for %s", ep)
		return nil, err
	}

	// Anything still stored under ep has expired but not been reaped yet.
	c.entries.Remove(ep)
	ch.created = time.Now()
	c.entries.Add(ep, ch)
	log.WithField("endpoint", ep.String()).Debug("channel created")

	if c.closed.Load() {
		c.entries.Remove(ep)
		return nil, ErrClosed
	}

	return ch, nil
}

func (c *Cache) dial(ctx context.Context, ep endpoint.Endpoint) (*Channel, error) {
	creds := insecure.NewCredentials()
	if ep.Secure() {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithChainUnaryInterceptor(c.headers.unaryInterceptor(ep)),
		grpc.WithChainStreamInterceptor(c.headers.streamInterceptor(ep)),
	}, c.opts.DialOptions...)

	conn, err := c.opts.Dial(ep.Target(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDial, ep, err)
	}

	if c.opts.EagerConnect {
		if err := waitReady(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w %s: %w", ErrDial, ep, err)
		}
	}

	return &Channel{endpoint: ep, conn: conn}, nil
}

func waitReady(ctx context.Context, conn *grpc.ClientConn) error {
	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("connection shut down while connecting")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("connection not ready (last state %s): %w", state, ctx.Err())
		}
	}
}

// onEvict runs with the LRU's lock held and must not call back into it.
func (c *Cache) onEvict(ep endpoint.Endpoint, ch *Channel) {
	c.evictions.Add(1)
	log.Debugf("evicted channel for %s (age %s)", ep, time.Since(ch.created).Round(time.Millisecond))
	c.retire(ch)
}

// retire closes ch after the drain delay, or right away once the cache is
// closed.
func (c *Cache) retire(ch *Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Checked under mu: Close drains retired while holding it.
	if c.closed.Load() {
		_ = ch.close()
		return
	}

	c.retired[ch] = time.AfterFunc(c.opts.DrainDelay, func() {
		c.mu.Lock()
		delete(c.retired, ch)
		c.mu.Unlock()
		if err := ch.close(); err != nil {
			log.WithError(err).Debugf("closing drained channel for %s", ch)
		}
	})
}

// Forget removes ep's channel and header writer. The channel is retired like
// any other eviction.
func (c *Cache) Forget(ep endpoint.Endpoint) bool {
	removed := c.entries.Remove(ep)
	forgotten := c.headers.Forget(ep)
	return removed || forgotten
}

// Len returns the number of cached channels, including expired entries that
// have not been reaped yet.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Loads:      c.loads.Load(),
		LoadErrors: c.loadErrors.Load(),
		Evictions:  c.evictions.Load(),
		Entries:    c.entries.Len(),
		Writers:    c.headers.Len(),
	}
}

// Close evicts every channel and closes all connections, including those
// still draining. Get fails with ErrClosed afterwards.
func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.entries.Purge()

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for ch, timer := range c.retired {
		timer.Stop()
		if err := ch.close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", ch, err))
		}
	}
	clear(c.retired)
	c.headers.reset()

	return errors.Join(errs...)
}
