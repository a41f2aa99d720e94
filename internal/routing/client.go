// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"github.com/apex/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"

	"github.com/staranto/routesgo/internal/channel"
	"github.com/staranto/routesgo/internal/endpoint"
	"github.com/staranto/routesgo/internal/workers"
)

const (
	DefaultRouteFieldMask  = "routes.duration,routes.distanceMeters,routes.staticDuration,routes.description,routes.polyline.encodedPolyline"
	DefaultMatrixFieldMask = "originIndex,destinationIndex,status,condition,distanceMeters,duration,staticDuration"
	DefaultTimeout         = 10 * time.Second
)

// DefaultEndpoint is the public Routes API.
var DefaultEndpoint = endpoint.MustParse("https://routes.googleapis.com:443")

var ErrNoPool = errors.New("no worker pool for asynchronous calls")

// Config describes how to reach the Routes service.
type Config struct {
	Endpoint endpoint.Endpoint
	APIKey   string
	// FieldMask is sent on calls that carry no mask of their own.
	FieldMask       string
	RouteFieldMask  string
	MatrixFieldMask string
	// Timeout is the deadline used when a call passes none.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Endpoint.IsZero() {
		c.Endpoint = DefaultEndpoint
	}
	if c.RouteFieldMask == "" {
		c.RouteFieldMask = DefaultRouteFieldMask
	}
	if c.MatrixFieldMask == "" {
		c.MatrixFieldMask = DefaultMatrixFieldMask
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client issues Routes API calls over a channel from the shared cache.
type Client struct {
	cfg    Config
	cache  *channel.Cache
	pool   *workers.Pool
	writer channel.HeaderWriter
}

// New registers the routing header writer with cache and acquires the
// channel once, so a bad endpoint or missing key fails here rather than on
// the first call.
func New(ctx context.Context, cache *channel.Cache, pool *workers.Pool, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}

	c := &Client{
		cfg:    cfg,
		cache:  cache,
		pool:   pool,
		writer: HeaderWriter(cfg),
	}

	if _, err := c.acquire(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire routing channel: %w", err)
	}
	log.Debugf("routing client ready for %s", cfg.Endpoint)

	return c, nil
}

func (c *Client) Config() Config {
	return c.cfg
}

// acquire goes through the cache on every call. It is a hit in the common
// case and picks up a replacement channel after an eviction.
func (c *Client) acquire(ctx context.Context) (routingpb.RoutesClient, error) {
	ch, err := c.cache.Get(ctx, c.cfg.Endpoint, c.writer)
	if err != nil {
		return nil, err
	}
	return routingpb.NewRoutesClient(ch), nil
}

// ComputeRoute computes routes between the request's origin and destination.
// A zero timeout uses the configured default.
func (c *Client) ComputeRoute(
	ctx context.Context,
	req *routingpb.ComputeRoutesRequest,
	timeout time.Duration,
) (*routingpb.ComputeRoutesResponse, error) {
	stub, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := stub.ComputeRoutes(withFieldMask(ctx, c.cfg.RouteFieldMask), req)
	if err != nil {
		return nil, c.remoteError("compute routes", err)
	}

	log.Debugf("compute routes returned %d route(s)", len(resp.GetRoutes()))
	return resp, nil
}

// ComputeRouteMatrix streams one element per origin/destination pair. The
// call starts when the sequence is ranged over; stopping early cancels the
// stream. A zero timeout uses the configured default.
func (c *Client) ComputeRouteMatrix(
	ctx context.Context,
	req *routingpb.ComputeRouteMatrixRequest,
	timeout time.Duration,
) iter.Seq2[*routingpb.RouteMatrixElement, error] {
	return func(yield func(*routingpb.RouteMatrixElement, error) bool) {
		stub, err := c.acquire(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		if timeout <= 0 {
			timeout = c.cfg.Timeout
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		stream, err := stub.ComputeRouteMatrix(withFieldMask(ctx, c.cfg.MatrixFieldMask), req)
		if err != nil {
			yield(nil, c.remoteError("compute route matrix", err))
			return
		}

		for n := 0; ; n++ {
			el, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				log.Debugf("route matrix returned %d element(s)", n)
				return
			}
			if err != nil {
				yield(nil, c.remoteError("compute route matrix", err))
				return
			}
			if !yield(el, nil) {
				return
			}
		}
	}
}

// remoteError wraps a failed call. An unavailable endpoint has its channel
// dropped from the cache so the next call dials afresh; calls still in flight
// on the old channel finish during its drain.
func (c *Client) remoteError(op string, err error) error {
	rerr := newRemoteError(op, c.cfg.Endpoint, err)
	log.WithField("code", rerr.Code().String()).Warnf("%s failed: %s", op, rerr.Status.Message())

	if rerr.Code() == codes.Unavailable && c.cache.Forget(c.cfg.Endpoint) {
		log.Debugf("dropped channel for unavailable %s", c.cfg.Endpoint)
	}
	return rerr
}

// ComputeRouteAsync runs ComputeRoute on the shared pool and reports through
// exactly one of the callbacks. The returned error only covers scheduling.
func (c *Client) ComputeRouteAsync(
	ctx context.Context,
	req *routingpb.ComputeRoutesRequest,
	timeout time.Duration,
	onSuccess func(*routingpb.ComputeRoutesResponse),
	onFailure func(error),
) error {
	if c.pool == nil {
		return ErrNoPool
	}

	return c.pool.Go(ctx, func(ctx context.Context) {
		resp, err := c.ComputeRoute(ctx, req, timeout)
		if err != nil {
			if onFailure != nil {
				onFailure(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(resp)
		}
	})
}

// withFieldMask sets the per-operation mask unless the caller already chose
// one for this call.
func withFieldMask(ctx context.Context, mask string) context.Context {
	if mask == "" {
		return ctx
	}
	if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get(FieldMaskHeader)) > 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, FieldMaskHeader, mask)
}
