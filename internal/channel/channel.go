// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"

	"github.com/staranto/routesgo/internal/endpoint"
)

// Channel is a shared connection to one endpoint. It satisfies
// grpc.ClientConnInterface so generated stubs can be built on it. Holders
// never close a Channel; the Cache decides when it goes away.
type Channel struct {
	endpoint endpoint.Endpoint
	conn     *grpc.ClientConn
	created  time.Time
}

// Invoke performs a unary RPC.
func (c *Channel) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	return c.conn.Invoke(ctx, method, args, reply, opts...)
}

// NewStream begins a streaming RPC.
func (c *Channel) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return c.conn.NewStream(ctx, desc, method, opts...)
}

func (c *Channel) Endpoint() endpoint.Endpoint {
	return c.endpoint
}

// Created is when the channel was inserted into the cache. Its TTL runs from
// this instant.
func (c *Channel) Created() time.Time {
	return c.created
}

// State is the connectivity state of the underlying connection.
func (c *Channel) State() connectivity.State {
	return c.conn.GetState()
}

func (c *Channel) String() string {
	return c.endpoint.String()
}

func (c *Channel) close() error {
	return c.conn.Close()
}
