// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package routingtest provides an in-memory Routes service for tests.
package routingtest

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Call is what the server saw for one RPC.
type Call struct {
	Method   string
	Metadata metadata.MD
	// Deadline is the time left on the call when it arrived, zero if none.
	Deadline time.Duration
	Request  proto.Message
}

// Server answers ComputeRoutes with one route per request and
// ComputeRouteMatrix with one element per origin/destination pair. Set
// RouteErr or MatrixErr before the first call to fail instead.
type Server struct {
	routingpb.UnimplementedRoutesServer

	RouteErr  error
	MatrixErr error
	// Elements overrides the number of matrix elements streamed when > 0.
	Elements int

	lis   *bufconn.Listener
	dials atomic.Int32

	mu    sync.Mutex
	calls []Call
}

// NewServer starts a Server on an in-memory listener. It stops with the test.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{lis: bufconn.Listen(1 << 20)}
	srv := grpc.NewServer()
	routingpb.RegisterRoutesServer(srv, s)
	go func() { _ = srv.Serve(s.lis) }()
	t.Cleanup(srv.Stop)

	return s
}

// Dial matches channel.DialFunc. It counts each construction and routes it to
// the in-memory listener regardless of target.
func (s *Server) Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	s.dials.Add(1)
	opts = append(opts, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return s.lis.DialContext(ctx)
	}))
	return grpc.NewClient("passthrough:///"+target, opts...)
}

func (s *Server) Dials() int {
	return int(s.dials.Load())
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Last returns the most recent call, or the zero Call.
func (s *Server) Last() Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Call{}
	}
	return s.calls[len(s.calls)-1]
}

func (s *Server) record(ctx context.Context, method string, req proto.Message) {
	c := Call{Method: method, Request: req}
	c.Metadata, _ = metadata.FromIncomingContext(ctx)
	if dl, ok := ctx.Deadline(); ok {
		c.Deadline = time.Until(dl)
	}
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

// Describe names a waypoint the way the fake echoes it back in route
// descriptions.
func Describe(wp *routingpb.Waypoint) string {
	switch {
	case wp.GetAddress() != "":
		return wp.GetAddress()
	case wp.GetPlaceId() != "":
		return "place:" + wp.GetPlaceId()
	case wp.GetLocation() != nil:
		ll := wp.GetLocation().GetLatLng()
		return strconv.FormatFloat(ll.GetLatitude(), 'f', -1, 64) + "," + strconv.FormatFloat(ll.GetLongitude(), 'f', -1, 64)
	}
	return ""
}

func (s *Server) ComputeRoutes(ctx context.Context, req *routingpb.ComputeRoutesRequest) (*routingpb.ComputeRoutesResponse, error) {
	s.record(ctx, "ComputeRoutes", req)
	if s.RouteErr != nil {
		return nil, s.RouteErr
	}

	n := 1
	if req.GetComputeAlternativeRoutes() {
		n = 2
	}
	resp := &routingpb.ComputeRoutesResponse{}
	for i := 0; i < n; i++ {
		resp.Routes = append(resp.Routes, &routingpb.Route{
			DistanceMeters: int32(1500 * (i + 1)),
			Duration:       durationpb.New(time.Duration(3*(i+1)) * time.Minute),
			Description:    "to " + Describe(req.GetDestination()),
		})
	}
	return resp, nil
}

func (s *Server) ComputeRouteMatrix(req *routingpb.ComputeRouteMatrixRequest, stream routingpb.Routes_ComputeRouteMatrixServer) error {
	s.record(stream.Context(), "ComputeRouteMatrix", req)
	if s.MatrixErr != nil {
		return s.MatrixErr
	}

	dests := len(req.GetDestinations())
	total := len(req.GetOrigins()) * dests
	if s.Elements > 0 {
		total = s.Elements
		if dests == 0 {
			dests = 1
		}
	}

	for i := 0; i < total; i++ {
		el := &routingpb.RouteMatrixElement{
			OriginIndex:      proto.Int32(int32(i / dests)),
			DestinationIndex: proto.Int32(int32(i % dests)),
			Condition:        routingpb.RouteMatrixElementCondition_ROUTE_EXISTS,
			DistanceMeters:   int32(100 * (i + 1)),
			Duration:         durationpb.New(time.Duration(i+1) * time.Minute),
		}
		if err := stream.Send(el); err != nil {
			return err
		}
	}
	return nil
}
