// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package routing

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/staranto/routesgo/internal/endpoint"
)

var ErrAPIKeyMissing = errors.New("api key is not set")

// RemoteError reports a failed call against the Routes service. It carries
// the gRPC status so callers can branch on Code without string matching.
type RemoteError struct {
	Op       string
	Endpoint endpoint.Endpoint
	Status   *status.Status
}

func newRemoteError(op string, ep endpoint.Endpoint, err error) *RemoteError {
	return &RemoteError{Op: op, Endpoint: ep, Status: status.Convert(err)}
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s on %s failed: %s: %s", e.Op, e.Endpoint, e.Code(), e.Status.Message())
	if hint := e.Hint(); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}

func (e *RemoteError) Code() codes.Code {
	return e.Status.Code()
}

// Unwrap exposes the status error so status.FromError and errors.Is against
// context errors keep working.
func (e *RemoteError) Unwrap() error {
	switch e.Code() {
	case codes.Canceled:
		return errors.Join(e.Status.Err(), context.Canceled)
	case codes.DeadlineExceeded:
		return errors.Join(e.Status.Err(), context.DeadlineExceeded)
	}
	return e.Status.Err()
}

// GRPCStatus lets status.FromError see through the wrapper.
func (e *RemoteError) GRPCStatus() *status.Status {
	return e.Status
}

// Hint returns a short remedy for codes a user can act on.
func (e *RemoteError) Hint() string {
	switch e.Code() {
	case codes.Unauthenticated:
		return "check the api key"
	case codes.PermissionDenied:
		return "the api key is not allowed to use the Routes API"
	case codes.InvalidArgument:
		return "check the request and the field mask"
	case codes.DeadlineExceeded:
		return "raise --timeout"
	case codes.ResourceExhausted:
		return "quota exhausted, try again later"
	case codes.Unavailable:
		return "service unreachable, check --endpoint and network"
	}
	return ""
}
