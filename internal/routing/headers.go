// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package routing

import (
	"google.golang.org/grpc/metadata"

	"github.com/staranto/routesgo/internal/channel"
)

// Request header names understood by the Routes API.
const (
	APIKeyHeader    = "x-goog-api-key"  //nolint:gosec // header name, not a credential
	FieldMaskHeader = "x-goog-fieldmask"
)

// HeaderWriter returns the writer registered for the routing endpoint. The
// API key goes on every call; the default field mask only when the call does
// not already carry its own.
func HeaderWriter(cfg Config) channel.HeaderWriter {
	key := cfg.APIKey
	mask := cfg.FieldMask
	return channel.HeaderFunc(func(md metadata.MD) {
		md.Set(APIKeyHeader, key)
		if len(md.Get(FieldMaskHeader)) == 0 && mask != "" {
			md.Set(FieldMaskHeader, mask)
		}
	})
}
