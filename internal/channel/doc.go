// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package channel keeps a bounded, time-expiring set of shared gRPC channels
// keyed by endpoint. Every channel injects the endpoint's registered request
// headers into each outgoing call.
package channel
