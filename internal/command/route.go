// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/routesgo/internal/meta"
	"github.com/staranto/routesgo/internal/routing"
)

const routeDefaultAttrs = "destination,route,distanceMeters:distance:m,duration::d,description"

var ErrNoDestination = errors.New("at least one --destination is required")

// RouteCommandAction is the action handler for the "route" subcommand. One
// destination is a single call. Several are fanned out on the shared worker
// pool and each row is tagged with the destination it answers.
func RouteCommandAction(ctx context.Context, cmd *cli.Command) error {
	debugArgs(cmd)

	if ShortCircuitTLDR(ctx, cmd, "route") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, (&routingpb.Route{}).ProtoReflect().Descriptor(), "origin", "destination", "route") {
		return nil
	}

	al, err := BuildAttrs(cmd, routeDefaultAttrs)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al)

	origin, err := routing.ParseWaypoint(cmd.String("origin"))
	if err != nil {
		return fmt.Errorf("--origin: %w", err)
	}

	dests := cmd.StringSlice("destination")
	if len(dests) == 0 {
		return ErrNoDestination
	}

	opts, err := RouteOptions(cmd)
	if err != nil {
		return err
	}

	reqs := make([]*routingpb.ComputeRoutesRequest, len(dests))
	for i, d := range dests {
		wp, err := routing.ParseWaypoint(d)
		if err != nil {
			return fmt.Errorf("--destination: %w", err)
		}
		reqs[i] = routing.NewRouteRequest(origin, wp, opts)
	}

	client, err := NewRoutingClient(ctx, cmd)
	if err != nil {
		return err
	}

	responses, errs := computeRoutes(ctx, client, reqs, cmd.Duration("timeout"))

	var rows []map[string]any
	var failures []error
	for i, resp := range responses {
		if errs[i] != nil {
			failures = append(failures, fmt.Errorf("%s: %w", dests[i], errs[i]))
			continue
		}
		for j, r := range resp.GetRoutes() {
			row, err := protoRow(r, map[string]any{
				"origin":      cmd.String("origin"),
				"destination": dests[i],
				"route":       j + 1,
			})
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
	}

	raw, err := marshalRows(rows)
	if err != nil {
		return err
	}
	if err := Emit(raw, al, cmd); err != nil {
		return err
	}

	return errors.Join(failures...)
}

// computeRoutes returns one response or error per request, in request order.
func computeRoutes(
	ctx context.Context,
	client *routing.Client,
	reqs []*routingpb.ComputeRoutesRequest,
	timeout time.Duration,
) ([]*routingpb.ComputeRoutesResponse, []error) {
	responses := make([]*routingpb.ComputeRoutesResponse, len(reqs))
	errs := make([]error, len(reqs))

	if len(reqs) == 1 {
		responses[0], errs[0] = client.ComputeRoute(ctx, reqs[0], timeout)
		return responses, errs
	}

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		err := client.ComputeRouteAsync(ctx, req, timeout,
			func(resp *routingpb.ComputeRoutesResponse) {
				defer wg.Done()
				responses[i] = resp
			},
			func(err error) {
				defer wg.Done()
				errs[i] = err
			},
		)
		if err != nil {
			errs[i] = err
			wg.Done()
		}
	}
	wg.Wait()
	log.Debugf("fanned out %d route request(s)", len(reqs))

	return responses, errs
}

// RouteCommandBuilder constructs the cli.Command definition for the "route"
// command, wiring flags, metadata, and the action/validator handlers.
func RouteCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "route",
		Usage:     "compute routes from an origin to one or more destinations",
		UsageText: `routesgo route --origin O --destination D [--destination D2 ...] [options]`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "origin",
				Usage: `"lat,lng", "place:<id>" or an address`,
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.StringSliceFlag{
				Name:  "destination",
				Usage: "repeat for several destinations",
			},
			&cli.BoolFlag{
				Name:  "alternatives",
				Usage: "ask for alternative routes",
			},
			NewModeFlag("route"),
			NewPreferenceFlag("route"),
			NewAvoidFlag(),
			NewPolylineQualityFlag("route"),
		},
		Action: RouteCommandAction,
		Meta:   meta,
	}).Build()
}
