// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"google.golang.org/grpc/codes"

	"github.com/staranto/routesgo/internal/meta"
	"github.com/staranto/routesgo/internal/routing"
)

const matrixDefaultAttrs = "origin,destination,condition,distanceMeters:distance:m,duration::d"

var ErrNoOrigin = errors.New("at least one --origin is required")

// MatrixCommandAction is the action handler for the "matrix" subcommand. It
// streams one row per origin/destination pair. Rows received before a stream
// failure are still rendered.
func MatrixCommandAction(ctx context.Context, cmd *cli.Command) error {
	debugArgs(cmd)

	if ShortCircuitTLDR(ctx, cmd, "matrix") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, (&routingpb.RouteMatrixElement{}).ProtoReflect().Descriptor(), "origin", "destination", "error") {
		return nil
	}

	al, err := BuildAttrs(cmd, matrixDefaultAttrs)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al)

	originArgs := cmd.StringSlice("origin")
	if len(originArgs) == 0 {
		return ErrNoOrigin
	}
	destArgs := cmd.StringSlice("destination")
	if len(destArgs) == 0 {
		return ErrNoDestination
	}

	origins, err := parseWaypoints("--origin", originArgs)
	if err != nil {
		return err
	}
	dests, err := parseWaypoints("--destination", destArgs)
	if err != nil {
		return err
	}

	opts, err := RouteOptions(cmd)
	if err != nil {
		return err
	}

	client, err := NewRoutingClient(ctx, cmd)
	if err != nil {
		return err
	}

	req := routing.NewMatrixRequest(origins, dests, opts)

	var rows []map[string]any
	var streamErr error
	for el, err := range client.ComputeRouteMatrix(ctx, req, cmd.Duration("timeout")) {
		if err != nil {
			streamErr = err
			break
		}

		extra := map[string]any{
			"origin":      label(originArgs, int(el.GetOriginIndex())),
			"destination": label(destArgs, int(el.GetDestinationIndex())),
		}
		if st := el.GetStatus(); st != nil && codes.Code(st.GetCode()) != codes.OK {
			extra["error"] = st.GetMessage()
		}

		row, err := protoRow(el, extra)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	raw, err := marshalRows(rows)
	if err != nil {
		return err
	}
	if err := Emit(raw, al, cmd); err != nil {
		return err
	}

	return streamErr
}

func parseWaypoints(flag string, args []string) ([]*routingpb.Waypoint, error) {
	wps := make([]*routingpb.Waypoint, 0, len(args))
	for _, a := range args {
		wp, err := routing.ParseWaypoint(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", flag, err)
		}
		wps = append(wps, wp)
	}
	return wps, nil
}

// label maps a matrix index back to the argument it came from.
func label(args []string, idx int) string {
	if idx >= 0 && idx < len(args) {
		return args[idx]
	}
	return strconv.Itoa(idx)
}

// MatrixCommandBuilder constructs the cli.Command definition for the "matrix"
// command.
func MatrixCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "matrix",
		Usage:     "compute a route matrix between origins and destinations",
		UsageText: `routesgo matrix --origin O [--origin O2 ...] --destination D [--destination D2 ...] [options]`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "origin",
				Usage: "repeat for several origins",
			},
			&cli.StringSliceFlag{
				Name:  "destination",
				Usage: "repeat for several destinations",
			},
			NewModeFlag("matrix"),
			NewPreferenceFlag("matrix"),
			NewAvoidFlag(),
		},
		Action: MatrixCommandAction,
		Meta:   meta,
	}).Build()
}
