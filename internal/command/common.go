// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/staranto/routesgo/internal/attrs"
	"github.com/staranto/routesgo/internal/endpoint"
	"github.com/staranto/routesgo/internal/meta"
	"github.com/staranto/routesgo/internal/output"
	"github.com/staranto/routesgo/internal/routing"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr routesgo <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "routesgo", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the attrs available on rows built from md
// when --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, md protoreflect.MessageDescriptor, extra ...string) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(GetMeta(cmd).Writer(), md, extra...)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList, err error) {
	for _, d := range defaults {
		if err = al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err = al.Set(extras); err != nil {
			return nil, err
		}
	}
	err = al.SetGlobalTransformSpec()
	return
}

// OutputOptions collects the presentation flags.
func OutputOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Format: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
	}
}

// Emit passes a JSON array of rows to the common output routine.
func Emit(raw []byte, al attrs.AttrList, cmd *cli.Command) error {
	return output.SliceDiceSpit(raw, al, OutputOptions(cmd), GetMeta(cmd).Writer())
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// NewRoutingClient builds a routing client from the connection flags. The
// channel comes from the process wide cache in meta.
func NewRoutingClient(ctx context.Context, cmd *cli.Command) (*routing.Client, error) {
	m := GetMeta(cmd)
	if m.Cache == nil {
		return nil, meta.ErrNoCache
	}

	ep, err := endpoint.Parse(cmd.String("endpoint"))
	if err != nil {
		return nil, err
	}

	mask := cmd.String("field-mask")
	cfg := routing.Config{
		Endpoint:        ep,
		APIKey:          cmd.String("api-key"),
		FieldMask:       mask,
		RouteFieldMask:  mask,
		MatrixFieldMask: mask,
		Timeout:         cmd.Duration("timeout"),
	}
	log.Debugf("routing config: endpoint=%s mask=%q timeout=%s", ep, mask, cfg.Timeout)

	return routing.New(ctx, m.Cache, m.Pool, cfg)
}

// RouteOptions reads --mode, --preference, --avoid and, where the command has
// them, --alternatives and --polyline-quality.
func RouteOptions(cmd *cli.Command) (o routing.RouteOptions, err error) {
	if o.TravelMode, err = routing.ParseTravelMode(cmd.String("mode")); err != nil {
		return
	}
	if o.Preference, err = routing.ParseRoutingPreference(cmd.String("preference")); err != nil {
		return
	}
	if o.Modifiers, err = routing.ParseAvoid(splitList(cmd.StringSlice("avoid"))); err != nil {
		return
	}
	if o.PolylineQuality, err = routing.ParsePolylineQuality(cmd.String("polyline-quality")); err != nil {
		return
	}
	o.Alternatives = cmd.Bool("alternatives")
	return
}

// splitList flattens repeated and comma separated values. Slice flags are
// not split by urfave/cli here because waypoints contain commas.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// debugArgs logs the command line the action is running for.
func debugArgs(cmd *cli.Command) {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}
}

// QueryCommandBuilder constructs a cli.Command for query subcommands (route,
// matrix) using a consistent pattern. The builder wires metadata, adds the
// tldr/schema flags, applies global flags and sets up validators.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: append(qcb.Flags, append([]cli.Flag{
			newTldrFlag(),
			newSchemaFlag(),
		}, NewGlobalFlags(qcb.Name)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: qcb.Action,

		// "lat,lng" waypoints must reach slice flags whole.
		DisableSliceFlagSeparator: true,
	}
}
