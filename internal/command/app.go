// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/routesgo/internal/channel"
	"github.com/staranto/routesgo/internal/config"
	"github.com/staranto/routesgo/internal/meta"
	"github.com/staranto/routesgo/internal/workers"
)

// NewMeta builds the process wide state: config, the channel cache and the
// worker pool. The caller owns it and must Close it.
func NewMeta(ctx context.Context, args []string) meta.Meta {
	// The arg[1] immediately following the binary (arg[0]) is the routesgo
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		config.Config.Namespace = args[1]
	}

	maxEntries, _ := config.GetInt("cache.max_entries", channel.DefaultMaxEntries)
	ttl, _ := config.GetDuration("cache.ttl", channel.DefaultTTL)
	drain, _ := config.GetDuration("cache.drain", channel.DefaultDrainDelay)
	eager, _ := config.GetBool("cache.eager", false)
	size, _ := config.GetInt("workers", 0)

	m := meta.Meta{
		Args:    args,
		Config:  config.Config,
		Context: ctx,
		Cache: channel.New(channel.Options{
			MaxEntries:   maxEntries,
			TTL:          ttl,
			DrainDelay:   drain,
			EagerConnect: eager,
		}),
		Pool: workers.New(size),
	}
	log.Debugf("cache: max=%d ttl=%s drain=%s eager=%t workers=%d",
		maxEntries, ttl, drain, eager, m.Pool.Size())

	return m
}

// InitApp builds the root command around m.
func InitApp(ctx context.Context, m meta.Meta) (*cli.Command, error) {
	app := &cli.Command{
		Name:  "routesgo",
		Usage: "Routes API client",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "routesgo version info",
				HideDefault: true,
			},
		},
		DisableSliceFlagSeparator: true,
		Writer:                    m.Writer(),
	}

	app.Commands = append(app.Commands,
		RouteCommandBuilder(app, m),
		MatrixCommandBuilder(app, m),
		CompletionCommandBuilder(app, m),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
