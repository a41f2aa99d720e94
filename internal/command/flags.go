// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/routesgo/internal/config"
	"github.com/staranto/routesgo/internal/routing"
)

// The schema and tldr flags are built per command. urfave/cli keeps parsed
// values on the flag, so a shared instance would leak between runs.
func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the attributes available to --attrs",
		HideDefault: true,
	}
}

func newTldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// configFile is the YAML file flag values may be sourced from.
func configFile() string {
	return config.Config.Source
}

// NewGlobalFlags returns the presentation and connection flags shared by
// every query command. ns is the command name and namespaces config keys.
func NewGlobalFlags(ns string) (flags []cli.Flag) {
	src := altsrc.StringSourcer(configFile())

	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"attrs", src),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", src),
				yaml.YAML("color", src),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", src),
				yaml.YAML("output", src),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", src),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", src),
				yaml.YAML("titles", src),
			),
			Value: false,
		},
		NewEndpointFlag(ns),
		NewAPIKeyFlag(ns),
		NewFieldMaskFlag(ns),
		NewTimeoutFlag(ns),
	}

	return
}

// NewEndpointFlag constructs the --endpoint flag. Env wins over config.
func NewEndpointFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, configFile(), &cli.StringFlag{
		Name:    "endpoint",
		Aliases: []string{"e"},
		Usage:   "Routes API endpoint as [scheme://]host[:port]",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("ROUTESGO_ENDPOINT"),
		),
		Value: routing.DefaultEndpoint.String(),
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator, EndpointValidator)
		},
	})
}

// NewAPIKeyFlag constructs the --api-key flag.
func NewAPIKeyFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, configFile(), &cli.StringFlag{
		Name:    "api-key",
		Aliases: []string{"k"},
		Usage:   "API key sent as " + routing.APIKeyHeader,
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("ROUTESGO_API_KEY"),
			cli.EnvVar("GOOGLE_MAPS_API_KEY"),
		),
	}, "api_key")
}

// NewFieldMaskFlag constructs the --field-mask flag. Empty means the per
// operation default mask.
func NewFieldMaskFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, configFile(), &cli.StringFlag{
		Name:    "field-mask",
		Aliases: []string{"m"},
		Usage:   "response field mask sent as " + routing.FieldMaskHeader,
		Sources: cli.NewValueSourceChain(),
	}, "field_mask")
}

// NewTimeoutFlag constructs the per-call --timeout flag.
func NewTimeoutFlag(ns string) *cli.DurationFlag {
	src := altsrc.StringSourcer(configFile())
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "deadline for each call",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+"."+"timeout", src),
			yaml.YAML("timeout", src),
		),
		Value: routing.DefaultTimeout,
	}
}

// NewModeFlag constructs the --mode (travel mode) flag.
func NewModeFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, configFile(), &cli.StringFlag{
		Name:    "mode",
		Usage:   "travel mode: drive, bicycle, walk, two_wheeler or transit",
		Sources: cli.NewValueSourceChain(),
		Validator: func(value string) error {
			return FlagValidators(value, TravelModeValidator)
		},
	})
}

// NewPreferenceFlag constructs the --preference (routing preference) flag.
func NewPreferenceFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, configFile(), &cli.StringFlag{
		Name:    "preference",
		Aliases: []string{"p"},
		Usage:   "routing preference: traffic_unaware, traffic_aware or traffic_aware_optimal",
		Sources: cli.NewValueSourceChain(),
		Validator: func(value string) error {
			return FlagValidators(value, PreferenceValidator)
		},
	})
}

// NewAvoidFlag constructs the repeatable --avoid flag.
func NewAvoidFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:  "avoid",
		Usage: "features to avoid: tolls, highways, ferries or indoor",
		Validator: func(values []string) error {
			_, err := routing.ParseAvoid(splitList(values))
			return err
		},
	}
}

// NewPolylineQualityFlag constructs the --polyline-quality flag.
func NewPolylineQualityFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, configFile(), &cli.StringFlag{
		Name:    "polyline-quality",
		Usage:   "high_quality or overview",
		Sources: cli.NewValueSourceChain(),
		Validator: func(value string) error {
			return FlagValidators(value, PolylineQualityValidator)
		},
	}, "polyline_quality")
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain. The config key defaults to the
// flag name.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag, configKey ...string) *cli.StringFlag {
	key := flag.Name
	if len(configKey) > 0 && configKey[0] != "" {
		key = configKey[0]
	}

	src := yaml.YAML(ns+"."+key, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(key, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas reports whether target is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
