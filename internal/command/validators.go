// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/routesgo/internal/endpoint"
	"github.com/staranto/routesgo/internal/routing"
)

// GlobalFlagsValidator checks flag combinations that single-flag validators
// cannot see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.Bool("schema") || c.Bool("tldr") {
		return nil
	}
	if c.String("output") == "raw" && (c.String("filter") != "" || c.String("sort") != "") {
		return errors.New("--filter and --sort do not apply to --output=raw")
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'. urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func MustBeTrueValidator(value any) error {
	if !value.(bool) {
		return errors.New("must be true")
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	if !slices.Contains(validOutputFlagValues, value.(string)) {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}

func EndpointValidator(value any) error {
	_, err := endpoint.Parse(value.(string))
	return err
}

func TravelModeValidator(value any) error {
	_, err := routing.ParseTravelMode(value.(string))
	return err
}

func PreferenceValidator(value any) error {
	_, err := routing.ParseRoutingPreference(value.(string))
	return err
}

func PolylineQualityValidator(value any) error {
	_, err := routing.ParsePolylineQuality(value.(string))
	return err
}
