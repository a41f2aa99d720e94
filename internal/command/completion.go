// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/routesgo/internal/meta"
)

const bashCompletionScript = `# bash completion for routesgo
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_routesgo()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "route matrix completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --output -o --sort -s --titles -t --tldr --schema"
    local conn="--endpoint -e --api-key -k --field-mask -m --timeout --mode --preference -p"

    case "$cmd" in
        route)
            local opts="$common $conn --origin --destination --alternatives"
            ;;
        matrix)
            local opts="$common $conn --origin --destination"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --mode)
            COMPREPLY=( $(compgen -W "drive bicycle walk two_wheeler transit" -- "$cur") )
            return 0
            ;;
        --preference|-p)
            COMPREPLY=( $(compgen -W "traffic_unaware traffic_aware traffic_aware_optimal" -- "$cur") )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _routesgo routesgo
`

const zshCompletionScript = `#compdef routesgo

_routesgo() {
  local -a cmds
  cmds=(
    'route:compute routes to one or more destinations'
    'matrix:compute a route matrix'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  '--schema[dump schema]'
  '(-e --endpoint)'{-e,--endpoint}'[Routes API endpoint]:endpoint'
  '(-k --api-key)'{-k,--api-key}'[API key]:key'
  '(-m --field-mask)'{-m,--field-mask}'[response field mask]:mask'
  '--timeout[deadline for each call]:duration'
  '--mode[travel mode]:mode:(drive bicycle walk two_wheeler transit)'
  '(-p --preference)'{-p,--preference}'[routing preference]:preference:(traffic_unaware traffic_aware traffic_aware_optimal)'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'routesgo commands' cmds
    return
  fi

  case $words[2] in
    route)
      _arguments -C \
        $common \
        '--origin[origin waypoint]:origin' \
        '*--destination[destination waypoint]:destination' \
        '--alternatives[ask for alternative routes]'
      ;;
    matrix)
      _arguments -C \
        $common \
        '*--origin[origin waypoint]:origin' \
        '*--destination[destination waypoint]:destination'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _routesgo routesgo
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := GetMeta(cmd).Writer()

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: routesgo completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "routesgo completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
