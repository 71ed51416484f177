package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/keshon/slashroute/internal/commands"
	"github.com/keshon/slashroute/pkg/slash"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	printFormat   string
	printModGuild string
	printModRole  string
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the payload each scope would receive, without contacting Discord",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env := commands.Env{ModGuildID: printModGuild, ModRoleID: printModRole}
		return printPlans(cmd.OutOrStdout(), env, printFormat)
	},
}

func init() {
	printCmd.Flags().StringVarP(&printFormat, "format", "f", "json", "output format: json or yaml")
	printCmd.Flags().StringVar(&printModGuild, "mod-guild", "", "declare the moderation commands for this guild")
	printCmd.Flags().StringVar(&printModRole, "mod-role", "", "role allowed to use the moderation commands")
}

type scopeDump struct {
	Scope    string `json:"scope" yaml:"scope"`
	Commands any    `json:"commands" yaml:"commands"`
}

func printPlans(w io.Writer, env commands.Env, format string) error {
	reg := slash.NewRegistry()
	if err := declare(reg, env); err != nil {
		return err
	}

	plans := slash.NewSynchronizer(reg, nil).Plan()
	dumps := make([]scopeDump, 0, len(plans))
	for _, p := range plans {
		payload, err := p.Payload()
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.Scope, err)
		}
		var cmds any
		if err := json.Unmarshal(payload, &cmds); err != nil {
			return err
		}
		dumps = append(dumps, scopeDump{Scope: p.Scope.String(), Commands: cmds})
	}

	switch format {
	case "json":
		out, err := json.MarshalIndent(dumps, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dumps); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
