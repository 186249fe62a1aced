package main

import (
	"fmt"

	"OFTester/internal/config"
	"OFTester/internal/scenario"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario...]",
		Short: "Check the configuration and build every plan without touching a switch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, env, err := loadEnvironment()
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = cfg.Scenarios
			}
			registry := scenario.Builtins()
			for _, name := range names {
				feature, err := registry.Lookup(name)
				if err != nil {
					return err
				}
				sc := scenario.New(name, env, feature, cfg.PacketSizes, config.Duration(cfg.CollectionInterval))
				sc.Options = scenarioOptions(cfg)
				plans, err := scenario.Plans(sc)
				if err != nil {
					return err
				}
				flows := 0
				for _, p := range plans {
					flows += len(p.Baseline)
					for _, s := range p.Steps {
						flows += len(s.Flows)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %d switch(es), %d flow(s)\n", name, len(plans), flows)
			}
			return nil
		},
	}
}
