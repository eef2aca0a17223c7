package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/codebridge/bootstrap"
)

func newInitCmd() *cobra.Command {
	var cfgPath string
	var force bool
	var sets []string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bootstrap.Options{}
			for _, raw := range sets {
				override, err := bootstrap.ParseOverride(raw)
				if err != nil {
					return err
				}
				opts.Overrides = append(opts.Overrides, override)
			}
			path, err := bootstrap.Write(cfgPath, force, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to write (default ~/.codebridge/config.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a value, e.g. --set engine.transport=websocket")
	return cmd
}
