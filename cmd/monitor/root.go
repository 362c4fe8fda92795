package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"line-monitor/pkg/config"
	"line-monitor/pkg/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "monitor",
		Short:         config.AppDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Info()
			fmt.Printf("monitor version %s, commit %s, built %s\n", info.Version, info.Commit, info.Built)
		},
	}
}
