package cli

import (
	"github.com/spf13/cobra"
)

var dataDir string

// NewRootCmd returns the root command for the sentinelctl operator tool.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sentinelctl",
		Short:         "Sentinel operator tool",
		Long:          "Sentinel operator tool - manage the kill switch, inspect scheduler data and take emergency backups.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "sentinel data directory")

	rootCmd.AddCommand(newKillSwitchCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
