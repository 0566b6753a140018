package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/guard"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

func newGuardKillSwitch() (*guard.KillSwitch, error) {
	logger := logging.NewNopLogger()
	audit, err := guard.NewAuditLog(filepath.Join(dataDir, "logs", "security"))
	if err != nil {
		return nil, err
	}
	return guard.NewKillSwitch(filepath.Join(dataDir, "kill_switch.json"), audit, logger), nil
}

func newKillSwitchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "killswitch",
		Short: "Manage the system-wide kill switch",
	}
	cmd.AddCommand(newKillSwitchActivateCmd())
	cmd.AddCommand(newKillSwitchDeactivateCmd())
	cmd.AddCommand(newKillSwitchStatusCmd())
	return cmd
}

func newKillSwitchActivateCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Engage the kill switch, blocking all publishing and analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := newGuardKillSwitch()
			if err != nil {
				return err
			}
			if err := ks.Activate(reason); err != nil {
				return err
			}
			color.New(color.FgRed, color.Bold).Fprintln(cmd.OutOrStdout(), "KILL SWITCH ACTIVE")
			fmt.Fprintf(cmd.OutOrStdout(), "Reason: %s\n", reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the kill switch is being engaged")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newKillSwitchDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Disengage the kill switch and resume normal operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := newGuardKillSwitch()
			if err != nil {
				return err
			}
			if err := ks.Deactivate(); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Kill switch deactivated")
			return nil
		},
	}
}

func newKillSwitchStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current kill switch state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := newGuardKillSwitch()
			if err != nil {
				return err
			}
			state := ks.State()
			if !state.Active {
				color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Kill switch: inactive")
				return nil
			}
			color.New(color.FgRed, color.Bold).Fprintln(cmd.OutOrStdout(), "Kill switch: ACTIVE")
			fmt.Fprintf(cmd.OutOrStdout(), "Activated: %s\n", state.ActivatedAt.Format(time.RFC3339))
			fmt.Fprintf(cmd.OutOrStdout(), "Reason:    %s\n", state.Reason)
			fmt.Fprintf(cmd.OutOrStdout(), "By:        %s\n", state.ActivatedBy)
			return nil
		},
	}
}
