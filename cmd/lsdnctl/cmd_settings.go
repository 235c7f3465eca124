package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lsdn-core/lsdn/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persisted lsdnctl preferences",
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd)
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return err
		}
		fmt.Printf("default_context:   %s\n", dash(s.DefaultContext))
		fmt.Printf("default_nettype:   %s\n", dash(s.DefaultNettype))
		fmt.Printf("config_dir:        %s\n", s.GetConfigDir())
		fmt.Printf("audit_log_path:    %s\n", s.GetAuditLogPath(s.GetConfigDir()))
		fmt.Printf("audit_max_size_mb: %d\n", s.GetAuditMaxSizeMB())
		fmt.Printf("audit_max_backups: %d\n", s.GetAuditMaxBackups())
		return nil
	},
}

var (
	setDefaultContext string
	setDefaultNettype string
	setConfigDir      string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update a persisted setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("default-context") {
			s.DefaultContext = setDefaultContext
		}
		if cmd.Flags().Changed("default-nettype") {
			s.DefaultNettype = setDefaultNettype
		}
		if cmd.Flags().Changed("config-dir") {
			s.ConfigDir = setConfigDir
		}
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Println("settings saved.")
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&setDefaultContext, "default-context", "", "Default context name")
	settingsSetCmd.Flags().StringVar(&setDefaultNettype, "default-nettype", "", "Default nettype driver mode")
	settingsSetCmd.Flags().StringVar(&setConfigDir, "config-dir", "", "Configuration directory")
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return err
		}
		s.Clear()
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Println("settings cleared.")
		return nil
	},
}
