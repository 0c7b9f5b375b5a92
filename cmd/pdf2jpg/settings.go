// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change remembered settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the remembered destination and effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		store, err := openSettings(v)
		if err != nil {
			return err
		}
		hist, err := historyConfig(v)
		if err != nil {
			return err
		}
		rc := renderConfig(v)

		dest := store.LastDestination()
		if dest == "" {
			dest = "(none)"
		}
		fmt.Printf("settings file:    %s\n", store.Path())
		fmt.Printf("last destination: %s\n", dest)
		fmt.Printf("backend:          %s\n", rc.Backend)
		fmt.Printf("poppler runtime:  %s\n", rc.Poppler.Runtime)
		fmt.Printf("poppler image:    %s\n", rc.Poppler.Image)
		fmt.Printf("history:          %s (enabled: %t)\n", hist.DBPath, hist.Enabled)
		return nil
	},
}

var settingsSetDestinationCmd = &cobra.Command{
	Use:   "set-destination DIR",
	Short: "Remember DIR as the default destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}

		store, err := openSettings(viper.GetViper())
		if err != nil {
			return err
		}
		if err := store.SetLastDestination(dir); err != nil {
			return err
		}
		fmt.Printf("Destination set to %s\n", dir)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetDestinationCmd)
	rootCmd.AddCommand(settingsCmd)
}
