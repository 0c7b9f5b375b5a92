// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf2jpg CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2jpg/internal/history"
	"github.com/pdiddy/pdf2jpg/internal/pipeline"
	"github.com/pdiddy/pdf2jpg/internal/render"
	"github.com/pdiddy/pdf2jpg/internal/settings"
	"github.com/pdiddy/pdf2jpg/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdf2jpg CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf2jpg",
	Short: "Convert PDF files into one JPG per page",
	Long: `pdf2jpg converts a batch of PDF files into per-page JPG images. Every job
writes into a named folder under a destination directory, with one subfolder
per document and one image per page:

  <destination>/<job name>/<document>/001 - <document>.jpg

Pages are rendered at 200 DPI on a white background. Password-protected files
are skipped and reported.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf2jpg.yaml or ~/.config/pdf2jpg/pdf2jpg.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf2jpg")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf2jpg"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("PDF2JPG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("render.backend", string(types.BackendFitz))
	v.SetDefault("render.start_delay", pipeline.DefaultStartDelay)
	v.SetDefault("poppler.runtime", "auto")
	v.SetDefault("poppler.image", render.DefaultPopplerImage)
	v.SetDefault("history.enabled", true)
}

func renderConfig(v *viper.Viper) types.RenderConfig {
	return types.RenderConfig{
		Backend: types.RasterBackend(v.GetString("render.backend")),
		Poppler: types.PopplerConfig{
			Runtime: v.GetString("poppler.runtime"),
			Image:   v.GetString("poppler.image"),
		},
	}
}

func historyConfig(v *viper.Viper) (types.HistoryConfig, error) {
	cfg := types.HistoryConfig{
		Enabled: v.GetBool("history.enabled"),
		DBPath:  v.GetString("history.db"),
	}
	if cfg.DBPath == "" {
		p, err := history.DefaultPath()
		if err != nil {
			return cfg, err
		}
		cfg.DBPath = p
	}
	return cfg, nil
}

func settingsConfig(v *viper.Viper) (types.SettingsConfig, error) {
	cfg := types.SettingsConfig{File: v.GetString("settings.file")}
	if cfg.File == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return cfg, err
		}
		cfg.File = p
	}
	return cfg, nil
}

func openSettings(v *viper.Viper) (*settings.FileStore, error) {
	cfg, err := settingsConfig(v)
	if err != nil {
		return nil, err
	}
	return settings.Load(cfg.File)
}

func openHistory(v *viper.Viper) (*history.Store, error) {
	cfg, err := historyConfig(v)
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.DBPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
