package cmd

import (
	"fmt"
	"os"

	"github.com/jmehdipour/micromdm-webhook/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "micromdm-webhook",
		Short: "MicroMDM webhook relay",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().String("server-url", "", "public HTTPS url of your MicroMDM server")
	rootCmd.PersistentFlags().String("api-key", "", "API key for your MicroMDM server")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(commandCmd)
}

// loadConfig resolves and validates config for cmd, honoring flags set on it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgPath, cmd.Flags())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
