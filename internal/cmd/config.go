package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/config"
	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the file and the environment
(STAYADMIN_API_URL, STAYADMIN_HOME, STAYADMIN_CREDENTIAL_BACKEND,
STAYADMIN_REDIS_ADDR, STAYADMIN_LOG_LEVEL) have been applied.`,
	RunE: runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configInitCmd.Flags().String("api-url", "", "booking API base URL to write")

	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath(cmd *cobra.Command) (string, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return "", err
	}
	if cc.ConfigPath != "" {
		return cc.ConfigPath, nil
	}
	return config.DefaultPath()
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cc.ConfigPath)
	if err != nil {
		return err
	}
	return render(cmd, cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeFileWriteFailed, fmt.Sprintf("%s already exists", path)).
			WithSuggestion("Pass --force to overwrite it")
	}

	cfg := config.Default()
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		cfg.API.BaseURL = u
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return err
}
