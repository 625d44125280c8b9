package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/ux"
)

// CommandContext holds the persistent flags of one invocation.
type CommandContext struct {
	ConfigPath string
	Format     string
	NoColor    bool
	LogLevel   string
	LogFormat  string
	Ephemeral  bool
}

// NewCommandContext extracts the persistent flags from cmd. Commands call
// it at the top of RunE.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}
	ephemeral, err := flags.GetBool("ephemeral")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		ConfigPath: configPath,
		Format:     format,
		NoColor:    noColor,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		Ephemeral:  ephemeral,
	}, nil
}

// Formatter returns the output formatter writing to cmd's stdout.
func (cc *CommandContext) Formatter(cmd *cobra.Command) (ux.Formatter, error) {
	return ux.NewFormatter(cc.Format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: cc.NoColor,
	})
}
