package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stayadmin/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("verbose", false, "include commit, build date and Go version")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()

	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if cc.Format == "json" || cc.Format == "yaml" {
		return render(cmd, info)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), info.String())
	} else {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "stayadmin %s\n", info.Short())
	}
	return err
}
