package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/readgate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(config.Redacted(cfg))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.DefaultPath()
		}
		if path == "" {
			return errors.New("cannot determine config directory; pass --config")
		}
		force, _ := cmd.Flags().GetBool("force")
		if err := config.WriteFile(path, config.Default(), force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
