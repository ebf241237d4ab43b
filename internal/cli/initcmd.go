package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yilmaz/voxa/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file to the config path.
Provider API keys are left empty; supply them through the environment
or edit the file afterwards.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)

	configPath, err := loader.Path()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := loader.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Start the assistant with: voxa serve")

	return nil
}
