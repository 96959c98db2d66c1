package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sliprisk/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage engine configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  sliprisk config init -o sliprisk.yaml
  sliprisk config validate -f sliprisk.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "sliprisk.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  sliprisk stake --config %s --legs legs.yaml --slips slips.yaml\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Bankroll: %.2f (unit %.2f)\n", cfg.Bankroll.Amount, cfg.Bankroll.Unit)
	fmt.Fprintf(out, "  Kelly: %.2f, caps %.1f units / %.1f%% bankroll\n",
		cfg.Staking.KellyFraction, cfg.Staking.UnitCap, cfg.Staking.BankrollCap*100)
	fmt.Fprintf(out, "  Monte Carlo: %d samples, seed %d, %d shards\n",
		cfg.MonteCarlo.Samples, cfg.MonteCarlo.Seed, cfg.MonteCarlo.Shards)
	journalType := cfg.Journal.Type
	if journalType == "" {
		journalType = "off"
	}
	fmt.Fprintf(out, "  Journal: %s\n", journalType)
	return nil
}
