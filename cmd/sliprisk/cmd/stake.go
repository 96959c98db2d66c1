package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sliprisk/engine"
	"github.com/rustyeddy/sliprisk/report"
	"github.com/rustyeddy/sliprisk/slipio"
)

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Size slips with capped fractional Kelly",
	Long: `Estimate each slip's joint probability and size it against the bankroll
with fractional Kelly, clamped by the bankroll, unit, tier and template caps.
Slips that reference unknown legs or have fewer than two legs are skipped
and listed with the reason.

Examples:
  sliprisk stake --legs legs.yaml --slips slips.yaml
  sliprisk stake --legs legs.yaml --slips slips.yaml --tier high --template spray
  sliprisk stake --legs legs.yaml --slips slips.yaml --out staked.yaml`,
	Args: cobra.NoArgs,
	RunE: runStake,
}

var (
	stakeLegsPath  string
	stakeSlipsPath string
	stakeTier      string
	stakeTemplate  string
	stakeOut       string
	stakeJSON      bool
)

func init() {
	rootCmd.AddCommand(stakeCmd)

	f := stakeCmd.Flags()
	f.StringVarP(&stakeLegsPath, "legs", "l", "", "legs file (required)")
	f.StringVarP(&stakeSlipsPath, "slips", "s", "", "slips file (required)")
	f.StringVar(&stakeTier, "tier", "", "risk tier (low, medium, high)")
	f.StringVar(&stakeTemplate, "template", "", "unit template name")
	f.StringVarP(&stakeOut, "out", "o", "", "write the sized slips to this file for a later stress run")
	f.BoolVar(&stakeJSON, "json", false, "print JSON instead of a report")
	stakeCmd.MarkFlagRequired("legs")
	stakeCmd.MarkFlagRequired("slips")
}

func runStake(cmd *cobra.Command, args []string) error {
	legs, err := slipio.LoadLegs(stakeLegsPath)
	if err != nil {
		return err
	}
	slips, err := slipio.LoadSlips(stakeSlipsPath)
	if err != nil {
		return err
	}

	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	rep, err := s.eng.StakeSlips(cmd.Context(), legs, slips, engine.StakeOptions{Tier: stakeTier, Template: stakeTemplate})
	if err != nil {
		return fmt.Errorf("stake: %w", err)
	}

	if stakeOut != "" {
		if err := slipio.SaveFile(stakeOut, rep.Slips(slips)); err != nil {
			return err
		}
	}

	if stakeJSON {
		return slipio.WriteJSON(cmd.OutOrStdout(), rep)
	}
	report.PrintStakes(cmd.OutOrStdout(), rep)
	return nil
}
