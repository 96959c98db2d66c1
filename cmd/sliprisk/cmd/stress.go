package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sliprisk/engine"
	"github.com/rustyeddy/sliprisk/internal/server"
	"github.com/rustyeddy/sliprisk/report"
	"github.com/rustyeddy/sliprisk/slipio"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Simulate portfolio P&L, VaR and ES",
	Long: `Replay a portfolio of staked slips over one correlated sample set. Legs
shared between slips move together, so the tail reflects overlap. Prints
mean and spread of P&L, VaR and ES at the configured alpha, and the
advisory throttle factor for spray stakes.

Examples:
  sliprisk stress --legs legs.yaml --slips staked.yaml
  sliprisk stress --legs legs.yaml --slips slips.yaml --size`,
	Args: cobra.NoArgs,
	RunE: runStress,
}

var (
	stressLegsPath  string
	stressSlipsPath string
	stressSize      bool
	stressTier      string
	stressTemplate  string
	stressJSON      bool
)

func init() {
	rootCmd.AddCommand(stressCmd)

	f := stressCmd.Flags()
	f.StringVarP(&stressLegsPath, "legs", "l", "", "legs file (required)")
	f.StringVarP(&stressSlipsPath, "slips", "s", "", "slips file with stakes (required)")
	f.BoolVar(&stressSize, "size", false, "size the slips first instead of using their stakes")
	f.StringVar(&stressTier, "tier", "", "risk tier used with --size")
	f.StringVar(&stressTemplate, "template", "", "unit template used with --size")
	f.BoolVar(&stressJSON, "json", false, "print JSON instead of a report")
	stressCmd.MarkFlagRequired("legs")
	stressCmd.MarkFlagRequired("slips")
}

func runStress(cmd *cobra.Command, args []string) error {
	legs, err := slipio.LoadLegs(stressLegsPath)
	if err != nil {
		return err
	}
	slips, err := slipio.LoadSlips(stressSlipsPath)
	if err != nil {
		return err
	}

	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if stressSize {
		staked, stressed, err := s.eng.Plan(cmd.Context(), legs, slips, engine.StakeOptions{Tier: stressTier, Template: stressTemplate})
		if err != nil {
			return fmt.Errorf("stress: %w", err)
		}
		if stressJSON {
			return slipio.WriteJSON(out, server.PlanResponse{Stakes: staked, Stress: stressed})
		}
		report.PrintStakes(out, staked)
		report.PrintStress(out, stressed)
		return nil
	}

	rep, err := s.eng.Stress(cmd.Context(), legs, slips)
	if err != nil {
		return fmt.Errorf("stress: %w", err)
	}
	if stressJSON {
		return slipio.WriteJSON(out, rep)
	}
	report.PrintStress(out, rep)
	return nil
}
