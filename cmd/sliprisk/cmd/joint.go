package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/report"
	"github.com/rustyeddy/sliprisk/slipio"
)

var jointCmd = &cobra.Command{
	Use:   "joint",
	Short: "Estimate the joint probability that every leg wins",
	Long: `Estimate the probability that all selected legs win together, using a
Gaussian copula over the configured correlations.

Examples:
  sliprisk joint --legs legs.yaml --corr corr.json
  sliprisk joint --legs legs.yaml --ids A,B,C --json`,
	Args: cobra.NoArgs,
	RunE: runJoint,
}

var (
	jointLegsPath string
	jointIDs      []string
	jointJSON     bool
)

func init() {
	rootCmd.AddCommand(jointCmd)

	jointCmd.Flags().StringVarP(&jointLegsPath, "legs", "l", "", "legs file (required)")
	jointCmd.Flags().StringSliceVar(&jointIDs, "ids", nil, "only use these leg ids")
	jointCmd.Flags().BoolVar(&jointJSON, "json", false, "print JSON instead of a report")
	jointCmd.MarkFlagRequired("legs")
}

func runJoint(cmd *cobra.Command, args []string) error {
	legs, err := slipio.LoadLegs(jointLegsPath)
	if err != nil {
		return err
	}
	if len(jointIDs) > 0 {
		if legs, err = selectLegs(legs, jointIDs); err != nil {
			return err
		}
	}

	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.eng.JointProbability(cmd.Context(), legs)
	if err != nil {
		return fmt.Errorf("joint probability: %w", err)
	}

	if jointJSON {
		return slipio.WriteJSON(cmd.OutOrStdout(), res)
	}
	report.PrintJoint(cmd.OutOrStdout(), len(legs), res)
	return nil
}

func selectLegs(legs []odds.Leg, ids []string) ([]odds.Leg, error) {
	index := odds.Index(legs)
	dups := make(map[string]bool)
	for _, id := range odds.Duplicates(legs) {
		dups[id] = true
	}
	out := make([]odds.Leg, 0, len(ids))
	var missing, repeated []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		leg, ok := index[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case dups[id]:
			repeated = append(repeated, id)
		default:
			out = append(out, leg)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown legs: %s", strings.Join(missing, ", "))
	}
	if len(repeated) > 0 {
		return nil, fmt.Errorf("legs with more than one record: %s", strings.Join(repeated, ", "))
	}
	return out, nil
}
