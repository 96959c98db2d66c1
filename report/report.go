// Package report renders engine results as plain text.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/sliprisk/copula"
	"github.com/rustyeddy/sliprisk/engine"
	"github.com/rustyeddy/sliprisk/journal"
	"github.com/rustyeddy/sliprisk/sim"
)

const rule = "--------------------------------------------------"

func header(w io.Writer, title string) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " %s\n", title)
	fmt.Fprintln(w, "==================================================")
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

func PrintJoint(w io.Writer, legs int, r copula.JointResult) {
	header(w, "Joint Probability")
	fmt.Fprintf(w, "Legs:          %d\n", legs)
	fmt.Fprintf(w, "Probability:   %.4f\n", r.Prob)
	if r.Samples == 0 {
		fmt.Fprintln(w, "Samples:       none (single leg)")
	} else {
		fmt.Fprintf(w, "Samples:       %d\n", r.Samples)
	}
	fmt.Fprintln(w)
}

func PrintStakes(w io.Writer, r *engine.StakeReport) {
	header(w, "Stake Plan")
	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Accepted:      %d\n", r.Accepted)
	fmt.Fprintf(w, "Dropped:       %d\n", r.Dropped)
	fmt.Fprintf(w, "Total Stake:   %.2f\n", r.TotalStake)

	if len(r.Results) > 0 {
		section(w, "Stakes")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SLIP\tJOINT P\tPAYOUT\tEDGE\tKELLY\tSTAKE\tCAPPED BY\tTIER")
		for _, s := range r.Results {
			capped := s.CappedBy
			if capped == "" {
				capped = "-"
			}
			fmt.Fprintf(tw, "%s\t%.4f\t%.2f\t%+.2f%%\t%.4f\t%.2f\t%s\t%s\n",
				s.SlipID, s.JointProb, s.Decimal, s.Edge*100, s.KellyUsed, s.Stake, capped, s.Tier)
		}
		tw.Flush()
	}

	printDrops(w, r.Drops)
	fmt.Fprintln(w)
}

func PrintStress(w io.Writer, r *engine.StressReport) {
	header(w, "Portfolio Stress")
	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Accepted:      %d\n", r.Accepted)
	fmt.Fprintf(w, "Dropped:       %d\n", r.Dropped)

	if r.Risk != nil {
		printSummary(w, r.Risk.RiskSummary)

		if len(r.Risk.PerSlip) > 0 {
			section(w, "Per Slip")
			ids := make([]string, 0, len(r.Risk.PerSlip))
			for id := range r.Risk.PerSlip {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SLIP\tWINS\tLOSSES\tWIN RATE")
			for _, id := range ids {
				t := r.Risk.PerSlip[id]
				fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", id, t.Wins, t.Losses, t.WinRate()*100)
			}
			tw.Flush()
		}
	}

	printDrops(w, r.Drops)
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, s sim.RiskSummary) {
	section(w, "Risk")
	fmt.Fprintf(w, "Samples:       %d\n", s.Samples)
	fmt.Fprintf(w, "Slips / Legs:  %d / %d\n", s.Slips, s.Legs)
	fmt.Fprintf(w, "Total Stake:   %.2f\n", s.TotalStake)
	fmt.Fprintf(w, "Mean P/L:      %.2f\n", s.MeanPnL)
	fmt.Fprintf(w, "Std P/L:       %.2f\n", s.StdPnL)
	fmt.Fprintf(w, "VaR (%.0f%%):     %.2f\n", s.Alpha*100, s.VaR)
	fmt.Fprintf(w, "ES (%.0f%%):      %.2f\n", s.Alpha*100, s.ES)
	fmt.Fprintf(w, "Breach Ratio:  %.4f\n", s.Breach)
	fmt.Fprintf(w, "Throttle:      %.2f\n", s.Throttle)
}

func printDrops(w io.Writer, drops []engine.Drop) {
	if len(drops) == 0 {
		return
	}
	section(w, "Dropped Slips")
	for _, d := range drops {
		if len(d.Violations) > 0 {
			fmt.Fprintf(w, "- %s: %s (%s)\n", d.SlipID, d.Reason, d.Violations[0].Msg)
			continue
		}
		fmt.Fprintf(w, "- %s: %s\n", d.SlipID, d.Reason)
	}
}

// PrintRun renders a journaled run with its stakes and drops.
func PrintRun(w io.Writer, run journal.RunRecord, stakes []journal.StakeRecord, drops []journal.DropRecord) {
	header(w, "Run "+run.RunID)
	fmt.Fprintf(w, "Operation:     %s\n", run.Op)
	fmt.Fprintf(w, "Created:       %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Seed:          %d\n", run.Seed)
	fmt.Fprintf(w, "Samples:       %d\n", run.Samples)
	fmt.Fprintf(w, "Accepted:      %d\n", run.Accepted)
	fmt.Fprintf(w, "Dropped:       %d\n", run.Dropped)
	fmt.Fprintf(w, "Total Stake:   %.2f\n", run.TotalStake)

	if run.Risk != nil {
		printSummary(w, *run.Risk)
	}

	if len(stakes) > 0 {
		section(w, "Stakes")
		for _, s := range stakes {
			fmt.Fprintf(w, "- %s: %.2f (p=%.4f, %s)\n", s.SlipID, s.Stake, s.JointProb, orDash(s.CappedBy))
		}
	}
	if len(drops) > 0 {
		section(w, "Dropped Slips")
		for _, d := range drops {
			fmt.Fprintf(w, "- %s: %s\n", d.SlipID, d.Reason)
		}
	}
	fmt.Fprintln(w)
}

// PrintRuns lists journaled runs one per line.
func PrintRuns(w io.Writer, runs []journal.RunRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tOP\tCREATED\tACCEPTED\tDROPPED\tTOTAL STAKE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f\n",
			r.RunID, r.Op, r.CreatedAt.Format(time.RFC3339), r.Accepted, r.Dropped, r.TotalStake)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
