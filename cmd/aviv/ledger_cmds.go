package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/ledger"
)

func refreshCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch month starts from the feed and update the ledger cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}

			refresh := a.store.Refresh
			if full {
				refresh = a.store.Rebuild
			}

			snapshot, err := refresh(context.Background())
			if err != nil {
				return fmt.Errorf("failed to refresh ledger: %w", err)
			}

			logger.Info("Ledger refreshed",
				zap.Bool("full", full),
				zap.Int("months", snapshot.Ledger.Len()))

			latest, ok := snapshot.Ledger.Latest()
			if !ok {
				return fmt.Errorf("ledger is empty after refresh")
			}
			outPrintf("✅ Ledger refreshed: %d months, latest %s starting %s (%s)\n",
				snapshot.Ledger.Len(),
				latest.Key,
				latest.Epoch.Format("2006-01-02"),
				latest.Confidence)
			if snapshot.AvivBarley != nil {
				outPrintf("   Aviv barley reported: %t\n", *snapshot.AvivBarley)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Rebuild from the built-in data instead of merging onto the cache")

	return cmd
}

func monthsCmd() *cobra.Command {
	var from int

	cmd := &cobra.Command{
		Use:   "months",
		Short: "List recorded month starts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}

			start := ledger.MonthKey{Year: ledger.MinYear, Month: ledger.MinMonth}
			if from != 0 {
				if start, err = ledger.ParseMonthKey(from); err != nil {
					return err
				}
			}

			snapshot := a.store.Snapshot()
			outPrintln("  Month   | Start      | Length | Confidence | Source")
			outPrintln("----------+------------+--------+------------+---------")
			for _, rec := range snapshot.Ledger.Records() {
				if rec.Key.Less(start) {
					continue
				}
				length := "?"
				if n, err := snapshot.Ledger.Length(rec.Key); err == nil {
					length = fmt.Sprintf("%d", n)
				}
				outPrintf("  %s | %s | %6s | %-10s | %s\n",
					rec.Key,
					rec.Epoch.Format("2006-01-02"),
					length,
					rec.Confidence,
					rec.Source)
			}

			if anomalies := snapshot.Ledger.Anomalies(); len(anomalies) > 0 {
				outPrintln("\n⚠️  Anomalies")
				for _, an := range anomalies {
					outPrintf("  • %s\n", an.Error())
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "First month to list, as YYYYMM (e.g. 601701)")

	return cmd
}
