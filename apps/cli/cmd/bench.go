package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zestclient/zest/packages/bench"
	"github.com/zestclient/zest/packages/http"
	"github.com/zestclient/zest/packages/reqfile"
)

var (
	benchTotalFlag       int
	benchConcurrencyFlag int
	benchRateFlag        float64
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "Measure latency over repeated independent executions",
	Long: `Execute the request in a file many times and report latency
percentiles. Every execution is independent; nothing is shared or
sequenced between them.

Examples:
  zest bench request.yaml -n 200
  zest bench request.yaml -n 500 -c 20 --rate 100`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

func init() {
	benchCmd.Flags().IntVarP(&benchTotalFlag, "requests", "n", 100, "total number of executions")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", 10, "executions in flight at once")
	benchCmd.Flags().Float64Var(&benchRateFlag, "rate", 0, "cap executions per second (0 = unlimited)")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	req, err := reqfile.Load(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := bench.Run(ctx, http.NewEngine(), req, bench.Options{
		Total:       benchTotalFlag,
		Concurrency: benchConcurrencyFlag,
		Rate:        benchRateFlag,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "requests:  %d (%d ok, %d failed)\n", result.Total, result.Succeeded, result.Failed)
	fmt.Fprintf(out, "elapsed:   %.2fs (%.1f req/s)\n", result.Elapsed.Seconds(), result.RPS())
	fmt.Fprintf(out, "latency:   mean %.1fms  p50 %.1fms  p95 %.1fms  p99 %.1fms  max %.1fms\n",
		result.MeanMs(),
		result.PercentileMs(50),
		result.PercentileMs(95),
		result.PercentileMs(99),
		result.MaxMs(),
	)

	if result.Failed > 0 {
		return fmt.Errorf("%d executions failed", result.Failed)
	}
	return nil
}
