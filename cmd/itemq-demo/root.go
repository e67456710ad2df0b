package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/azargarov/itemqueue"
)

type demoFlags struct {
	configPath  string
	concurrency int
	items       int
	initial     int
	stopOnError bool
	watchTime   time.Duration
	watchPeriod time.Duration
	pauseFor    time.Duration
	minDelay    time.Duration
	maxDelay    time.Duration
	failEvery   int
	seed        int64
	workers     int
	pinCPUs     bool
}

func newRootCommand() *cobra.Command {
	flags := demoFlags{}

	root := &cobra.Command{
		Use:           "itemq-demo",
		Short:         "Run a simulated workload through an item queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := resolveOptions(cmd, flags)
			if err != nil {
				return err
			}
			cfg := demoConfig{
				Options:   opts,
				Items:     flags.items,
				Initial:   flags.initial,
				PauseFor:  flags.pauseFor,
				MinDelay:  flags.minDelay,
				MaxDelay:  flags.maxDelay,
				FailEvery: flags.failEvery,
				Seed:      flags.seed,
				Workers:   flags.workers,
				PinCPUs:   flags.pinCPUs,
			}
			out := cmd.OutOrStdout()
			sum, runErr := runDemo(cmd.Context(), cfg, out)
			fmt.Fprintln(out, renderSummary(sum, stdoutIsTerminal()))
			return runErr
		},
	}

	f := root.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Queue options file (.yaml or .toml)")
	f.IntVar(&flags.concurrency, "concurrency", 3, "Maximum items in flight")
	f.IntVar(&flags.items, "items", 10, "Total items to process")
	f.IntVar(&flags.initial, "initial", 4, "Items queued ahead of the first pause point")
	f.BoolVar(&flags.stopOnError, "stop-on-error", false, "Halt the queue on the first failed item")
	f.DurationVar(&flags.watchTime, "watch-time", time.Second, "Report items running longer than this")
	f.DurationVar(&flags.watchPeriod, "watch-period", 100*time.Millisecond, "Watchdog interval")
	f.DurationVar(&flags.pauseFor, "pause-for", 500*time.Millisecond, "How long to stay paused at the pause point")
	f.DurationVar(&flags.minDelay, "min-delay", 100*time.Millisecond, "Shortest simulated item")
	f.DurationVar(&flags.maxDelay, "max-delay", 2*time.Second, "Longest simulated item")
	f.IntVar(&flags.failEvery, "fail-every", 0, "Fail every Nth item (0 disables)")
	f.Int64Var(&flags.seed, "seed", 0, "Jitter seed (0 uses the clock)")
	f.IntVar(&flags.workers, "workers", 0, "Run items on a fixed worker pool of this size (0 starts a goroutine per item)")
	f.BoolVar(&flags.pinCPUs, "pin-cpus", false, "Pin worker pool threads to CPUs (linux only)")

	return root
}

// resolveOptions reads the options file when given; flags set on the command
// line take precedence over it.
func resolveOptions(cmd *cobra.Command, flags demoFlags) (itemqueue.Options, error) {
	opts := itemqueue.Options{
		Concurrency: flags.concurrency,
		StopOnError: flags.stopOnError,
		WatchTime:   flags.watchTime,
		WatchPeriod: flags.watchPeriod,
	}

	path := strings.TrimSpace(flags.configPath)
	if path != "" {
		loaded, err := itemqueue.LoadOptions(path)
		if err != nil {
			return itemqueue.Options{}, err
		}
		changed := cmd.Flags().Changed
		if !changed("concurrency") {
			opts.Concurrency = loaded.Concurrency
		}
		if !changed("stop-on-error") {
			opts.StopOnError = loaded.StopOnError
		}
		if !changed("watch-time") {
			opts.WatchTime = loaded.WatchTime
		}
		if !changed("watch-period") {
			opts.WatchPeriod = loaded.WatchPeriod
		}
		opts.Timeout = loaded.Timeout
	}

	if err := opts.Validate(); err != nil {
		return itemqueue.Options{}, err
	}
	opts.FillDefaults()
	return opts, nil
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
