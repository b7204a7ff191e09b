//go:build linux

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ja7ad/tickstat/pkg/monitor"
	"github.com/ja7ad/tickstat/pkg/report"
	"github.com/ja7ad/tickstat/pkg/system/mountinfo"
	"github.com/ja7ad/tickstat/pkg/system/proc"
	"github.com/ja7ad/tickstat/pkg/system/util"
	"github.com/ja7ad/tickstat/pkg/usage"
)

type opts struct {
	// sampling
	samples  int
	interval time.Duration
	warmup   int
	procfs   string
	retries  int
	backoff  time.Duration

	// display
	view   string
	top    int
	pretty bool
	ema    float64

	// outputs
	csvPath     string
	jsonPath    string
	parquetPath string
	htmlPath    string
	htmlPoints  int

	// logging
	logLevel string
	logJSON  bool
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "tickstat [PID|PID..PID]...",
		Short: "Linux CPU tick sampler",
		Long: `The tickstat tool samples the kernel tick counters in /proc/stat and
/proc/<pid>/stat on a fixed interval and reports system, per-core and
per-process CPU utilization as percentages of the elapsed ticks.

Positional PIDs or PID ranges restrict the process table to those processes;
without them every process is shown.

Examples:
  tickstat -s 10 -i 500ms
  tickstat --view procs --top 5 $(pidof postgres)
  tickstat --csv out/cpu.csv --json out/run.jsonl --html out/run.html 1000..1200`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, args)
		},
	}

	root.Flags().IntVarP(&o.samples, "samples", "s", 0, "number of samples to collect (0 = run until Ctrl-C)")
	root.Flags().DurationVarP(&o.interval, "interval", "i", time.Second, "sampling interval (e.g. 1s, 500ms)")
	root.Flags().IntVar(&o.warmup, "warmup", 1, "number of initial samples to skip from display and averages")
	root.Flags().StringVar(&o.procfs, "procfs", proc.DefaultRoot, "procfs mount point to read counters from")
	root.Flags().IntVar(&o.retries, "retries", 2, "extra refresh attempts before a tick is reported as failed")
	root.Flags().DurationVar(&o.backoff, "backoff", 100*time.Millisecond, "delay before the first retry, doubled per retry")

	root.Flags().StringVar(&o.view, "view", string(report.ViewAll), "what to show: all, system or procs")
	root.Flags().IntVar(&o.top, "top", 10, "number of busiest processes to print per tick (0 = all)")
	root.Flags().BoolVar(&o.pretty, "pretty", true, "format output as a table instead of CSV-like lines")
	root.Flags().Float64Var(&o.ema, "ema", 0.5, "EMA alpha for busy smoothing [0..1], 0 disables")

	root.Flags().StringVar(&o.csvPath, "csv", "", "write per-tick CPU rows to CSV file")
	root.Flags().StringVar(&o.jsonPath, "json", "", "write per-tick samples to JSONL file")
	root.Flags().StringVar(&o.parquetPath, "parquet", "", "write per-tick aggregate rows to Parquet file")
	root.Flags().StringVar(&o.htmlPath, "html", "", "write a chart report to HTML file")
	root.Flags().IntVar(&o.htmlPoints, "html-points", report.DefaultHTMLPoints, "newest ticks kept for the HTML report (0 = all, unbounded memory)")

	root.Flags().StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.Flags().BoolVar(&o.logJSON, "log-json", false, "log as JSON instead of text")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func (o opts) validate() error {
	switch {
	case o.interval <= 0:
		return fmt.Errorf("interval must be > 0")
	case o.samples < 0:
		return fmt.Errorf("samples must be >= 0")
	case o.warmup < 0:
		return fmt.Errorf("warmup must be >= 0")
	case o.top < 0:
		return fmt.Errorf("top must be >= 0")
	case o.retries < 0:
		return fmt.Errorf("retries must be >= 0")
	case o.backoff <= 0:
		return fmt.Errorf("backoff must be > 0")
	case o.htmlPoints < 0:
		return fmt.Errorf("html-points must be >= 0")
	case o.ema < 0 || o.ema > 1:
		return fmt.Errorf("ema must be in [0,1]")
	}
	return nil
}

func newLogger(w io.Writer, level string, asJSON bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}

func run(ctx context.Context, o opts, args []string) error {
	if err := o.validate(); err != nil {
		return err
	}
	view, err := report.ParseView(o.view)
	if err != nil {
		return err
	}
	pids, err := util.ParsePIDs(args)
	if err != nil {
		return err
	}

	log, err := newLogger(os.Stderr, o.logLevel, o.logJSON)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	host, kernel, cpus, mem := util.SystemSummary()
	fmt.Printf(_console, host, kernel, cpus, mem, time.Now().Format("2006-01-02 15:04:05"))

	if kind, detail, err := mountinfo.Detect(o.procfs); err != nil {
		log.Warn("cannot inspect procfs root", "root", o.procfs, "err", err)
	} else if kind != mountinfo.Procfs {
		log.Warn("procfs root is not a proc mount", "root", o.procfs, "kind", kind, "detail", detail)
	} else {
		log.Debug("procfs root", "root", o.procfs, "detail", detail)
	}

	fs := proc.NewFS(o.procfs)
	for _, pid := range pids {
		if !fs.Exists(proc.PID(pid)) {
			log.Warn("pid not running", "pid", pid)
		}
	}

	eng, err := usage.New(fs, usage.WithLogger(log))
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	log.Debug("tracking", "root", fs.Root(), "procs", len(eng.Tracked()))
	poller := monitor.NewPoller(eng, &monitor.Config{
		Interval: o.interval,
		Retries:  o.retries,
		Backoff:  o.backoff,
	}, log)

	session := uuid.New()
	log.Debug("session", "id", session)

	filter := report.NewFilter(view, pids)
	files, err := openFiles(o, session, filter)
	if err != nil {
		return err
	}
	acc := usage.NewAccumulator(o.ema)
	screen := report.Filtered(report.NewTable(os.Stdout, o.pretty, o.top, acc.Busy), filter)

	// Ctrl-C handling
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	screenCh, _ := poller.Subscribe(16)
	var wg sync.WaitGroup
	if len(files) > 0 {
		fileCh, _ := poller.Subscribe(64)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consume(fileCh, o.warmup, func(r monitor.Result) {
				if err := files.Write(r); err != nil {
					log.Warn("write output", "seq", r.Seq, "err", err)
				}
			})
		}()
	}
	go poller.Run(ctx)

	var (
		failed  int
		reached bool
	)
	consume(screenCh, o.warmup, func(r monitor.Result) {
		if r.Err != nil {
			failed++
		} else {
			acc.Apply(r.Sample.System)
		}
		if err := screen.Write(r); err != nil {
			log.Warn("write stdout", "seq", r.Seq, "err", err)
		}
		if o.samples > 0 && acc.Count() >= o.samples && !reached {
			reached = true
			cancel()
		}
	})
	if !reached {
		log.Info("interrupted")
	}

	wg.Wait()
	if err := files.Close(); err != nil {
		log.Error("close outputs", "err", err)
	}

	printSummary(os.Stdout, o, acc, failed, poller.Hub().Dropped())
	return nil
}

// consume drains ch until it is closed, skipping the first warmup successful
// results.
func consume(ch <-chan monitor.Result, warmup int, fn func(monitor.Result)) {
	seen := 0
	for r := range ch {
		if r.Err == nil && seen < warmup {
			seen++
			continue
		}
		fn(r)
	}
}

// openFiles opens the requested file outputs. Only the JSONL output carries
// processes, so it is the only one the filter applies to.
func openFiles(o opts, session uuid.UUID, filter report.Filter) (report.Multi, error) {
	var sinks report.Multi
	fail := func(err error) (report.Multi, error) {
		_ = sinks.Close()
		return nil, err
	}
	if o.csvPath != "" {
		s, err := report.NewCSV(o.csvPath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if o.jsonPath != "" {
		s, err := report.NewJSONL(o.jsonPath, session)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, report.Filtered(s, filter))
	}
	if o.parquetPath != "" {
		s, err := report.NewParquet(o.parquetPath, session)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if o.htmlPath != "" {
		sinks = append(sinks, report.NewHTML(o.htmlPath, session, o.htmlPoints))
	}
	return sinks, nil
}

func printSummary(w io.Writer, o opts, acc *usage.Accumulator, failed int, dropped uint64) {
	avg := acc.Averages()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "cpu avg (over %d samples of ~%s):\n", acc.Count(), o.interval)
	fmt.Fprintf(w, "- user:     %6.2f %%\n", avg.User)
	fmt.Fprintf(w, "- system:   %6.2f %%\n", avg.System)
	fmt.Fprintf(w, "- iowait:   %6.2f %%\n", avg.IOWait)
	fmt.Fprintf(w, "- idle:     %6.2f %%\n", avg.Idle)
	fmt.Fprintf(w, "- busy:     %6.2f %%\n", avg.Busy())
	if failed > 0 || dropped > 0 {
		total := float64(acc.Count() + failed)
		fmt.Fprintf(w, "- failed ticks: %d (%.1f%%), dropped results: %d\n",
			failed, util.SafeDiv(float64(failed)*100, total), dropped)
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}

const _console = `tickstat - Linux CPU Tick Sampler

Host:    %s
Kernel:  %s
CPU:     %s
Memory:  %s
Started: %s

`
