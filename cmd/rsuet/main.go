// Command rsuet runs one RSUET traffic assignment: it reads a TNTP network
// triplet, solves the restricted stochastic user equilibrium, and writes
// the CSV output set. With --watch it stays resident and re-solves
// whenever the input directory changes.
//
// Configuration is layered (defaults, then config.yaml, then RSUET_*
// environment variables); the flags below override the loaded values for
// the most common knobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/internal/report"
	"github.com/madspDTU/rsuet/internal/rum"
	"github.com/madspDTU/rsuet/internal/solver"
	"github.com/madspDTU/rsuet/internal/tntp"
	"github.com/madspDTU/rsuet/pkg/apperror"
	"github.com/madspDTU/rsuet/pkg/audit"
	"github.com/madspDTU/rsuet/pkg/config"
	"github.com/madspDTU/rsuet/pkg/logger"
	"github.com/madspDTU/rsuet/pkg/metrics"
)

func main() {
	var (
		dirFlag     = flag.String("dir", "", "TNTP network directory (overrides config)")
		nameFlag    = flag.String("name", "", "network display name (overrides config)")
		outFlag     = flag.String("out", "", "output directory (overrides config)")
		drawFlag    = flag.Bool("draw", false, "also export the network as Graphviz DOT")
		verboseFlag = flag.Bool("verbose", false, "print per-iteration convergence rows")
		watchFlag   = flag.Bool("watch", false, "re-run the solve whenever the network directory changes")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(5)
	}
	if *dirFlag != "" {
		cfg.Network.Dir = *dirFlag
	}
	if *nameFlag != "" {
		cfg.Network.Name = *nameFlag
	}
	if *outFlag != "" {
		cfg.Report.OutputDir = *outFlag
	}
	if *drawFlag {
		cfg.Report.DrawNetwork = true
	}
	if *verboseFlag {
		cfg.Report.Verbose = true
	}
	if cfg.Network.Dir == "" {
		fmt.Fprintln(os.Stderr, "no network directory: pass -dir or set RSUET_NETWORK_DIR")
		os.Exit(5)
	}

	logger.Setup(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, cfg.Metrics.Path)
	}

	auditLog, err := audit.New(audit.Config{
		Enabled:  cfg.Audit.Enabled,
		Backend:  cfg.Audit.Backend,
		FilePath: cfg.Audit.FilePath,
	})
	if err != nil {
		logger.Error("audit backend init failed", "error", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOnce(ctx, cfg, m, auditLog); err != nil {
		apperror.Exit(err)
	}

	if *watchFlag {
		if err := watchLoop(ctx, cfg, m, auditLog); err != nil && ctx.Err() == nil {
			apperror.Exit(err)
		}
	}
}

// runOnce performs one full solve: parse, solve, report, audit.
func runOnce(ctx context.Context, cfg *config.Config, m *metrics.Metrics, auditLog audit.Logger) error {
	runID := uuid.NewString()
	log := logger.Run(runID)
	start := time.Now()
	m.ActiveRuns.Set(1)
	defer m.ActiveRuns.Set(0)

	net, err := tntp.Load(cfg.Network.Dir, cfg.Network.Name, tntp.Options{
		Bidirectional: cfg.Network.IsNetworkBidirectional,
		DemandScale:   cfg.Network.DemandScale,
	})
	if err != nil {
		auditFailure(auditLog, cfg, runID, err, time.Since(start))
		return err
	}
	if errs := net.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Warn("network validation", "issue", e.Error())
		}
	}
	m.RecordNetwork(net.NodeCount(), net.EdgeCount(), net.ODCount())
	log.Info("network loaded",
		"name", net.Name, "nodes", net.NodeCount(), "edges", net.EdgeCount(), "ods", net.ODCount())

	r, thresholds, err := buildModel(cfg)
	if err != nil {
		return err
	}

	opts := solver.DefaultOptions()
	opts.Epsilon = cfg.Solver.Epsilon
	opts.OuterMax = cfg.Solver.OuterMax
	opts.InnerMax = cfg.Solver.InnerMax
	opts.Parallel = cfg.Solver.Parallel

	driver, err := solver.New(net, r, thresholds, opts)
	if err != nil {
		return err
	}
	driver.WithLogger(log).WithProgress(progressTee{
		console: report.NewConsoleReporter(cfg.Report.Verbose),
		metrics: m,
	})

	result, err := driver.Run(ctx)
	if err != nil {
		auditFailure(auditLog, cfg, runID, err, time.Since(start))
		m.RecordRun("failed", 0, time.Since(start))
		return err
	}
	if result.Warning != nil {
		log.Warn("solver did not converge", "error", result.Warning.Error())
		logThresholdRecommendation(log, net, cfg)
	}
	m.RecordRun(string(result.Outcome), result.OuterIterations, result.Duration)

	outDir, err := writeOutputs(cfg, net, result, runID)
	if err != nil {
		return err
	}
	log.Info("run finished",
		"outcome", result.Outcome, "outer_iterations", result.OuterIterations,
		"rel_gap_used", result.RelGapUsed, "output_dir", outDir, "duration", result.Duration)

	outcome := audit.OutcomeConverged
	if result.Outcome == solver.OutcomeNonConvergence {
		outcome = audit.OutcomeNonConvergence
	}
	record := audit.NewRecord().
		Network(net.Name, net.NodeCount(), net.EdgeCount(), net.ODCount()).
		RUM(cfg.RUM.Kind, cfg.RUM.Theta).
		Thresholds(cfg.Solver.MaximumCostRatio, cfg.Solver.Epsilon).
		Result(outcome, result.OuterIterations, result.RelGapUsed, result.Duration).
		Meta("output_dir", outDir).
		Build()
	record.ID = runID
	return auditLog.Log(record)
}

// buildModel maps the configuration onto the RUM and the driver's
// reference-cost functions: phi from rum.phi_*, omega from
// solver.maximum_cost_ratio (outer threshold), the RUM's own omega from
// rum.omega_* for TMNL truncation, and the tighter inner cut from
// solver.local_maximum_cost_ratio.
func buildModel(cfg *config.Config) (*rum.RUM, solver.Thresholds, error) {
	kind, err := rum.ParseKind(strings.ToLower(cfg.RUM.Kind))
	if err != nil {
		return nil, solver.Thresholds{}, err
	}

	var rumOmega rum.ReferenceCost
	if kind == rum.TMNL {
		rumOmega, err = buildReference(cfg.RUM.OmegaKind, cfg.RUM.OmegaK)
		if err != nil {
			return nil, solver.Thresholds{}, err
		}
	}

	r, err := rum.New(kind, cfg.RUM.Theta, cfg.RUM.BetaTime, cfg.RUM.BetaLength, cfg.RUM.PathSizeExponent, rumOmega)
	if err != nil {
		return nil, solver.Thresholds{}, err
	}

	phi, err := buildReference(cfg.RUM.PhiKind, cfg.RUM.PhiK)
	if err != nil {
		return nil, solver.Thresholds{}, err
	}
	omega, err := rum.NewMultiplicative(cfg.Solver.MaximumCostRatio)
	if err != nil {
		return nil, solver.Thresholds{}, err
	}
	local, err := rum.NewMultiplicative(cfg.Solver.LocalMaximumCostRatio)
	if err != nil {
		return nil, solver.Thresholds{}, err
	}

	return r, solver.Thresholds{Phi: phi, Omega: omega, Local: local}, nil
}

func buildReference(kind string, k float64) (rum.ReferenceCost, error) {
	switch strings.ToLower(kind) {
	case "minplusdelta":
		return rum.NewAdditiveDelta(k)
	default:
		return rum.NewMultiplicative(k)
	}
}

// writeOutputs creates the per-run output folder and fills it with the
// CSV set and, when requested, the DOT export.
func writeOutputs(cfg *config.Config, net *graph.Network, result *solver.Result, runID string) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	folder := fmt.Sprintf("%s-%s-%s", net.Name, stamp, runID[:8])
	set, err := report.NewCSVSet(filepath.Join(cfg.Report.OutputDir, folder))
	if err != nil {
		return "", err
	}

	if err := set.WriteFlow(net); err != nil {
		return "", err
	}
	if err := set.WriteParameters(runParameters(cfg, result)); err != nil {
		return "", err
	}
	if err := set.WriteChoiceSets(net, cfg.Report.MinimumFlowToBeConsideredUsed); err != nil {
		return "", err
	}
	if err := set.WriteChoiceSetSummary(net); err != nil {
		return "", err
	}
	if err := set.WriteConvergence(result.Record); err != nil {
		return "", err
	}

	if cfg.Report.DrawNetwork {
		file, err := os.Create(filepath.Join(set.Dir(), "network.dot"))
		if err != nil {
			return "", err
		}
		defer file.Close()
		if err := (report.DOTDrawer{}).Draw(net, file); err != nil {
			return "", err
		}
	}
	return set.Dir(), nil
}

func runParameters(cfg *config.Config, result *solver.Result) []report.Parameter {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []report.Parameter{
		{Key: "rum", Value: cfg.RUM.Kind},
		{Key: "theta", Value: f(cfg.RUM.Theta)},
		{Key: "betaTime", Value: f(cfg.RUM.BetaTime)},
		{Key: "betaLength", Value: f(cfg.RUM.BetaLength)},
		{Key: "pathSizeExponent", Value: f(cfg.RUM.PathSizeExponent)},
		{Key: "phiKind", Value: cfg.RUM.PhiKind},
		{Key: "phiK", Value: f(cfg.RUM.PhiK)},
		{Key: "omegaKind", Value: cfg.RUM.OmegaKind},
		{Key: "omegaK", Value: f(cfg.RUM.OmegaK)},
		{Key: "maximumCostRatio", Value: f(cfg.Solver.MaximumCostRatio)},
		{Key: "localMaximumCostRatio", Value: f(cfg.Solver.LocalMaximumCostRatio)},
		{Key: "epsilon", Value: f(cfg.Solver.Epsilon)},
		{Key: "outerMax", Value: strconv.Itoa(cfg.Solver.OuterMax)},
		{Key: "innerMax", Value: strconv.Itoa(cfg.Solver.InnerMax)},
		{Key: "demandScale", Value: f(cfg.Network.DemandScale)},
		{Key: "bidirectional", Value: strconv.FormatBool(cfg.Network.IsNetworkBidirectional)},
		{Key: "outcome", Value: string(result.Outcome)},
		{Key: "outerIterations", Value: strconv.Itoa(result.OuterIterations)},
		{Key: "relGapUsed", Value: strconv.FormatFloat(result.RelGapUsed, 'e', 6, 64)},
	}
}

// watchLoop re-runs the solve whenever a .tntp file in the network
// directory changes, debounced so an editor save burst triggers once.
func watchLoop(ctx context.Context, cfg *config.Config, m *metrics.Metrics, auditLog audit.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(cfg.Network.Dir); err != nil {
		return err
	}
	logger.Info("watching network directory", "dir", cfg.Network.Dir)

	var timer *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".tntp") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(config.WatchDebounce(), func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-trigger:
			logger.Info("network changed, re-solving")
			if err := runOnce(ctx, cfg, m, auditLog); err != nil {
				// A broken intermediate save shouldn't kill the watch;
				// report and wait for the next change.
				logger.Error("re-solve failed", "error", err)
			}
		}
	}
}

// logThresholdRecommendation looks at the widest cost spread any OD ended
// up with and, when the configured maximum cost ratio would prune that
// OD's costliest path, logs a suggested starting point for the next run.
func logThresholdRecommendation(log *slog.Logger, net *graph.Network, cfg *config.Config) {
	worstMin, worstSpread := 0.0, 0.0
	for _, od := range net.AllODs() {
		minC, maxC := math.Inf(1), 0.0
		for _, p := range od.RestrictedChoiceSet {
			if p.GenCost < minC {
				minC = p.GenCost
			}
			if p.GenCost > maxC {
				maxC = p.GenCost
			}
		}
		if minC > 0 && maxC/minC > worstSpread {
			worstMin, worstSpread = minC, maxC/minC
		}
	}
	if worstMin == 0 {
		return
	}
	rec := rum.Recommend(worstMin, worstMin*worstSpread, cfg.Solver.MaximumCostRatio)
	if rec.TooTight {
		log.Warn("cost ratio looks too tight for the observed spread",
			"observed_spread", worstSpread,
			"suggested_maximum_cost_ratio", rec.Kappa,
			"suggested_theta", rec.Theta)
	}
}

func serveMetrics(addr, path string) {
	mux := http.NewServeMux()
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics endpoint stopped", "error", err)
	}
}

// progressTee forwards solver progress to the console reporter and the
// Prometheus gauges at once.
type progressTee struct {
	console solver.Progress
	metrics *metrics.Metrics
}

func (p progressTee) OuterIteration(row solver.ConvergenceRow) {
	p.console.OuterIteration(row)
	p.metrics.RecordOuterIteration(row.Outer, row.Inner, row.RelGapUsed,
		float64(row.MaxChoiceSetSize), row.AvgChoiceSetSize)
	p.metrics.RecordColumnGeneration(row.Outer, row.PathsAdded, row.PathsPruned)
}

func (p progressTee) Done(result *solver.Result) {
	p.console.Done(result)
}

func auditFailure(auditLog audit.Logger, cfg *config.Config, runID string, err error, d time.Duration) {
	record := audit.NewRecord().
		Network(cfg.Network.Name, 0, 0, 0).
		RUM(cfg.RUM.Kind, cfg.RUM.Theta).
		Thresholds(cfg.Solver.MaximumCostRatio, cfg.Solver.Epsilon).
		Result(audit.OutcomeFailed, 0, 0, d).
		Error(string(apperror.Code(err)), err.Error()).
		Build()
	record.ID = runID
	if logErr := auditLog.Log(record); logErr != nil {
		logger.Warn("audit write failed", "error", logErr)
	}
}
