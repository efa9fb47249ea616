package main

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/san-kum/netevo/internal/automation"
	"github.com/san-kum/netevo/internal/experiment"
	"github.com/san-kum/netevo/internal/optim"
	"github.com/san-kum/netevo/internal/storage"
)

var (
	sweepParams  []string
	sweepMetric  string
	ensembleRuns int
)

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("sweep needs at least one --param name=range")
	}
	var names []string
	var ranges [][]float64
	for _, p := range sweepParams {
		key, values, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q, want name=range", p)
		}
		vals, err := optim.ParseRange(values)
		if err != nil {
			return err
		}
		names = append(names, key)
		ranges = append(ranges, vals)
	}

	ctx, cancel := interruptible()
	defer cancel()

	reg := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := *cfg
		c.Network.NodeParams = maps.Clone(cfg.Network.NodeParams)
		if c.Network.NodeParams == nil {
			c.Network.NodeParams = make(map[string]float64, len(params))
		}
		maps.Copy(c.Network.NodeParams, params)
		return experiment.Build(&c, reg)
	}

	fmt.Println(header("sweep " + name))
	best, val, points, err := optim.NewGridSearch(names, ranges).Search(ctx, build, sweepMetric)
	if err != nil {
		return err
	}

	table := uitable.New()
	row := []any{}
	for _, n := range names {
		row = append(row, strings.ToUpper(n))
	}
	table.AddRow(append(row, strings.ToUpper(sweepMetric))...)
	for _, p := range points {
		row = row[:0]
		for _, n := range names {
			row = append(row, fmt.Sprintf("%.4g", p.Params[n]))
		}
		if p.Err != nil {
			row = append(row, "error: "+p.Err.Error())
		} else {
			row = append(row, fmt.Sprintf("%.6g", p.Value))
		}
		table.AddRow(row...)
	}
	fmt.Println(table)
	fmt.Println()

	if best == nil {
		return fmt.Errorf("no grid point could be simulated")
	}
	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := []string{field(sweepMetric, val)}
	for _, k := range keys {
		lines = append(lines, field(k, best[k]))
	}
	fmt.Println(panel(lines...))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Println(header("scenario " + sc.Name))
	if sc.Description != "" {
		fmt.Println(labelStyle.Render(sc.Description))
	}
	results, err := automation.RunScenario(ctx, sc, nil, st)

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("STEP", "RUN", "RUN ID", "RESULT")
	for _, r := range results {
		var summary string
		if r.Run == "evolve" {
			summary = fmt.Sprintf("%s %.6g -> %.6g in %d iterations", r.Performance, r.Initial, r.Best, r.Iterations)
		} else {
			summary = fmt.Sprintf("order %.4f, sync error %.4f", r.Metrics["order"], r.Metrics["sync_error"])
		}
		table.AddRow(r.Step, r.Run, r.RunID, summary)
	}
	fmt.Println(table)
	return err
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if ensembleRuns < 1 {
		return fmt.Errorf("ensemble needs at least one run")
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Println(header(fmt.Sprintf("ensemble %s, %d runs", name, ensembleRuns)))
	results, err := automation.RunEnsemble(ctx, cfg, ensembleRuns, nil)
	if err != nil {
		return err
	}

	table := uitable.New()
	table.AddRow("SEED", "INITIAL", "BEST", "ITERATIONS", "ACCEPTED")
	for _, r := range results {
		table.AddRow(r.Seed, fmt.Sprintf("%.6g", r.Initial), fmt.Sprintf("%.6g", r.Best), r.Iterations, r.Accepted)
	}
	fmt.Println(table)
	fmt.Println()

	s := automation.Stats(results)
	fmt.Println(panel(
		field("improved", fmt.Sprintf("%d of %d", s.Improved, s.Runs)),
		field("mean best", s.Mean),
		field("std", s.Std),
		field("min", s.Min),
		field("max", s.Max),
	))
	return nil
}
