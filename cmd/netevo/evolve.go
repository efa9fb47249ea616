package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/netevo/internal/config"
	"github.com/san-kum/netevo/internal/evolve"
	"github.com/san-kum/netevo/internal/experiment"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/storage"
)

// progress prints the current performance on one terminal line.
type progress struct {
	start time.Time
	last  time.Time
}

func (p *progress) Observe(sys *network.System, perf float64, iteration int) {
	now := time.Now()
	if iteration > 0 && now.Sub(p.last) < 100*time.Millisecond {
		return
	}
	p.last = now
	fmt.Fprintf(os.Stderr, "\riteration %6d  performance %-12.6g nodes %4d arcs %5d  %s",
		iteration, perf, sys.CountNodes(), sys.CountArcs(), now.Sub(p.start).Round(time.Second))
}

func runEvolve(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	e, err := experiment.Build(cfg, nil)
	if err != nil {
		return err
	}
	initial := e.System.Copy()

	w, closeLog, err := changeLogFile()
	if err != nil {
		return err
	}
	defer closeLog()
	var log network.ChangeLog
	if w != nil {
		log = network.NewStreamChangeLog(w)
	}

	ctx, cancel := interruptible()
	defer cancel()

	var db *storage.HistoryDB
	if cfg.Storage.DB != "" && !noSave {
		if db, err = storage.OpenHistoryDB(cfg.Storage.DB); err != nil {
			return err
		}
		defer db.Close()
	}

	hist := storage.NewHistoryRecorder(every)
	prog := &progress{start: time.Now()}
	obs := evolve.Observers{hist, prog}

	fmt.Println(header("evolve " + name))
	fmt.Println(panel(
		field("network", fmt.Sprintf("%s, %d nodes, %d arcs", cfg.Network.Kind, e.System.CountNodes(), e.System.CountArcs())),
		field("performance", cfg.Evolution.Performance),
		field("mutation", cfg.Evolution.Mutation),
		field("max iterations", cfg.Evolution.MaxIterations),
	))

	res, err := e.Evolve(ctx, obs, log)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	fmt.Println(panel(
		field("initial", res.InitialPerformance),
		field("final", res.Performance),
		field("best", res.BestPerformance),
		field("iterations", res.Iterations),
		field("accepted", fmt.Sprintf("%d of %d trials", res.Accepted, res.Trials)),
		field("levels", res.Levels),
		field("disconnected", res.Disconnected),
		field("temperature", res.Temperature),
		improvement(res.InitialPerformance, res.BestPerformance),
	))

	if noSave {
		return nil
	}
	samples := hist.Drain()
	st := storage.New(cfg.Storage.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.SaveEvolution(&storage.RunMetadata{
		Preset:             name,
		Seed:               cfg.Seed,
		NodeDynamic:        cfg.Network.NodeDynamic,
		Method:             cfg.Simulation.Method,
		Performance:        cfg.Evolution.Performance,
		Mutation:           cfg.Evolution.Mutation,
		InitialPerformance: res.InitialPerformance,
		FinalPerformance:   res.Performance,
		BestPerformance:    res.BestPerformance,
		Iterations:         res.Iterations,
		Accepted:           res.Accepted,
	}, initial, res.System, samples)
	if err != nil {
		return err
	}
	fmt.Println(field("run id", runID))

	if db != nil {
		dbRun, err := recordHistory(context.WithoutCancel(ctx), db, cfg, name, res, samples)
		if err != nil {
			return err
		}
		fmt.Println(field("history id", dbRun))
	}
	return nil
}

func recordHistory(ctx context.Context, db *storage.HistoryDB, cfg *config.Config, name string, res *evolve.Result, samples []storage.Sample) (string, error) {
	id, err := db.CreateRun(ctx, storage.RunRecord{
		Preset:             name,
		Performance:        cfg.Evolution.Performance,
		Mutation:           cfg.Evolution.Mutation,
		Seed:               cfg.Seed,
		InitialPerformance: res.InitialPerformance,
	})
	if err != nil {
		return "", err
	}
	if err := db.AppendSamples(ctx, id, samples); err != nil {
		return "", err
	}
	if err := db.FinishRun(ctx, id, res.Performance, res.BestPerformance, res.Iterations); err != nil {
		return "", err
	}
	return id, nil
}
