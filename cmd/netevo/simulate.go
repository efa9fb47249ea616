package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/san-kum/netevo/internal/experiment"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/storage"
)

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	e, err := experiment.Build(cfg, nil)
	if err != nil {
		return err
	}

	w, closeLog, err := changeLogFile()
	if err != nil {
		return err
	}
	defer closeLog()
	var log network.ChangeLog
	var stream *network.StreamChangeLog
	if w != nil {
		stream = network.NewStreamChangeLog(w)
		log = stream
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Println(header("simulate " + name))
	start := time.Now()
	res, err := e.Simulate(ctx, nil, log)
	if err != nil {
		return err
	}
	if stream != nil && stream.Err() != nil {
		return fmt.Errorf("write change log: %w", stream.Err())
	}
	elapsed := time.Since(start)

	fmt.Println(panel(
		field("network", fmt.Sprintf("%s, %d nodes, %d arcs", cfg.Network.Kind, e.System.CountNodes(), e.System.CountArcs())),
		field("dynamics", cfg.Network.NodeDynamic),
		field("method", cfg.Simulation.Method),
		field("steps", len(res.Times)),
		field("elapsed", elapsed.Round(time.Millisecond)),
	))

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("METRIC", "VALUE")
	names := make([]string, 0, len(res.Metrics))
	for m := range res.Metrics {
		names = append(names, m)
	}
	sort.Strings(names)
	for _, m := range names {
		table.AddRow(m, fmt.Sprintf("%.6f", res.Metrics[m]))
	}
	fmt.Println(table)
	fmt.Println()

	if e.System.CountNodes() > 0 && e.System.NodeStates() > 0 {
		idx := e.System.NodeStateID(e.System.NodeAt(0))
		data := make([]float64, len(res.States))
		for i, x := range res.States {
			data[i] = x[idx]
		}
		if len(data) > 0 {
			fmt.Println(asciigraph.Plot(data,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("node 0, state 0"),
			))
			fmt.Println()
		}
	}

	if exportPath != "" {
		data := &storage.ExportData{
			Preset:  name,
			Method:  cfg.Simulation.Method,
			Nodes:   e.System.CountNodes(),
			Arcs:    e.System.CountArcs(),
			Horizon: cfg.Simulation.Horizon,
			Times:   res.Times,
			States:  res.States,
			Metrics: res.Metrics,
		}
		if err := storage.ExportJSONFile(exportPath, data); err != nil {
			return err
		}
	}

	if noSave {
		return nil
	}
	st := storage.New(cfg.Storage.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.SaveSimulation(&storage.RunMetadata{
		Preset:      name,
		Seed:        cfg.Seed,
		NodeDynamic: cfg.Network.NodeDynamic,
		Method:      cfg.Simulation.Method,
		Horizon:     cfg.Simulation.Horizon,
		Metrics:     res.Metrics,
	}, e.System, res.States, res.Times)
	if err != nil {
		return err
	}
	fmt.Println(field("run id", runID))
	return nil
}
