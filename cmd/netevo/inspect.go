package main

import (
	"context"
	"fmt"
	"math/cmplx"
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/san-kum/netevo/internal/config"
	"github.com/san-kum/netevo/internal/dynamics"
	"github.com/san-kum/netevo/internal/evolve"
	"github.com/san-kum/netevo/internal/gml"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/storage"
)

func newSystem(seed int64) (*network.System, error) {
	sys := network.New(seed)
	if err := dynamics.Register(sys); err != nil {
		return nil, err
	}
	return sys, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	sys, err := newSystem(genSeed)
	if err != nil {
		return err
	}
	switch args[0] {
	case "ring":
		err = sys.RingGraph(nodes, neighbours, undirected, nodeDynamic, arcDynamic)
	case "random":
		err = sys.RandomGraph(probability, nodes, selfLoops, undirected, nodeDynamic, arcDynamic)
	}
	if err != nil {
		return err
	}
	if output == "-" {
		return gml.Save(cmd.OutOrStdout(), sys)
	}
	if err := gml.SaveFile(output, sys); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d nodes, %d arcs\n", output, sys.CountNodes(), sys.CountArcs())
	return nil
}

func runEigen(cmd *cobra.Command, args []string) error {
	sys, err := newSystem(0)
	if err != nil {
		return err
	}
	if err := gml.LoadFile(args[0], sys); err != nil {
		return err
	}
	kind := network.Laplacian
	if adjacency {
		kind = network.Adjacency
	}
	vals, err := sys.Eigenvalues(kind)
	if err != nil {
		return err
	}
	sort.Slice(vals, func(i, j int) bool { return -real(vals[i]) < -real(vals[j]) })

	fmt.Println(header(fmt.Sprintf("%s spectrum of %s", kind, args[0])))
	table := uitable.New()
	table.AddRow("#", "REAL", "IMAG", "ABS")
	for i, v := range vals {
		table.AddRow(i, fmt.Sprintf("%.6f", real(v)), fmt.Sprintf("%.6f", imag(v)), fmt.Sprintf("%.6f", cmplx.Abs(v)))
	}
	fmt.Println(table)
	if kind == network.Laplacian {
		fmt.Println()
		fmt.Println(field("eigenratio", evolve.NewEigenratioPerformance().Performance(sys, nil)))
		fmt.Println(field("weak components", sys.WeaklyConnectedComponents()))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 36
	table.AddRow("ID", "KIND", "TIME", "PRESET", "NODES", "ARCS", "PERFORMANCE", "BEST")
	for _, run := range runs {
		best := "-"
		if run.Kind == storage.KindEvolve {
			best = fmt.Sprintf("%.6g", run.BestPerformance)
		}
		table.AddRow(
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Preset,
			run.Nodes,
			run.Arcs,
			run.Performance,
			best,
		)
	}
	fmt.Println(table)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(header("run " + meta.ID))
	if meta.Kind == storage.KindSimulate {
		states, _, err := st.LoadStates(meta.ID)
		if err != nil {
			return err
		}
		if len(states) == 0 || len(states[0]) == 0 {
			return fmt.Errorf("no data to plot")
		}
		data := make([]float64, len(states))
		for i, x := range states {
			data[i] = x[0]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("state 0 vs time"),
		))
		return nil
	}

	history, err := st.LoadHistory(meta.ID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no data to plot")
	}
	perf := make([]float64, len(history))
	for i, s := range history {
		perf[i] = s.Performance
	}
	fmt.Println(asciigraph.Plot(perf,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s over %d samples", meta.Performance, len(perf))),
	))
	fmt.Println()
	fmt.Println(field("best", meta.BestPerformance))
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	if dbPath == "" {
		return fmt.Errorf("history needs --db")
	}
	db, err := storage.OpenHistoryDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	table := uitable.New()
	table.MaxColWidth = 36
	if len(args) == 0 {
		runs, err := db.Runs(ctx)
		if err != nil {
			return err
		}
		table.AddRow("ID", "STARTED", "PRESET", "PERFORMANCE", "MUTATION", "INITIAL", "BEST", "ITERATIONS")
		for _, r := range runs {
			table.AddRow(r.ID, r.Started.Format("2006-01-02 15:04:05"), r.Preset, r.Performance, r.Mutation,
				fmt.Sprintf("%.6g", r.InitialPerformance), fmt.Sprintf("%.6g", r.BestPerformance), r.Iterations)
		}
		fmt.Println(table)
		return nil
	}

	samples, err := db.Samples(ctx, args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples for run %s", args[0])
	}
	table.AddRow("ITERATION", "PERFORMANCE", "NODES", "ARCS")
	for _, s := range samples {
		table.AddRow(s.Iteration, fmt.Sprintf("%.6g", s.Performance), s.Nodes, s.Arcs)
	}
	fmt.Println(table)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	refs := config.All()
	if len(args) > 0 {
		refs = nil
		for _, name := range config.ListPresets(args[0]) {
			refs = append(refs, args[0]+"/"+name)
		}
		if len(refs) == 0 {
			fmt.Printf("no presets in group: %s\n", args[0])
			return nil
		}
	}

	table := uitable.New()
	table.AddRow("PRESET", "NETWORK", "NODES", "DYNAMIC", "METHOD", "PERFORMANCE", "MUTATION")
	for _, ref := range refs {
		c := config.Lookup(ref)
		table.AddRow(ref, c.Network.Kind, c.Network.Nodes, c.Network.NodeDynamic,
			c.Simulation.Method, c.Evolution.Performance, c.Evolution.Mutation)
	}
	fmt.Println(table)
	return nil
}
