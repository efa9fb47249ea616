package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/netevo/internal/config"
)

var (
	dataDir    string
	dbPath     string
	logLevel   string
	configFile string
	seed       int64
	horizon    float64
	iterations int
	noSave     bool
	exportPath string
	changesOut string
	every      int
	// generate
	nodes       int
	neighbours  int
	probability float64
	selfLoops   bool
	undirected  bool
	nodeDynamic string
	arcDynamic  string
	output      string
	genSeed     int64
	// eigen
	adjacency bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "netevo",
		Short:             "dynamical network simulation and evolution",
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run data directory")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite history database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	simulateCmd := &cobra.Command{
		Use:   "simulate [preset]",
		Short: "simulate a network",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	simulateCmd.Flags().Float64Var(&horizon, "horizon", config.DefaultHorizon, "simulated time")
	simulateCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	simulateCmd.Flags().StringVar(&exportPath, "export", "", "write the trajectory as json (- for stdout)")
	simulateCmd.Flags().StringVar(&changesOut, "changes", "", "write the change log to a file")

	evolveCmd := &cobra.Command{
		Use:   "evolve [preset]",
		Short: "evolve a network by simulated annealing",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEvolve,
	}
	evolveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	evolveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	evolveCmd.Flags().IntVar(&iterations, "iterations", 0, "maximum number of trials")
	evolveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	evolveCmd.Flags().IntVar(&every, "every", 1, "keep every n-th iteration in the history")
	evolveCmd.Flags().StringVar(&changesOut, "changes", "", "write the change log to a file")

	generateCmd := &cobra.Command{
		Use:       "generate ring|random",
		Short:     "generate a network and write it as gml",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"ring", "random"},
		RunE:      runGenerate,
	}
	generateCmd.Flags().IntVar(&nodes, "nodes", config.DefaultNodes, "number of nodes")
	generateCmd.Flags().IntVar(&neighbours, "neighbours", config.DefaultNeighbours, "ring neighbours on each side")
	generateCmd.Flags().Float64Var(&probability, "p", 0.1, "arc probability (random)")
	generateCmd.Flags().BoolVar(&selfLoops, "self-loops", false, "allow self loops (random)")
	generateCmd.Flags().BoolVar(&undirected, "undirected", true, "add arcs in both directions")
	generateCmd.Flags().StringVar(&nodeDynamic, "node-dynamic", "KuramotoMap", "node dynamic")
	generateCmd.Flags().StringVar(&arcDynamic, "arc-dynamic", "", "arc dynamic")
	generateCmd.Flags().Int64Var(&genSeed, "seed", time.Now().UnixNano(), "random seed")
	generateCmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")

	eigenCmd := &cobra.Command{
		Use:   "eigen [file.gml]",
		Short: "print the spectrum of a network",
		Args:  cobra.ExactArgs(1),
		RunE:  runEigen,
	}
	eigenCmd.Flags().BoolVar(&adjacency, "adjacency", false, "use the adjacency matrix instead of the laplacian")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the performance history of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	historyCmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "show runs or samples from the history database",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showHistory,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "netevo.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search node parameters for the lowest simulation metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	sweepCmd.Flags().Float64Var(&horizon, "horizon", config.DefaultHorizon, "simulated time")
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=min:max:step or name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "sync_error", "metric to minimise")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of simulations and evolutions",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "evolve over consecutive seeds and summarise the results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	ensembleCmd.Flags().Int64Var(&seed, "seed", 0, "first seed")
	ensembleCmd.Flags().IntVar(&iterations, "iterations", 0, "maximum number of trials per run")
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 10, "number of runs")

	rootCmd.AddCommand(simulateCmd, evolveCmd, generateCmd, eigenCmd, runsCmd, plotCmd, historyCmd,
		presetsCmd, initConfigCmd, sweepCmd, scenarioCmd, ensembleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig resolves the configuration from --config, a preset argument or
// the defaults, then applies the flags given on the command line.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		name string
		err  error
	)
	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		name = configFile
	case len(args) > 0:
		cfg = config.Lookup(args[0])
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.All())
		}
		name = args[0]
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("horizon") {
		cfg.Simulation.Horizon = horizon
	}
	if flags.Changed("iterations") {
		cfg.Evolution.MaxIterations = iterations
	}
	if flags.Changed("data") || cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("db") {
		cfg.Storage.DB = dbPath
	}
	return cfg, name, nil
}

// changeLogFile opens the --changes target. The returned close func is
// never nil.
func changeLogFile() (io.Writer, func() error, error) {
	if changesOut == "" {
		return nil, func() error { return nil }, nil
	}
	if changesOut == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(changesOut)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
