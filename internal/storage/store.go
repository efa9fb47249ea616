package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/gml"
	"github.com/san-kum/netevo/internal/network"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
	statesFile   = "states.csv"
	InitialGraph = "initial.gml"
	FinalGraph   = "final.gml"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

const (
	KindSimulate = "simulate"
	KindEvolve   = "evolve"
)

type RunMetadata struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
	Preset      string    `json:"preset,omitempty"`
	Seed        int64     `json:"seed"`
	Nodes       int       `json:"nodes"`
	Arcs        int       `json:"arcs"`
	NodeDynamic string    `json:"node_dynamic,omitempty"`
	Method      string    `json:"method,omitempty"`
	Horizon     float64   `json:"horizon,omitempty"`
	Performance string    `json:"performance,omitempty"`
	Mutation    string    `json:"mutation,omitempty"`

	InitialPerformance float64            `json:"initial_performance,omitempty"`
	FinalPerformance   float64            `json:"final_performance,omitempty"`
	BestPerformance    float64            `json:"best_performance,omitempty"`
	Iterations         int                `json:"iterations,omitempty"`
	Accepted           int                `json:"accepted,omitempty"`
	Metrics            map[string]float64 `json:"metrics,omitempty"`
}

// Sample is one point of an evolution history.
type Sample struct {
	Iteration   int
	Performance float64
	Nodes       int
	Arcs        int
}

// create assigns an ID and timestamp and makes the run directory.
func (s *Store) create(meta *RunMetadata) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	return runDir, nil
}

func writeMetadata(runDir string, meta *RunMetadata) error {
	f, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// SaveSimulation stores a simulated trajectory together with the network it
// was run on.
func (s *Store) SaveSimulation(meta *RunMetadata, sys *network.System, states []dynamo.State, times []float64) (string, error) {
	meta.Kind = KindSimulate
	meta.Nodes, meta.Arcs = sys.CountNodes(), sys.CountArcs()
	runDir, err := s.create(meta)
	if err != nil {
		return "", err
	}
	if err := writeMetadata(runDir, meta); err != nil {
		return "", err
	}
	if err := gml.SaveFile(filepath.Join(runDir, InitialGraph), sys); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), states, times); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// SaveEvolution stores the performance history of an evolution run and the
// networks it started and finished with.
func (s *Store) SaveEvolution(meta *RunMetadata, initial, final *network.System, history []Sample) (string, error) {
	meta.Kind = KindEvolve
	meta.Nodes, meta.Arcs = final.CountNodes(), final.CountArcs()
	runDir, err := s.create(meta)
	if err != nil {
		return "", err
	}
	if err := writeMetadata(runDir, meta); err != nil {
		return "", err
	}
	if err := gml.SaveFile(filepath.Join(runDir, InitialGraph), initial); err != nil {
		return "", err
	}
	if err := gml.SaveFile(filepath.Join(runDir, FinalGraph), final); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, historyFile), history); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeStates(path string, states []dynamo.State, times []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(states) > 0 {
		header := []string{"time"}
		for i := range states[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for i, x := range states {
		row := []string{strconv.FormatFloat(times[i], 'g', -1, 64)}
		for _, val := range x {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeHistory(path string, history []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"iteration", "performance", "nodes", "arcs"}); err != nil {
		return err
	}
	for _, smp := range history {
		row := []string{
			strconv.Itoa(smp.Iteration),
			strconv.FormatFloat(smp.Performance, 'g', -1, 64),
			strconv.Itoa(smp.Nodes),
			strconv.Itoa(smp.Arcs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSystem reads one of the stored networks (InitialGraph or FinalGraph)
// into sys, whose registry must know the dynamics used.
func (s *Store) LoadSystem(runID, name string, sys *network.System) error {
	return gml.LoadFile(filepath.Join(s.baseDir, runID, name), sys)
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s *Store) LoadHistory(runID string) ([]Sample, error) {
	records, err := readRecords(filepath.Join(s.baseDir, runID, historyFile))
	if err != nil {
		return nil, err
	}
	history := make([]Sample, 0, max(len(records)-1, 0))
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 4 {
			return nil, fmt.Errorf("history line %d: %d fields", i+1, len(rec))
		}
		var smp Sample
		if smp.Iteration, err = strconv.Atoi(rec[0]); err != nil {
			return nil, fmt.Errorf("history line %d: %w", i+1, err)
		}
		if smp.Performance, err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, fmt.Errorf("history line %d: %w", i+1, err)
		}
		if smp.Nodes, err = strconv.Atoi(rec[2]); err != nil {
			return nil, fmt.Errorf("history line %d: %w", i+1, err)
		}
		if smp.Arcs, err = strconv.Atoi(rec[3]); err != nil {
			return nil, fmt.Errorf("history line %d: %w", i+1, err)
		}
		history = append(history, smp)
	}
	return history, nil
}

func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	records, err := readRecords(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make(dynamo.State, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}
	return states, times, nil
}
