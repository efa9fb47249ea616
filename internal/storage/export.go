package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/netevo/internal/dynamo"
)

// ExportData is the JSON form of a simulated trajectory.
type ExportData struct {
	Preset  string             `json:"preset,omitempty"`
	Method  string             `json:"method"`
	Nodes   int                `json:"nodes"`
	Arcs    int                `json:"arcs"`
	Horizon float64            `json:"horizon"`
	Steps   int                `json:"steps"`
	Times   []float64          `json:"times"`
	States  []dynamo.State     `json:"states"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

func ExportJSON(w io.Writer, data *ExportData) error {
	data.Steps = len(data.Times)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile writes data to path, or to stdout when path is "-".
func ExportJSONFile(path string, data *ExportData) error {
	if path == "-" {
		return ExportJSON(os.Stdout, data)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, data)
}
