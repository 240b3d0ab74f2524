package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/lscsim/internal/analysis"
	"github.com/san-kum/lscsim/internal/experiment"
)

type ExportData struct {
	Solver     string             `json:"solver"`
	Integrator string             `json:"integrator"`
	Coordinate string             `json:"coordinate"`
	Period     float64            `json:"period"`
	Seed       int64              `json:"seed"`
	Particles  int                `json:"particles"`
	Steps      int                `json:"steps"`
	Z          []float64          `json:"z"`
	Spread     []float64          `json:"spread"`
	Bunching   [][]float64        `json:"bunching"`
	Metrics    map[string]float64 `json:"metrics"`
	// Snapshots are wrapped [pos..., eta...] blocks, present only on request.
	Snapshots [][]float64 `json:"snapshots,omitempty"`
}

// NewExportData collects the serializable view of a run with |b_n| up to
// harmonics.
func NewExportData(res *experiment.Result, harmonics int, withSnapshots bool) (*ExportData, error) {
	traj := res.Trajectory
	bunching, err := analysis.BunchingHistory(traj, harmonics)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		Solver:     res.Solver,
		Integrator: res.Engine,
		Coordinate: traj.Coord.String(),
		Period:     traj.Period,
		Seed:       res.Seed,
		Particles:  res.Params.N,
		Steps:      traj.Steps,
		Z:          traj.Z,
		Spread:     res.Spread,
		Bunching:   bunching,
		Metrics:    jsonSafe(traj.Metrics),
	}

	if withSnapshots {
		data.Snapshots = make([][]float64, traj.Len())
		for i := range data.Snapshots {
			data.Snapshots[i] = traj.Wrapped(i).State()
		}
	}
	return data, nil
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSONTo(file, data)
}

func ExportJSONTo(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
