package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/lscsim/internal/analysis"
	"github.com/san-kum/lscsim/internal/config"
	"github.com/san-kum/lscsim/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	spreadFile   = "spread.csv"
	finalFile    = "final.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Solver       string             `json:"solver"`
	Integrator   string             `json:"integrator"`
	Coordinate   string             `json:"coordinate"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Particles    int                `json:"particles"`
	Length       float64            `json:"length"`
	Snapshots    int                `json:"snapshots"`
	Steps        int                `json:"steps"`
	Evaluations  int                `json:"evaluations"`
	Elapsed      float64            `json:"elapsed_seconds"`
	Growth       float64            `json:"growth"`
	PeakBunching float64            `json:"peak_bunching"`
	Metrics      map[string]float64 `json:"metrics"`
	Config       *config.Config     `json:"config"`
}

// Save writes a finished run into its own directory. An empty name
// generates one from the solver and the clock.
func (s *Store) Save(name string, res *experiment.Result) (string, error) {
	now := time.Now()
	runID := name
	if runID == "" {
		runID = fmt.Sprintf("%s_%d", res.Solver, now.UnixNano())
	}
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	traj := res.Trajectory
	meta := RunMetadata{
		ID:           runID,
		Solver:       res.Solver,
		Integrator:   res.Engine,
		Coordinate:   traj.Coord.String(),
		Timestamp:    now,
		Seed:         res.Seed,
		Particles:    res.Params.N,
		Length:       res.Report.Length,
		Snapshots:    traj.Len(),
		Steps:        traj.Steps,
		Evaluations:  traj.Evaluations,
		Elapsed:      res.Elapsed.Seconds(),
		Growth:       res.Report.Growth,
		PeakBunching: res.Report.PeakBunching,
		Metrics:      jsonSafe(traj.Metrics),
		Config:       res.Config,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	bunching, err := analysis.BunchingHistory(traj, 1)
	if err != nil {
		return "", err
	}
	spreadRows := make([][]string, traj.Len())
	for i := range spreadRows {
		spreadRows[i] = []string{
			formatFloat(traj.Z[i]),
			formatFloat(res.Spread[i]),
			formatFloat(bunching[i][0]),
		}
	}
	if err := writeCSV(filepath.Join(runDir, spreadFile), []string{"z", "spread", "b1"}, spreadRows); err != nil {
		return "", err
	}

	final := traj.Wrapped(traj.Len() - 1)
	finalRows := make([][]string, final.Len())
	for i := range finalRows {
		finalRows[i] = []string{strconv.Itoa(i), formatFloat(final.Pos[i]), formatFloat(final.Eta[i])}
	}
	if err := writeCSV(filepath.Join(runDir, finalFile), []string{"index", traj.Coord.String(), "eta"}, finalRows); err != nil {
		return "", err
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// jsonSafe drops values encoding/json cannot represent.
func jsonSafe(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
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

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// SpreadHistory holds the columns of spread.csv.
type SpreadHistory struct {
	Z        []float64
	Spread   []float64
	Bunching []float64
}

func (s *Store) LoadSpread(runID string) (*SpreadHistory, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), spreadFile))
	if err != nil {
		return nil, err
	}

	h := &SpreadHistory{}
	for i, record := range records {
		if len(record) < 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 columns, got %d", spreadFile, i+2, len(record))
		}
		vals, err := parseFloats(record[:3])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", spreadFile, i+2, err)
		}
		h.Z = append(h.Z, vals[0])
		h.Spread = append(h.Spread, vals[1])
		h.Bunching = append(h.Bunching, vals[2])
	}
	return h, nil
}

// LoadFinal returns the wrapped final snapshot as (pos, eta) columns.
func (s *Store) LoadFinal(runID string) (pos, eta []float64, err error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), finalFile))
	if err != nil {
		return nil, nil, err
	}

	for i, record := range records {
		if len(record) < 3 {
			return nil, nil, fmt.Errorf("%s line %d: expected 3 columns, got %d", finalFile, i+2, len(record))
		}
		vals, err := parseFloats(record[1:3])
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", finalFile, i+2, err)
		}
		pos = append(pos, vals[0])
		eta = append(eta, vals[1])
	}
	return pos, eta, nil
}

// readCSV returns the records after the header line.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
