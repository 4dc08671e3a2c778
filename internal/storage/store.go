// Package storage persists offline runs: a directory per run with JSON
// metadata and a CSV of every physics step, plus an optional SQLite tick
// recorder.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/sim"
)

const (
	metadataFile = "metadata.json"
	ticksFile    = "ticks.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var csvHeader = []string{
	"time",
	"pitch", "yaw", "roll", "throttle",
	"cmd_hinge_left", "cmd_servo_left", "cmd_hinge_right", "cmd_servo_right",
	"hinge_left", "servo_left", "hinge_right", "servo_right",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunInfo describes how a run was produced.
type RunInfo struct {
	Name       string          `json:"name"`
	Integrator string          `json:"integrator"`
	Config     sim.Config      `json:"config"`
	Plant      sim.PlantConfig `json:"plant"`
	Geometry   GeometryInfo    `json:"geometry"`
}

// GeometryInfo is the scalar part of mount.Geometry worth keeping with a run.
type GeometryInfo struct {
	MaxTiltDeg           float64 `json:"max_tilt_deg"`
	MaxRollDeg           float64 `json:"max_roll_deg"`
	NormalizeHingeNormal bool    `json:"normalize_hinge_normal"`
}

func GeometryInfoOf(g mount.Geometry) GeometryInfo {
	return GeometryInfo{
		MaxTiltDeg:           g.MaxTiltDeg,
		MaxRollDeg:           g.MaxRollDeg,
		NormalizeHingeNormal: g.NormalizeHingeNormal,
	}
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RunInfo
	Steps   int                `json:"steps"`
	Ticks   int                `json:"ticks"`
	Skipped int                `json:"skipped"`
	Metrics map[string]float64 `json:"metrics"`
}

// TickRow is one physics step of a stored run.
type TickRow struct {
	Time      float64      `json:"t"`
	Input     mount.Input  `json:"input"`
	Commanded mount.Angles `json:"commanded"`
	Joints    mount.Angles `json:"joints"`
}

func RowsFromResult(result *sim.Result) []TickRow {
	rows := make([]TickRow, len(result.Times))
	for i := range rows {
		rows[i] = TickRow{
			Time:      result.Times[i],
			Input:     result.Inputs[i],
			Commanded: result.Commanded[i],
			Joints:    result.Joints[i],
		}
	}
	return rows
}

// Save writes a run and returns its id.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	name := info.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID, runDir, err := s.reserve(name, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: now,
		RunInfo:   info,
		Steps:     result.StepsTaken,
		Ticks:     result.Ticks,
		Skipped:   result.Skipped,
		Metrics:   result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeRows(filepath.Join(runDir, ticksFile), RowsFromResult(result)); err != nil {
		return "", err
	}
	return runID, nil
}

// reserve creates a fresh run directory, suffixing the id when two runs
// land in the same second.
func (s *Store) reserve(name string, now time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, now.Unix())
	id := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeRows(path string, rows []TickRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := make([]string, 0, len(csvHeader))
		record = append(record,
			formatFloat(r.Time),
			formatFloat(r.Input.Pitch),
			formatFloat(r.Input.Yaw),
			formatFloat(r.Input.Roll),
			formatFloat(r.Input.Throttle),
		)
		for _, v := range r.Commanded.Array() {
			record = append(record, formatFloat(v))
		}
		for _, v := range r.Joints.Array() {
			record = append(record, formatFloat(v))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTicks(runID string) ([]TickRow, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, ticksFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []TickRow{}, nil
	}

	rows := make([]TickRow, 0, len(records)-1)
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}
		rows = append(rows, TickRow{
			Time:      vals[0],
			Input:     mount.Input{Pitch: vals[1], Yaw: vals[2], Roll: vals[3], Throttle: vals[4]},
			Commanded: mount.Angles{HingeLeft: vals[5], ServoLeft: vals[6], HingeRight: vals[7], ServoRight: vals[8]},
			Joints:    mount.Angles{HingeLeft: vals[9], ServoLeft: vals[10], HingeRight: vals[11], ServoRight: vals[12]},
		})
	}
	return rows, nil
}
