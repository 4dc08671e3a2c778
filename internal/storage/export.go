package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run   RunMetadata `json:"run"`
	Steps int         `json:"steps"`
	Ticks []TickRow   `json:"ticks"`
}

func ExportJSON(w io.Writer, meta RunMetadata, rows []TickRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Steps: len(rows), Ticks: rows})
}

// ExportRun writes a stored run to path, or to stdout when path is "-".
func (s *Store) ExportRun(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadTicks(runID)
	if err != nil {
		return err
	}

	if path == "-" {
		return ExportJSON(os.Stdout, *meta, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(f, *meta, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
