package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// ResponseSample is one frequency-response row of an exported run.
type ResponseSample struct {
	Omega    float64 `json:"omega"`
	MagDB    float64 `json:"mag_db"`
	PhaseDeg float64 `json:"phase_deg"`
}

// ExportData bundles a saved run into a single document.
type ExportData struct {
	RunMetadata
	Response []ResponseSample `json:"response,omitempty"`
}

// Export writes a saved run as one indented JSON document to path, or
// to stdout when path is empty. Runs saved without a frequency sweep
// export with no response block.
func (s *Store) Export(id, path string) error {
	meta, err := s.Load(id)
	if err != nil {
		return fmt.Errorf("storage: export %s: %w", id, err)
	}
	resp, err := s.loadResponse(id)
	if err != nil {
		return fmt.Errorf("storage: export %s: %w", id, err)
	}

	var w io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: meta, Response: resp})
}

func (s *Store) loadResponse(id string) ([]ResponseSample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "response.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	samples := make([]ResponseSample, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != 3 {
			return nil, fmt.Errorf("storage: malformed response row %v", row)
		}
		var sample ResponseSample
		if sample.Omega, err = strconv.ParseFloat(row[0], 64); err != nil {
			return nil, err
		}
		if sample.MagDB, err = strconv.ParseFloat(row[1], 64); err != nil {
			return nil, err
		}
		if sample.PhaseDeg, err = strconv.ParseFloat(row[2], 64); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
