// Package storage persists analysis runs under a data directory: one
// subdirectory per run with JSON metadata and the CSV frequency
// response.
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

	"gonum.org/v1/gonum/mat"

	"github.com/avench/looplab/internal/statespace"
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

type RunMetadata struct {
	ID        string      `json:"id"`
	Loop      string      `json:"loop"`
	Analysis  string      `json:"analysis"`
	Point     string      `json:"point"`
	Timestamp time.Time   `json:"timestamp"`
	States    []string    `json:"states"`
	A         [][]float64 `json:"a"`
	B         [][]float64 `json:"b"`
	C         [][]float64 `json:"c"`
	D         [][]float64 `json:"d"`
	Poles     []string    `json:"poles"`
}

func (s *Store) Save(loop, analysis, point string, ss *statespace.StateSpace, resp []statespace.Point) (string, error) {
	runID := fmt.Sprintf("%s_%s_%d", loop, analysis, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Loop:      loop,
		Analysis:  analysis,
		Point:     point,
		Timestamp: time.Now(),
		States:    ss.States,
		A:         matrixRows(ss.A),
		B:         matrixRows(ss.B),
		C:         matrixRows(ss.C),
		D:         matrixRows(ss.D),
	}
	if poles, err := ss.Poles(); err == nil {
		for _, p := range poles {
			meta.Poles = append(meta.Poles, fmt.Sprintf("%g%+gi", real(p), imag(p)))
		}
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if len(resp) == 0 {
		return runID, nil
	}

	csvFile, err := os.Create(filepath.Join(runDir, "response.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"omega", "mag_db", "phase_deg"}); err != nil {
		return "", err
	}
	for _, p := range resp {
		row := []string{
			strconv.FormatFloat(p.Omega, 'g', -1, 64),
			strconv.FormatFloat(p.MagDB, 'g', -1, 64),
			strconv.FormatFloat(p.PhaseDeg, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(id string) (RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return RunMetadata{}, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return RunMetadata{}, err
	}
	return meta, nil
}

func matrixRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
