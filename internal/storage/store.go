package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

const metadataFile = "metadata.json"

// Output formats.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
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

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Timestamp       time.Time          `json:"timestamp"`
	Format          string             `json:"format"`
	NumRanks        int                `json:"num_ranks"`
	NumNodes        int                `json:"num_nodes"`
	NumElements     int                `json:"num_elements"`
	FinalTime       float64            `json:"final_time"`
	NumLoadSteps    int                `json:"num_load_steps"`
	OutputFrequency int                `json:"output_frequency"`
	CriticalDt      float64            `json:"critical_time_step,omitempty"`
	Contact         bool               `json:"contact"`
	Completed       bool               `json:"completed"`
	TimingFile      string             `json:"timing_file,omitempty"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

// Create makes a fresh run directory <name>_<id> and writes its metadata.
// ID and Timestamp of meta are filled in.
func (s *Store) Create(meta RunMetadata) (*RunMetadata, error) {
	if meta.Name == "" {
		return nil, fmt.Errorf("storage: run needs a name")
	}
	meta.ID = fmt.Sprintf("%s_%s", meta.Name, uuid.NewString()[:8])
	meta.Timestamp = time.Now()

	if err := os.MkdirAll(s.RunDir(meta.ID), 0755); err != nil {
		return nil, err
	}
	if err := s.SaveMetadata(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// SaveMetadata rewrites the metadata of an existing run.
func (s *Store) SaveMetadata(meta *RunMetadata) error {
	metaFile, err := os.Create(filepath.Join(s.RunDir(meta.ID), metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
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
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
