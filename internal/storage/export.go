package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Steps   int            `json:"steps"`
	History []HistoryPoint `json:"history"`
}

// ExportJSON writes the metadata and merged history of a run as indented
// JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	history, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:     *meta,
		Steps:   len(history),
		History: history,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
