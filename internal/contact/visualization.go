package contact

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

var visualizationHeader = []string{"time", "node", "face", "gap", "fx", "fy", "fz"}

// visualization writes one CSV row per engaged node and output step.
type visualization struct {
	file *os.File
	w    *csv.Writer
}

func newVisualization(path string) (*visualization, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("contact visualization: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(visualizationHeader); err != nil {
		f.Close()
		return nil, err
	}
	return &visualization{file: f, w: w}, nil
}

func (v *visualization) write(t float64, engaged []engagement, penalty float64) error {
	ts := strconv.FormatFloat(t, 'g', -1, 64)
	for _, e := range engaged {
		f := scale(-penalty*e.gap, e.normal)
		row := []string{
			ts,
			strconv.Itoa(e.node),
			strconv.Itoa(e.face),
			strconv.FormatFloat(e.gap, 'g', -1, 64),
			strconv.FormatFloat(f[0], 'g', -1, 64),
			strconv.FormatFloat(f[1], 'g', -1, 64),
			strconv.FormatFloat(f[2], 'g', -1, 64),
		}
		if err := v.w.Write(row); err != nil {
			return err
		}
	}
	v.w.Flush()
	return v.w.Error()
}

func (v *visualization) close() error {
	v.w.Flush()
	if err := v.w.Error(); err != nil {
		v.file.Close()
		return err
	}
	return v.file.Close()
}
