package diagnostics

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

var recordMagic = [4]byte{'D', 'S', 'M', 'T'}

const recordVersion uint32 = 1

// ErrBadRecord indicates bytes that are not a timing record.
var ErrBadRecord = errors.New("diagnostics: malformed timing record")

// TimingRecord is the persisted end-of-run timing artifact. Durations are in
// seconds; Timestamp is microseconds since the Unix epoch.
type TimingRecord struct {
	NumRanks        int32
	Timestamp       int64
	TotalSimulation float64
	InternalForce   float64
	Contact         float64
	OutputWrite     float64
	VectorReduction float64
}

type recordWire struct {
	Magic   [4]byte
	Version uint32
	TimingRecord
}

// NewTimingRecord snapshots the accumulators of timers.
func NewTimingRecord(numRanks int, at time.Time, timers *Timers) TimingRecord {
	return TimingRecord{
		NumRanks:        int32(numRanks),
		Timestamp:       at.UnixMicro(),
		TotalSimulation: timers.Seconds(TotalLoop),
		InternalForce:   timers.Seconds(InternalForce),
		Contact:         timers.Seconds(Contact),
		OutputWrite:     timers.Seconds(OutputWrite),
		VectorReduction: timers.Seconds(VectorReduction),
	}
}

// MarshalBinary encodes the record little-endian behind a magic and version.
func (r TimingRecord) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	w := recordWire{Magic: recordMagic, Version: recordVersion, TimingRecord: r}
	if err := binary.Write(&buf, binary.LittleEndian, &w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *TimingRecord) UnmarshalBinary(data []byte) error {
	var w recordWire
	if len(data) != binary.Size(&w) {
		return fmt.Errorf("%w: %d bytes", ErrBadRecord, len(data))
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	if w.Magic != recordMagic {
		return fmt.Errorf("%w: bad magic %q", ErrBadRecord, w.Magic[:])
	}
	if w.Version != recordVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadRecord, w.Version)
	}
	*r = w.TimingRecord
	return nil
}

func (r TimingRecord) Time() time.Time {
	return time.UnixMicro(r.Timestamp)
}

func WriteTimingRecord(path string, r TimingRecord) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func ReadTimingRecord(path string) (TimingRecord, error) {
	var r TimingRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	err = r.UnmarshalBinary(data)
	return r, err
}
