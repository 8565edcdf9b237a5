package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/san-kum/dynsm/internal/field"
	"github.com/san-kum/dynsm/internal/mesh"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	time REAL NOT NULL,
	node INTEGER NOT NULL,
	ux REAL, uy REAL, uz REAL,
	vx REAL, vy REAL, vz REAL,
	ax REAL, ay REAL, az REAL,
	PRIMARY KEY (time, node)
);
CREATE TABLE IF NOT EXISTS history (
	time REAL PRIMARY KEY,
	kinetic_energy REAL NOT NULL,
	max_displacement REAL NOT NULL
);`

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// SQLiteSink stores snapshots and history in one database per participant.
type SQLiteSink struct {
	mesh   *mesh.Mesh
	fields *field.Set
	db     *sql.DB
}

func NewSQLiteSink(dir string, m *mesh.Mesh, fields *field.Set) (*SQLiteSink, error) {
	db, err := openDB(filepath.Join(dir, IOFileName("output", "db", "", m.Rank, m.Size)))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSink{mesh: m, fields: fields, db: db}, nil
}

// WriteOutput stores one snapshot in a single transaction.
func (s *SQLiteSink) WriteOutput(t float64) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshots (time, node, ux, uy, uz, vx, vy, vz, ax, ay, az)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	f := s.fields
	for n := 0; n < s.mesh.NumNodes(); n++ {
		if !s.mesh.Owned(n) {
			continue
		}
		u, v, a := f.Displacement.Node(n), f.Velocity.Node(n), f.Acceleration.Node(n)
		if _, err := stmt.ExecContext(ctx, t, s.mesh.GlobalNodeIDs[n],
			u[0], u[1], u[2], v[0], v[1], v[2], a[0], a[1], a[2]); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	h := historyPoint(t, s.mesh, f)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (time, kinetic_energy, max_displacement) VALUES (?, ?, ?)`,
		h.Time, h.KineticEnergy, h.MaxDisplacement); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
