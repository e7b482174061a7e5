// Package indexdb keeps a queryable read model of sortie telemetry. It is an
// observability surface, not game state: the sim never reads it back, and
// losing it costs nothing but history.
package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"ironrain.gg/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	// Written only by the writer goroutine.
	curSortie int64
	eventSeq  int64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvent
)

type req struct {
	kind  reqKind
	tick  world.TickLogEntry
	event world.Event
}

func OpenSQLite(path string, seed int64) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// High buffer: destruction bursts must not stall the sim.
		ch: make(chan req, 65536),
	}
	if err := s.openSortie(seed); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(seed)
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL is enough for a
	// secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sorties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			end_tick INTEGER,
			destroyed_buildings INTEGER NOT NULL DEFAULT 0,
			destroyed_targets INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			sortie INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			name TEXT NOT NULL,
			subject_id TEXT,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			value REAL NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (sortie, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_name_tick ON events(name, tick);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			sortie INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			health REAL NOT NULL,
			chunks INTEGER NOT NULL,
			projectiles INTEGER NOT NULL,
			PRIMARY KEY (sortie, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) openSortie(seed int64) error {
	res, err := s.db.Exec(
		`INSERT INTO sorties (seed, started_at) VALUES (?, ?)`,
		seed, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	s.curSortie, err = res.LastInsertId()
	s.eventSeq = 0
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of
		// truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteEvent(e world.Event) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, event: e}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) loop(seed int64) {
	for r := range s.ch {
		switch r.kind {
		case reqTick:
			s.applyTick(r.tick)
		case reqEvent:
			s.applyEvent(r.event, seed)
		}
	}
}

func (s *SQLiteIndex) applyTick(t world.TickLogEntry) {
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO ticks (sortie, tick, digest, health, chunks, projectiles)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.curSortie, t.Tick, t.Digest, t.Health, t.Chunks, t.Projectiles,
	)
	_, _ = s.db.Exec(
		`UPDATE sorties SET destroyed_buildings = ?, destroyed_targets = ? WHERE id = ?`,
		t.Score.DestroyedBuildings, t.Score.DestroyedTargets, s.curSortie,
	)
}

func (s *SQLiteIndex) applyEvent(e world.Event, seed int64) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.eventSeq++
	_, _ = s.db.Exec(
		`INSERT INTO events (sortie, seq, tick, name, subject_id, x, y, z, value, raw_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.curSortie, s.eventSeq, e.Tick, e.Name, e.SubjectID,
		e.Position.X, e.Position.Y, e.Position.Z, e.Value, string(raw),
	)

	switch e.Name {
	case "game_over":
		_, _ = s.db.Exec(
			`UPDATE sorties SET ended_at = ?, end_tick = ? WHERE id = ?`,
			time.Now().UTC().Format(time.RFC3339Nano), e.Tick, s.curSortie,
		)
	case "restart":
		_ = s.openSortie(seed)
	}
}
