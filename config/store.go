package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	logger "github.com/sirupsen/logrus"
)

const (
	createTable = `CREATE TABLE IF NOT EXISTS windsensor_config (
	station  TEXT PRIMARY KEY,
	settings JSONB NOT NULL,
	updated  TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectSettings = `SELECT settings FROM windsensor_config WHERE station = $1`
	upsertSettings = `INSERT INTO windsensor_config (station, settings) VALUES ($1, $2)
ON CONFLICT (station) DO UPDATE SET settings = EXCLUDED.settings, updated = now()`
)

// Store keeps the station settings in PostgreSQL.
type Store struct {
	db      *sql.DB
	station string
}

func OpenStore(ctx context.Context, dsn, station string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open config db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping config db: %w", err)
	}
	s := NewStore(db, station)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewStore(db *sql.DB, station string) *Store {
	return &Store{db: db, station: station}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create config table: %w", err)
	}
	return nil
}

// Load returns the stored settings. A missing or unreadable row is replaced
// by defaults, which are saved and returned.
func (s *Store) Load(ctx context.Context, defaults Settings) (Settings, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, selectSettings, s.station).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		logger.Infof("No stored settings for [%v], saving defaults", s.station)
		return defaults, s.Save(ctx, defaults)
	case err != nil:
		return defaults, fmt.Errorf("load settings: %w", err)
	}

	settings := defaults
	if err := json.Unmarshal(raw, &settings); err != nil {
		logger.Errorf("Stored settings for [%v] not valid [%v], saving defaults", s.station, err)
		return defaults, s.Save(ctx, defaults)
	}
	return settings.sanitize(), nil
}

func (s *Store) Save(ctx context.Context, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertSettings, s.station, raw); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
