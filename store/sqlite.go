package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLite keeps agent memory in a SQLite file so a restarted process picks
// up mid-game.
type SQLite struct {
	conn *sqlx.DB
}

type memoryRow struct {
	GameID       int    `db:"game_id"`
	PlayerID     int    `db:"player_id"`
	Turn         int    `db:"turn"`
	WasSaving    bool   `db:"was_saving"`
	Doctrine     string `db:"doctrine"`
	ThreatJSON   string `db:"threat_json"`
	SnapshotJSON string `db:"snapshot_json"`
	UpdatedAt    int64  `db:"updated_at"`
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; sqlite serializes anyway. A single connection also keeps
	// the per-connection pragmas in force.
	conn.SetMaxOpenConns(1)

	if err := initPragmas(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pragmas: %w", err)
	}

	s := &SQLite{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func initPragmas(conn *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agent_memory (
		game_id INTEGER NOT NULL,
		player_id INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		was_saving INTEGER NOT NULL,
		doctrine TEXT NOT NULL,
		threat_json TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (game_id, player_id)
	);

	CREATE INDEX IF NOT EXISTS idx_agent_memory_updated ON agent_memory(updated_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLite) Load(ctx context.Context, key Key) (Memory, error) {
	var row memoryRow
	err := s.conn.GetContext(ctx, &row,
		`SELECT game_id, player_id, turn, was_saving, doctrine, threat_json, snapshot_json, updated_at
		 FROM agent_memory WHERE game_id = ? AND player_id = ?`,
		key.GameID, key.PlayerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Memory{}, ErrNotFound
	}
	if err != nil {
		return Memory{}, fmt.Errorf("load memory: %w", err)
	}

	m := Memory{
		Key:       Key{GameID: row.GameID, PlayerID: row.PlayerID},
		Turn:      row.Turn,
		WasSaving: row.WasSaving,
		Doctrine:  row.Doctrine,
	}
	if err := json.Unmarshal([]byte(row.ThreatJSON), &m.Threat); err != nil {
		return Memory{}, fmt.Errorf("decode threat: %w", err)
	}
	if err := json.Unmarshal([]byte(row.SnapshotJSON), &m.Snapshot); err != nil {
		return Memory{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return m, nil
}

func (s *SQLite) Save(ctx context.Context, m Memory) error {
	threatJSON, err := json.Marshal(m.Threat)
	if err != nil {
		return fmt.Errorf("encode threat: %w", err)
	}
	snapshotJSON, err := json.Marshal(m.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.conn.NamedExecContext(ctx, `INSERT OR REPLACE INTO agent_memory
		(game_id, player_id, turn, was_saving, doctrine, threat_json, snapshot_json, updated_at)
		VALUES (:game_id, :player_id, :turn, :was_saving, :doctrine, :threat_json, :snapshot_json, :updated_at)`,
		memoryRow{
			GameID:       m.GameID,
			PlayerID:     m.PlayerID,
			Turn:         m.Turn,
			WasSaving:    m.WasSaving,
			Doctrine:     m.Doctrine,
			ThreatJSON:   string(threatJSON),
			SnapshotJSON: string(snapshotJSON),
			UpdatedAt:    time.Now().Unix(),
		})
	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	if _, err := s.conn.ExecContext(ctx,
		"DELETE FROM agent_memory WHERE game_id = ? AND player_id = ?",
		key.GameID, key.PlayerID); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// Prune drops memories not updated since before, returning how many went.
func (s *SQLite) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM agent_memory WHERE updated_at < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune memory: %w", err)
	}
	return res.RowsAffected()
}
