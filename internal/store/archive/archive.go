// Package archive keeps finished games in a SQL database.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/park285/immersive-chess/internal/game"
)

var ErrNotFound = errors.New("archive: game not found")

// Game is one archived result.
type Game struct {
	GameID      string
	SaveID      string
	White       string
	Black       string
	Result      string
	Termination string
	MovesUCI    []string
	PGN         string
	Date        string
	EndedAt     time.Time
}

// GameFromRecord flattens a finished record.
func GameFromRecord(rec *game.Record) Game {
	endedAt := rec.UpdatedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	return Game{
		GameID:      rec.GameID(),
		SaveID:      rec.SaveID(),
		White:       rec.Tags[game.TagWhite],
		Black:       rec.Tags[game.TagBlack],
		Result:      rec.Outcome,
		Termination: rec.Method,
		MovesUCI:    append([]string(nil), rec.Moves...),
		PGN:         rec.Game,
		Date:        rec.Tags[game.TagDate],
		EndedAt:     endedAt.UTC(),
	}
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

type Archive struct {
	db      *sql.DB
	dialect dialect
}

const schema = `CREATE TABLE IF NOT EXISTS chess_games (
    game_id     TEXT PRIMARY KEY,
    save_id     TEXT NOT NULL,
    white_name  TEXT NOT NULL,
    black_name  TEXT NOT NULL,
    result      TEXT NOT NULL,
    termination TEXT NOT NULL,
    moves_uci   TEXT NOT NULL,
    move_count  INTEGER NOT NULL,
    pgn         TEXT NOT NULL,
    game_date   TEXT NOT NULL,
    ended_at    BIGINT NOT NULL
)`

// Open connects to dsn and creates the schema. postgres:// DSNs use
// PostgreSQL; "sqlite:<path>", ":memory:" and plain paths use SQLite.
func Open(ctx context.Context, dsn string) (*Archive, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("ARCHIVE_DSN is required")
	}
	driver, source, d := "sqlite", strings.TrimPrefix(dsn, "sqlite:"), dialectSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, source, d = "postgres", dsn, dialectPostgres
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", driver, err)
	}
	if d == dialectSQLite {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s archive: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Archive{db: db, dialect: d}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// SaveResult upserts a finished game.
func (a *Archive) SaveResult(ctx context.Context, g Game) error {
	if a == nil || a.db == nil {
		return nil
	}
	if strings.TrimSpace(g.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	movesRaw, err := json.Marshal(g.MovesUCI)
	if err != nil {
		return err
	}

	q := `INSERT INTO chess_games (
        game_id, save_id, white_name, black_name, result, termination,
        moves_uci, move_count, pgn, game_date, ended_at
      ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
      ON CONFLICT (game_id) DO UPDATE SET
        save_id=EXCLUDED.save_id,
        white_name=EXCLUDED.white_name,
        black_name=EXCLUDED.black_name,
        result=EXCLUDED.result,
        termination=EXCLUDED.termination,
        moves_uci=EXCLUDED.moves_uci,
        move_count=EXCLUDED.move_count,
        pgn=EXCLUDED.pgn,
        game_date=EXCLUDED.game_date,
        ended_at=EXCLUDED.ended_at`

	_, err = a.db.ExecContext(ctx, a.rebind(q),
		g.GameID, g.SaveID,
		g.White, g.Black,
		g.Result, g.Termination,
		string(movesRaw), len(g.MovesUCI), g.PGN,
		g.Date, g.EndedAt.UTC().UnixMilli(),
	)
	return err
}

const selectColumns = `SELECT game_id, save_id, white_name, black_name, result, termination,
        moves_uci, pgn, game_date, ended_at FROM chess_games`

// Recent returns the latest finished games, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, a.rebind(selectColumns+` ORDER BY ended_at DESC, game_id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (a *Archive) Get(ctx context.Context, gameID string) (*Game, error) {
	row := a.db.QueryRowContext(ctx, a.rebind(selectColumns+` WHERE game_id = ?`), strings.TrimSpace(gameID))
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Stats is a player's record over the archived games.
type Stats struct {
	Player string
	Games  int
	Wins   int
	Losses int
	Draws  int
}

// PlayerStats counts the archived results of name on either side.
func (a *Archive) PlayerStats(ctx context.Context, name string) (Stats, error) {
	name = strings.TrimSpace(name)
	st := Stats{Player: name}
	rows, err := a.db.QueryContext(ctx, a.rebind(`SELECT white_name, black_name, result FROM chess_games
        WHERE white_name = ? OR black_name = ?`), name, name)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var white, black, result string
		if err := rows.Scan(&white, &black, &result); err != nil {
			return st, err
		}
		st.Games++
		switch {
		case result == "1/2-1/2":
			st.Draws++
		case result == "1-0" && white == name, result == "0-1" && black == name:
			st.Wins++
		case result == "1-0", result == "0-1":
			st.Losses++
		}
	}
	return st, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (Game, error) {
	var (
		g        Game
		movesRaw string
		endedAt  int64
	)
	if err := s.Scan(&g.GameID, &g.SaveID, &g.White, &g.Black, &g.Result, &g.Termination, &movesRaw, &g.PGN, &g.Date, &endedAt); err != nil {
		return Game{}, err
	}
	if err := json.Unmarshal([]byte(movesRaw), &g.MovesUCI); err != nil {
		return Game{}, fmt.Errorf("decode moves of %s: %w", g.GameID, err)
	}
	g.EndedAt = time.UnixMilli(endedAt).UTC()
	return g, nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (a *Archive) rebind(q string) string {
	if a.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
