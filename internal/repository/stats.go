package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

// User is a named profile that accumulates game results.
type User struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// GameStat is one recorded result, from the user's perspective.
type GameStat struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	OpponentName string    `json:"opponent_name"`
	GameType     string    `json:"game_type"`
	Outcome      string    `json:"outcome"`
	MovesCount   int       `json:"moves_count"`
	SessionID    string    `json:"session_id"`
	PlayedAt     time.Time `json:"played_at"`
}

// AggregatedStats is the win/loss/draw summary for one user.
type AggregatedStats struct {
	Total  int `json:"total"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// WinRate - the percentage of games won, 0 when no games were played.
func (that *AggregatedStats) WinRate() float64 {
	if that.Total == 0 {
		return 0
	}

	return float64(that.Wins) / float64(that.Total) * 100
}

type StatsRepository interface {
	GetOrCreateUser(ctx context.Context, displayName string) (*User, error)
	FindUser(ctx context.Context, displayName string) (*User, error)

	RecordResult(ctx context.Context, stat *GameStat) error
	ResultsFor(ctx context.Context, userID int64) ([]GameStat, error)
	AggregatedFor(ctx context.Context, userID int64) (*AggregatedStats, error)
}

type dbStats struct {
	conn *sql.DB
}

func NewStatsRepository(conn *sql.DB) StatsRepository {
	return &dbStats{
		conn: conn,
	}
}

func (that *dbStats) GetOrCreateUser(ctx context.Context, displayName string) (*User, error) {
	user, err := that.FindUser(ctx, displayName)
	if err == nil {
		return user, nil
	}

	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	query := `INSERT INTO users (display_name) VALUES (?)`

	result, err := that.conn.ExecContext(ctx, query, displayName)
	if err != nil {
		return nil, fmt.Errorf("can't save user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("can't read user id: %w", err)
	}

	return &User{ID: id, DisplayName: displayName, CreatedAt: time.Now()}, nil
}

func (that *dbStats) FindUser(ctx context.Context, displayName string) (*User, error) {
	query := `SELECT id, display_name, created_at FROM users WHERE display_name = ?`

	var user User

	err := that.conn.QueryRowContext(ctx, query, displayName).Scan(&user.ID, &user.DisplayName, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	return &user, nil
}

func (that *dbStats) RecordResult(ctx context.Context, stat *GameStat) error {
	query := `INSERT INTO game_stats (user_id, opponent_name, game_type, outcome, moves_count, session_id)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		stat.UserID, stat.OpponentName, stat.GameType, stat.Outcome, stat.MovesCount, stat.SessionID)
	if err != nil {
		return fmt.Errorf("can't record result: %w", err)
	}

	return nil
}

func (that *dbStats) ResultsFor(ctx context.Context, userID int64) ([]GameStat, error) {
	query := `SELECT id, user_id, opponent_name, game_type, outcome, moves_count, session_id, played_at
		FROM game_stats WHERE user_id = ? ORDER BY played_at DESC`

	rows, err := that.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("can't load results: %w", err)
	}
	defer rows.Close()

	var stats []GameStat
	for rows.Next() {
		var stat GameStat
		if err = rows.Scan(&stat.ID, &stat.UserID, &stat.OpponentName, &stat.GameType,
			&stat.Outcome, &stat.MovesCount, &stat.SessionID, &stat.PlayedAt); err != nil {
			return nil, fmt.Errorf("can't scan result: %w", err)
		}

		stats = append(stats, stat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read results: %w", err)
	}

	return stats, nil
}

func (that *dbStats) AggregatedFor(ctx context.Context, userID int64) (*AggregatedStats, error) {
	stats, err := that.ResultsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	aggregated := &AggregatedStats{Total: len(stats)}
	for _, stat := range stats {
		switch stat.Outcome {
		case OutcomeWin:
			aggregated.Wins++
		case OutcomeLoss:
			aggregated.Losses++
		case OutcomeDraw:
			aggregated.Draws++
		}
	}

	return aggregated, nil
}
