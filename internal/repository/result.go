package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sh1zukey/TheGameOnline-BE/internal/model"
)

// ResultRepository 终局结果仓库
// 对局结束后把结局写入 PostgreSQL，用于战绩统计
type ResultRepository struct {
	db *pgxpool.Pool
}

// NewResultRepository 创建终局结果仓库
func NewResultRepository(db *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{db: db}
}

// Record 写入一条终局记录
func (r *ResultRepository) Record(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO game_results (room_id, capacity, players, deck_size, end_cause, cards_left, created_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		room.RoomID,
		room.Capacity,
		len(room.Players),
		room.DeckSize,
		string(room.EndCause),
		room.RemainingCards(),
		room.CreatedAt,
		room.UpdatedAt,
	)
	return err
}

// CountByCause 按结局原因统计场次
func (r *ResultRepository) CountByCause(ctx context.Context, cause model.EndCause) (int64, error) {
	query := `SELECT COUNT(*) FROM game_results WHERE end_cause = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, string(cause)).Scan(&count)
	return count, err
}
