package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

const (
	winsKey    = "scores:wins"
	historyKey = "scores:history"
	gamePrefix = "game:"
)

type RedisScoreRepository struct {
	client *redis.Client
}

func NewRedisScoreRepository(client *redis.Client) *RedisScoreRepository {
	return &RedisScoreRepository{
		client: client,
	}
}

// Append - stores the record, its score line and the win tally in one
// transaction.
func (that *RedisScoreRepository) Append(ctx context.Context, record *entity.ScoreRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal score record: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if !record.IsDraw() {
			pipe.HIncrBy(ctx, winsKey, strconv.Itoa(record.WinnerID), 1)
		}
		pipe.RPush(ctx, historyKey, record.String())
		pipe.Set(ctx, gamePrefix+record.GameID, recordJSON, 0)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append score: %w", err)
	}

	return nil
}

func (that *RedisScoreRepository) LoadWinCounts(ctx context.Context) (map[int]int, error) {
	response, err := that.client.HGetAll(ctx, winsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get win counts: %w", err)
	}

	counts := make(map[int]int, len(response))
	for field, value := range response {
		id, err := strconv.Atoi(field)
		if err != nil || id < 1 || id > entity.MaxPlayers {
			continue
		}

		count, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("bad win count for player %d: %w", id, err)
		}
		counts[id] = count
	}

	return counts, nil
}

// History - returns the score lines, oldest first.
func (that *RedisScoreRepository) History(ctx context.Context) ([]string, error) {
	lines, err := that.client.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}

	return lines, nil
}
