package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

type ScoreRepository interface {
	Append(ctx context.Context, record *entity.ScoreRecord) error
	LoadWinCounts(ctx context.Context) (map[int]int, error)
	History(ctx context.Context) ([]string, error)
}

type fileScore struct {
	mu   sync.Mutex
	path string
}

// NewFileScoreRepository - keeps scores as an append-only text file, one
// finished game per line.
func NewFileScoreRepository(path string) ScoreRepository {
	return &fileScore{
		path: path,
	}
}

func (that *fileScore) Append(_ context.Context, record *entity.ScoreRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	file, err := os.OpenFile(that.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open score file: %w", err)
	}

	if _, err = file.WriteString(record.String() + "\n"); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to append score: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close score file: %w", err)
	}

	return nil
}

// LoadWinCounts - counts winner lines per player id. A missing file means no
// games were recorded yet.
func (that *fileScore) LoadWinCounts(_ context.Context) (map[int]int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	counts := make(map[int]int)

	file, err := os.Open(that.path)
	if errors.Is(err, fs.ErrNotExist) {
		return counts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open score file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id, ok := entity.ParseWinnerID(scanner.Text())
		if !ok || id < 1 || id > entity.MaxPlayers {
			continue
		}
		counts[id]++
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read score file: %w", err)
	}

	return counts, nil
}

// History - returns the score lines, oldest first.
func (that *fileScore) History(_ context.Context) ([]string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	file, err := os.Open(that.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open score file: %w", err)
	}
	defer file.Close()

	lines := []string{}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read score file: %w", err)
	}

	return lines, nil
}
