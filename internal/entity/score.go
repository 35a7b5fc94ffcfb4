package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ScoreTimeLayout matches ctime(3), which the score file has always used.
const ScoreTimeLayout = time.ANSIC

var winnerLinePattern = regexp.MustCompile(`^\[[^\]]*\] Winner: Player (\d+)`)

// ScoreRecord describes one finished game.
type ScoreRecord struct {
	GameID    string    `json:"game_id"`
	At        time.Time `json:"at"`
	WinnerID  int       `json:"winner_id"`
	Symbol    Symbol    `json:"symbol"`
	Turns     int       `json:"turns"`
	TotalWins int       `json:"total_wins"`
}

func (that *ScoreRecord) IsDraw() bool {
	return that.WinnerID == NoWinner
}

// String formats the record as one score file line, without the newline.
func (that *ScoreRecord) String() string {
	stamp := that.At.Format(ScoreTimeLayout)

	if that.IsDraw() {
		return fmt.Sprintf("[%s] Draw! Total Turns: %d", stamp, that.Turns)
	}

	return fmt.Sprintf("[%s] Winner: Player %d (%c) | Total Turns: %d | Total Wins: %d",
		stamp, that.WinnerID, that.Symbol, that.Turns, that.TotalWins)
}

// ParseWinnerID extracts the winner id from a score line. Draw lines and
// unrelated text report false.
func ParseWinnerID(line string) (int, bool) {
	match := winnerLinePattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}

	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}

	return id, true
}

// Standing is one leaderboard row.
type Standing struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Symbol   Symbol `json:"symbol"`
	Wins     int    `json:"wins"`
	Active   bool   `json:"active"`
}
