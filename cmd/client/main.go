package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/megattt-backend/internal/protocol"
)

type Config struct {
	Network string `env:"LISTEN_NETWORK" env-default:"unix"`
	Address string `env:"LISTEN_ADDRESS" env-default:"/tmp/mega_ttt.sock"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	conf := &Config{}
	if err := cleanenv.ReadEnv(conf); err != nil {
		logger.Error("unable to load config", "error", err)
		os.Exit(1)
	}

	if err := run(conf, os.Stdin, os.Stdout); err != nil {
		logger.Error("client stopped", "error", err)
		os.Exit(1)
	}
}

// run - plays one session: draws every board and asks for a move whenever
// the server hands over the turn.
func run(conf *Config, in io.Reader, out io.Writer) error {
	conn, err := net.Dial(conf.Network, conf.Address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", conf.Address, err)
	}
	defer conn.Close()

	fmt.Fprintln(out, "Connected to server. Waiting for other players...")

	decoder := protocol.NewDecoder(conn)
	input := bufio.NewScanner(in)
	symbol := "?"

	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out, "Server closed the connection.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read from server: %w", err)
		}

		switch frame.Kind {
		case protocol.KindBoard:
			symbol = frame.Symbol.String()
			fmt.Fprint(out, "\033[H\033[2J")
			fmt.Fprint(out, frame.Text)
			if frame.Spectating {
				fmt.Fprintln(out, "Waiting for your turn...")
			}

		case protocol.KindInvalid:
			fmt.Fprintln(out, "Invalid move, try again.")

		case protocol.KindYourTurn:
			fmt.Fprintf(out, "Your turn (%s). Enter row and column: ", symbol)
			if !input.Scan() {
				return input.Err()
			}
			if _, err = conn.Write([]byte(input.Text() + "\n")); err != nil {
				return fmt.Errorf("failed to send move: %w", err)
			}

		case protocol.KindGameOver:
			if frame.WinnerID == 0 {
				fmt.Fprintln(out, "Game over: draw.")
			} else {
				fmt.Fprintf(out, "Game over: player %d wins.\n", frame.WinnerID)
			}
			fmt.Fprintln(out, "A new game starts shortly.")
		}
	}
}
