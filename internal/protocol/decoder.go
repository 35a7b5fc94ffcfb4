package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

const readChunk = 256

var ErrBadFrame = errors.New("bad frame")

type Kind int

const (
	KindBoard Kind = iota + 1
	KindYourTurn
	KindInvalid
	KindGameOver
)

func (that Kind) String() string {
	switch that {
	case KindBoard:
		return MarkerBoard
	case KindYourTurn:
		return MarkerYourTurn
	case KindInvalid:
		return MarkerInvalid
	case KindGameOver:
		return MarkerGameOver
	default:
		return "UNKNOWN"
	}
}

// Frame is one logical server message.
type Frame struct {
	Kind Kind

	// set for KindBoard
	Symbol     entity.Symbol
	Spectating bool
	Board      entity.Board
	Text       string

	// set for KindGameOver
	WinnerID int
}

// Decoder splits the server stream into frames. A single read may carry a
// partial frame or several frames, so bytes are accumulated until a marker
// completes.
type Decoder struct {
	reader io.Reader
	buf    []byte
}

func NewDecoder(reader io.Reader) *Decoder {
	return &Decoder{reader: reader}
}

// Next - returns the next complete frame. Unknown lines are skipped.
func (that *Decoder) Next() (Frame, error) {
	chunk := make([]byte, readChunk)

	for {
		frame, consumed, err := parseFrame(that.buf)
		if consumed > 0 {
			that.buf = that.buf[consumed:]
		}
		if err != nil {
			return Frame{}, err
		}
		if frame != nil {
			return *frame, nil
		}
		if consumed > 0 {
			continue
		}

		n, err := that.reader.Read(chunk)
		that.buf = append(that.buf, chunk[:n]...)
		if err != nil {
			if n > 0 {
				continue
			}
			return Frame{}, err
		}
	}
}

// parseFrame - looks at the head of buf. It returns the bytes consumed; a nil
// frame with consumed > 0 means a noise line was dropped.
func parseFrame(buf []byte) (*Frame, int, error) {
	switch {
	case len(buf) == 0:
		return nil, 0, nil

	case bytes.HasPrefix(buf, []byte(MarkerBoard)):
		end := bytes.Index(buf, []byte(MarkerEnd))
		if end < 0 {
			return nil, 0, nil
		}
		consumed := end + len(MarkerEnd)

		frame, err := parseBoard(string(buf[:end]))
		if err != nil {
			return nil, consumed, err
		}

		return frame, consumed, nil
	}

	nl := bytes.IndexByte(buf, '\n')
	if nl < 0 {
		return nil, 0, nil
	}
	line := strings.TrimSpace(string(buf[:nl]))
	consumed := nl + 1

	switch {
	case line == MarkerYourTurn:
		return &Frame{Kind: KindYourTurn}, consumed, nil
	case line == MarkerInvalid:
		return &Frame{Kind: KindInvalid}, consumed, nil
	case strings.HasPrefix(line, MarkerGameOver):
		winner, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, MarkerGameOver)))
		if err != nil {
			return nil, consumed, fmt.Errorf("%w: %q", ErrBadFrame, line)
		}
		return &Frame{Kind: KindGameOver, WinnerID: winner}, consumed, nil
	default:
		return nil, consumed, nil
	}
}

// parseBoard - reads the header, skips the column ruler and decodes each
// "[c]" cell row.
func parseBoard(text string) (*Frame, error) {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != entity.BoardSize+2 {
		return nil, fmt.Errorf("%w: board has %d lines", ErrBadFrame, len(lines))
	}

	header := strings.TrimPrefix(lines[0], MarkerBoard+" ")
	frame := &Frame{
		Kind:       KindBoard,
		Spectating: strings.HasSuffix(header, spectatingSuffix),
		Text:       text + "\n",
	}

	header = strings.TrimSuffix(header, spectatingSuffix)
	if len(header) != 1 {
		return nil, fmt.Errorf("%w: header %q", ErrBadFrame, lines[0])
	}
	frame.Symbol = entity.Symbol(header[0])

	for r, line := range lines[2:] {
		open := strings.IndexByte(line, '[')
		if open < 0 {
			return nil, fmt.Errorf("%w: row %d has no cells", ErrBadFrame, r)
		}

		cells := line[open+1:]
		for c := 0; c < entity.BoardSize; c++ {
			// every cell occupies three bytes: '[', the symbol, ']'
			if len(cells) < 3*c+1 {
				return nil, fmt.Errorf("%w: row %d is short", ErrBadFrame, r)
			}
			frame.Board[r][c] = entity.Symbol(cells[3*c])
		}
	}

	return frame, nil
}
