package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	optionHumanVsAI = "1"
	optionAIVsAI    = "2"
	optionQuit      = "q"
)

var errBadInput = errors.New("enter row and column from 1 to 3, e.g. 2 3")

type roundUseCase interface {
	StartRound(ctx context.Context, mode string) (*entity.Round, error)
	PlayHuman(ctx context.Context, id string, row, col int) (*entity.Round, error)
	PlayAI(ctx context.Context, id string) (*entity.Round, error)
	ResetRound(ctx context.Context, id string) (*entity.Round, error)
	EndRound(ctx context.Context, id string) error
}

// Console plays rounds on a terminal.
type Console struct {
	logger *slog.Logger
	rounds roundUseCase

	in  *bufio.Scanner
	out *termenv.Output

	aiDelay   time.Duration
	maxRounds int
}

// New - opts configure the termenv output, e.g. termenv.WithProfile(termenv.Ascii).
func New(
	logger *slog.Logger,
	rounds roundUseCase,
	in io.Reader,
	out io.Writer,
	aiDelay time.Duration,
	maxRounds int,
	opts ...termenv.OutputOption,
) *Console {
	return &Console{
		logger:    logger.With("component", "console"),
		rounds:    rounds,
		in:        bufio.NewScanner(in),
		out:       termenv.NewOutput(out, opts...),
		aiDelay:   aiDelay,
		maxRounds: maxRounds,
	}
}

// Run - shows the mode menu until the user quits or the input ends.
func (that *Console) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		that.printf("\n%s\n", that.out.String("Tic-Tac-Toe").Bold())
		that.printf("%s) human vs AI\n%s) AI vs AI\n%s) quit\n> ", optionHumanVsAI, optionAIVsAI, optionQuit)

		line, ok := that.readLine()
		if !ok {
			return nil
		}

		var err error

		switch line {
		case optionHumanVsAI:
			err = that.playHuman(ctx)
		case optionAIVsAI:
			err = that.playAI(ctx)
		case optionQuit:
			return nil
		default:
			that.printf("Unknown option %q\n", line)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// playHuman - the human plays against the engine; rounds restart after each outcome until "q".
func (that *Console) playHuman(ctx context.Context) error {
	round, err := that.rounds.StartRound(ctx, entity.HumanVsAI)
	if err != nil {
		return fmt.Errorf("failed to start round: %w", err)
	}

	defer that.endRound(ctx, round.ID)

	that.printf("You play %s\n", that.styleMark(round.HumanMark))

	for ctx.Err() == nil {
		that.render(round.Board)

		switch {
		case round.IsFinished():
			that.printf("%s\n", round.Outcome)

			if round, err = that.rounds.ResetRound(ctx, round.ID); err != nil {
				return fmt.Errorf("failed to reset round: %w", err)
			}

		case round.IsAITurn():
			if !that.wait(ctx) {
				return nil
			}

			if round, err = that.rounds.PlayAI(ctx, round.ID); err != nil {
				return fmt.Errorf("failed to make ai turn: %w", err)
			}

		default:
			next, quit, err := that.humanTurn(ctx, round)
			if err != nil || quit {
				return err
			}

			round = next
		}
	}

	return nil
}

// humanTurn - reads moves until one is legal; bad input is reported and ignored.
func (that *Console) humanTurn(ctx context.Context, round *entity.Round) (*entity.Round, bool, error) {
	for {
		that.printf("Your move (%s), row col: ", that.styleMark(round.HumanMark))

		line, ok := that.readLine()
		if !ok {
			return nil, false, io.EOF
		}

		if line == optionQuit {
			return nil, true, nil
		}

		row, col, err := parseCell(line)
		if err != nil {
			that.printf("%v\n", err)
			continue
		}

		next, err := that.rounds.PlayHuman(ctx, round.ID, row, col)
		if err != nil {
			if !errors.Is(err, apperror.ErrIllegalMove) {
				return nil, false, fmt.Errorf("failed to make turn: %w", err)
			}

			that.logger.Debug("move rejected", "roundID", round.ID, "row", row, "col", col, "error", err)
			that.printf("%s\n", that.out.String(err.Error()).Faint())

			continue
		}

		return next, false, nil
	}
}

// playAI - the engine plays both sides for maxRounds rounds.
func (that *Console) playAI(ctx context.Context) error {
	round, err := that.rounds.StartRound(ctx, entity.AIVsAI)
	if err != nil {
		return fmt.Errorf("failed to start round: %w", err)
	}

	defer that.endRound(ctx, round.ID)

	played := 0
	for that.wait(ctx) {
		that.render(round.Board)

		if round.IsFinished() {
			played++
			that.printf("%s\n", round.Outcome)

			if played >= that.maxRounds {
				return nil
			}

			if round, err = that.rounds.ResetRound(ctx, round.ID); err != nil {
				return fmt.Errorf("failed to reset round: %w", err)
			}

			continue
		}

		if round, err = that.rounds.PlayAI(ctx, round.ID); err != nil {
			return fmt.Errorf("failed to make ai turn: %w", err)
		}
	}

	return nil
}

func (that *Console) endRound(ctx context.Context, id string) {
	if err := that.rounds.EndRound(context.WithoutCancel(ctx), id); err != nil {
		that.logger.Error("failed to end round", "roundID", id, "error", err)
	}
}

// render - draws the board with coloured marks.
func (that *Console) render(board entity.Board) {
	that.printf("\n")

	for row := 0; row < entity.Size; row++ {
		cells := make([]string, entity.Size)
		for col := 0; col < entity.Size; col++ {
			cells[col] = " " + that.styleMark(board[row][col]) + " "
		}

		that.printf("%s\n", strings.Join(cells, "|"))

		if row < entity.Size-1 {
			that.printf("---+---+---\n")
		}
	}
}

func (that *Console) styleMark(mark entity.Mark) string {
	switch mark {
	case entity.PlayerX:
		return that.out.String(mark.String()).Foreground(termenv.ANSIRed).Bold().String()
	case entity.PlayerO:
		return that.out.String(mark.String()).Foreground(termenv.ANSIBlue).Bold().String()
	default:
		return " "
	}
}

func (that *Console) wait(ctx context.Context) bool {
	timer := time.NewTimer(that.aiDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (that *Console) readLine() (string, bool) {
	if !that.in.Scan() {
		return "", false
	}

	return strings.TrimSpace(that.in.Text()), true
}

func (that *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(that.out, format, args...)
}

// parseCell - turns 1-based "row col" into board coordinates.
func parseCell(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, errBadInput
	}

	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, errBadInput
	}

	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, errBadInput
	}

	return row - 1, col - 1, nil
}
