package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/bootstrap"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/domain"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/search"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/tally"
)

func main() {
	cfgPath := pflag.StringP("config", "c", "", "config file (.env, yaml, json); environment overrides it")
	pflag.Parse()

	logger := bootstrap.NewLogger()
	defer logger.Sync()

	cfg, err := bootstrap.Setup(*cfgPath)
	if err != nil {
		logger.Fatalw("failed to load config", zap.Error(err))
	}
	engine, _ := cfg.Engine()

	ctx := context.Background()
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("failed to open tally store", zap.Error(err))
	}
	defer closeStore(ctx)

	p := &player{
		in:     bufio.NewScanner(os.Stdin),
		out:    termenv.NewOutput(os.Stdout),
		engine: engine,
		opts:   cfg.SearchOptions(),
		scores: tally.NewScoreboard(ctx, store, logger),
	}
	if err := p.run(ctx); err != nil && err != io.EOF {
		logger.Errorw("game aborted", zap.Error(err))
	}
}

// player drives human-vs-engine games on a terminal.
type player struct {
	in     *bufio.Scanner
	out    *termenv.Output
	engine domain.Cell
	opts   []search.Option
	scores *tally.Scoreboard
}

func (p *player) run(ctx context.Context) error {
	for {
		outcome, err := p.game()
		if err != nil {
			return err
		}
		rec := p.scores.Record(ctx, outcome)
		fmt.Fprintf(p.out, "%s\n", p.result(outcome))
		fmt.Fprintf(p.out, "Player X Wins: %d  Player O Wins: %d  Draws: %d\n", rec.XWins, rec.OWins, rec.Draws)

		fmt.Fprint(p.out, "Play again? [y/N] ")
		line, err := p.readLine()
		if err != nil {
			return err
		}
		if !strings.HasPrefix(strings.ToLower(line), "y") {
			return nil
		}
	}
}

// game plays one game to its end and returns the outcome.
func (p *player) game() (domain.Outcome, error) {
	g := domain.New()
	for !g.Over {
		if g.Turn == p.engine {
			m := search.New(&g.Board, p.opts...).FindBestMove(p.engine)
			if err := g.Play(m.Row, m.Col); err != nil {
				return domain.InProgress, fmt.Errorf("engine move %v: %w", m, err)
			}
			fmt.Fprintf(p.out, "Engine plays %d %d\n", m.Row, m.Col)
			continue
		}
		p.draw(&g.Board)
		fmt.Fprintf(p.out, "Your move (%s), row col: ", g.Turn)
		line, err := p.readLine()
		if err != nil {
			return domain.InProgress, err
		}
		r, c, ok := parseMove(line)
		if !ok {
			fmt.Fprintln(p.out, "Enter two numbers 0-2, e.g. \"1 2\"")
			continue
		}
		if err := g.Play(r, c); err != nil {
			fmt.Fprintf(p.out, "Illegal move: %v\n", err)
		}
	}
	p.draw(&g.Board)
	return g.Outcome, nil
}

func (p *player) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *player) draw(b *domain.Board) {
	grid := b.Grid()
	for r, row := range grid {
		cells := make([]string, 0, domain.Size)
		for _, cell := range row {
			cells = append(cells, p.symbol(cell))
		}
		fmt.Fprintf(p.out, " %s\n", strings.Join(cells, " | "))
		if r < domain.Size-1 {
			fmt.Fprintln(p.out, "---+---+---")
		}
	}
}

func (p *player) symbol(c domain.Cell) string {
	switch c {
	case domain.X:
		return p.out.String("X").Foreground(p.out.Color("#E88388")).Bold().String()
	case domain.O:
		return p.out.String("O").Foreground(p.out.Color("#66C2CD")).Bold().String()
	default:
		return " "
	}
}

func (p *player) result(o domain.Outcome) string {
	switch o {
	case domain.XWins:
		return "Player X wins!"
	case domain.OWins:
		return "Player O wins!"
	default:
		return "It's a draw!"
	}
}

// parseMove accepts "r c", "r,c" or "rc".
func parseMove(line string) (int, int, bool) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 1 && len(fields[0]) == 2 {
		fields = []string{fields[0][:1], fields[0][1:]}
	}
	if len(fields) != 2 {
		return 0, 0, false
	}
	r, err1 := strconv.Atoi(fields[0])
	c, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return r, c, true
}
