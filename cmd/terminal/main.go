// Command terminal plays blinking tic-tac-toe against the bot in a terminal, no server needed.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/config"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/session"
)

var errQuit = errors.New("quit")

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := config.MustLoadEnv()
	settings := conf.Game.Settings()

	flag.BoolVar(&settings.BotPlaysFirst, "bot-first", settings.BotPlaysFirst, "let the bot open as X")
	flag.IntVar(&settings.Difficulty, "difficulty", settings.Difficulty, "bot difficulty, 1 to 3")
	flag.BoolVar(&settings.TimerEnabled, "timer", settings.TimerEnabled, "forfeit the game when a turn runs out of time")
	flag.Parse()

	settings.BotEnabled = true

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sess, err := session.New(uuid.NewString(), settings,
		session.WithLogger(logger),
		session.WithBotDelay(conf.Game.BotDelay),
	)
	if err != nil {
		panic(fmt.Errorf("failed to start game: %w", err))
	}
	defer sess.Close()

	out := termenv.NewOutput(os.Stdout)
	if err = play(sess, os.Stdin, out); err != nil && !errors.Is(err, errQuit) {
		panic(err)
	}
}

// play redraws the board on every state change and feeds input lines to the session until q or EOF.
func play(sess *session.Session, in io.Reader, out *termenv.Output) error {
	var mu sync.Mutex
	draw := newRenderer(out)

	write := func(text string) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprint(out, text)
	}

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	go func() {
		for game := range updates {
			write(draw.render(game, sess.TimeLeft()))
		}
	}()

	write(draw.render(sess.Snapshot(), sess.TimeLeft()))

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := handleLine(sess, strings.TrimSpace(scanner.Text())); err != nil {
			if errors.Is(err, errQuit) {
				return err
			}

			write(out.String(err.Error()).Foreground(out.Color("1")).String() + "\n")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return nil
}

func handleLine(sess *session.Session, line string) error {
	switch line {
	case "":
		return nil
	case "q":
		return errQuit
	case "r":
		return sess.Reset()
	}

	cell, err := strconv.Atoi(line)
	if err != nil || cell < 1 || cell > 9 {
		return apperror.ErrInvalidCell
	}

	return sess.Move(cell - 1)
}
