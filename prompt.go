package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/raine/fashion-analyzer/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// isInteractiveTerminal returns true if both stdin and stdout are TTYs.
// This is used to determine if we can ask for the directory interactively.
func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// chooseDirectory picks the directory to analyze: the argument if given,
// otherwise the prompt's answer on a terminal. Blank means the default.
func chooseDirectory(arg string, interactive bool, prompt func() (string, error)) (string, error) {
	dir := strings.TrimSpace(arg)
	if dir == "" && interactive {
		answer, err := prompt()
		if err != nil {
			return "", err
		}
		dir = strings.TrimSpace(answer)
	}
	if dir == "" {
		dir = config.DefaultDirectory
	}
	return dir, nil
}

func promptDirectory() (string, error) {
	var dir string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Image directory").
				Description(fmt.Sprintf("Photos of one clothing item (default: %s)", config.DefaultDirectory)).
				Placeholder(config.DefaultDirectory).
				Value(&dir),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errors.New("cancelled")
		}
		return "", err
	}
	return dir, nil
}

// waitOnWindows pauses execution on Windows so users can see error messages
// before the console window closes.
func waitOnWindows() {
	if runtime.GOOS == "windows" {
		fmt.Println()
		fmt.Println("Press Enter to exit...")
		fmt.Scanln()
	}
}

// fatalWithWait logs a fatal error and waits on Windows before exiting.
func fatalWithWait(format string, args ...interface{}) {
	log.Error().Msg(fmt.Sprintf(format, args...))
	waitOnWindows()
	os.Exit(1)
}
