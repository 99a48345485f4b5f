package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Launcher opens case URLs in a browser
type Launcher struct {
	command string   // configured browser command, empty for system default
	args    []string // additional arguments placed before the URL
	logger  *slog.Logger

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

// openers lists the system handlers to try on each platform, in order
var openers = map[string][][]string{
	"darwin":  {{"open"}},
	"windows": {{"cmd", "/c", "start", ""}},
	"linux":   {{"xdg-open"}, {"wslview"}, {"sensible-browser"}},
}

// NewLauncher creates a Launcher using command, or the system default when empty
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		logger:   logger,
		lookPath: exec.LookPath,
		start:    func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

// Open launches url without waiting for the browser to exit
func (l *Launcher) Open(url string) error {
	if l.command != "" {
		args := append(append([]string{}, l.args...), url)
		l.logger.Info("launching browser", "command", l.command, "url", url)
		return l.start(exec.Command(l.command, args...))
	}

	candidates, ok := openers[runtime.GOOS]
	if !ok {
		candidates = openers["linux"]
	}

	for _, argv := range candidates {
		if _, err := l.lookPath(argv[0]); err != nil {
			l.logger.Debug("opener not available", "command", argv[0], "error", err)
			continue
		}
		args := append(append([]string{}, argv[1:]...), url)
		if err := l.start(exec.Command(argv[0], args...)); err != nil {
			l.logger.Debug("opener failed", "command", argv[0], "error", err)
			continue
		}
		l.logger.Info("launched with system default", "command", argv[0], "url", url)
		return nil
	}

	return fmt.Errorf("no browser available to open %s", url)
}
