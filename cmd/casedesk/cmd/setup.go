package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/casedesk/internal/adapter"
	"github.com/mmcdole/casedesk/internal/kieserver"
	"github.com/mmcdole/casedesk/internal/tui/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the server URL and credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// runSetup prompts for the server and credentials, checks them and saves the config
func runSetup(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to casedesk!")
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)

	for {
		serverURL, err := prompt(reader, out, "KIE server REST URL (e.g., http://localhost:8080/kie-server/services/rest): ")
		if err != nil {
			return err
		}
		if serverURL == "" {
			fmt.Fprintln(out, "Server URL cannot be empty. Please try again.")
			continue
		}

		username, err := prompt(reader, out, "Username: ")
		if err != nil {
			return err
		}
		password, err := readPassword(reader, out, "Password: ")
		if err != nil {
			return err
		}

		client := kieserver.NewClient(serverURL, username, password,
			kieserver.WithLogger(logger),
			kieserver.WithRateLimit(0, 0),
		)

		fmt.Fprintln(out)
		info, err := pingWithSpinner(ctx, out, client)
		if err != nil {
			fmt.Fprintf(out, "\n✗ Could not connect: %v\n", err)
			fmt.Fprintln(out, "Please check the URL and credentials and try again.")
			fmt.Fprintln(out)
			continue
		}

		cfg.Server.URL = serverURL
		cfg.Server.Username = username
		cfg.Server.Password = password

		if err := adapter.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		logger.Info("server configured", "url", serverURL, "server_version", info.Version)

		fmt.Fprintln(out)
		fmt.Fprintln(out, "✓ Configuration saved!")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run casedesk again to start the application.")
		return nil
	}
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// readPassword reads without echo when stdin is a terminal
func readPassword(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(reader, out, label)
	}

	fmt.Fprint(out, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// pingWithSpinner checks the server with a visual spinner
func pingWithSpinner(ctx context.Context, out io.Writer, client *kieserver.Client) (*kieserver.ServerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	type result struct {
		info *kieserver.ServerInfo
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		info, err := client.Ping(ctx)
		resultCh <- result{info, err}
	}()

	frame := 0
	fmt.Fprintf(out, "\r%s Connecting...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Fprint(out, clearSpinnerLine)
			if res.err != nil {
				return nil, res.err
			}
			fmt.Fprintf(out, "✓ Connected: %s %s\n", res.info.Name, res.info.Version)
			return res.info, nil

		case <-ticker.C:
			frame++
			fmt.Fprintf(out, "\r%s Connecting...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Fprint(out, clearSpinnerLine)
			return nil, fmt.Errorf("connection timed out")
		}
	}
}
