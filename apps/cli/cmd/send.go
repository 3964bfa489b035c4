package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/zestclient/zest/packages/http"
	"github.com/zestclient/zest/packages/output"
	"github.com/zestclient/zest/packages/reqfile"
)

// watchDebounceDelay coalesces rapid editor write events.
const watchDebounceDelay = 300 * time.Millisecond

var (
	sendVerboseFlag bool
	sendNoColorFlag bool
	sendWatchFlag   bool
	sendPlainFlag   bool
)

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Execute the request described in a file",
	Long: `Execute the HTTP request described in a YAML or JSON file and
print the annotated response.

Examples:
  zest send request.yaml
  zest send request.yaml -v
  zest send request.yaml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: sendCommand,
}

func init() {
	sendCmd.Flags().BoolVarP(&sendVerboseFlag, "verbose", "v", false, "show headers, cookies, timing phases and renderers")
	sendCmd.Flags().BoolVar(&sendNoColorFlag, "no-color", false, "disable colored output")
	sendCmd.Flags().BoolVarP(&sendWatchFlag, "watch", "w", false, "re-execute when the request file changes")
	sendCmd.Flags().BoolVar(&sendPlainFlag, "plain-transport", false, "use the transport without per-phase timing")
}

func sendCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(sendVerboseFlag),
		output.WithNoColor(sendNoColorFlag),
	)

	var opts []http.EngineOption
	if sendPlainFlag {
		opts = append(opts, http.WithTransport(http.NewPlainTransport()))
	}
	engine := http.NewEngine(opts...)

	execute := func(ctx context.Context) error {
		req, err := reqfile.Load(path)
		if err != nil {
			return err
		}
		resp, err := engine.Execute(ctx, req)
		if err != nil {
			return err
		}
		formatter.FormatResponse(resp)
		if resp.Failed() {
			return fmt.Errorf("request failed")
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !sendWatchFlag {
		return execute(ctx)
	}

	if err := execute(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	absPath, _ := filepath.Abs(path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			eventPath, _ := filepath.Abs(event.Name)
			if eventPath != absPath || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounceDelay, func() {
				if err := execute(ctx); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-ctx.Done():
			return nil
		}
	}
}
