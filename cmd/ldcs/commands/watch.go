package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ldcs/am"
	"github.com/teranos/ldcs/library"
	"github.com/teranos/ldcs/logger"
)

// WatchCmd recompiles a script whenever it or the project config changes
var WatchCmd = &cobra.Command{
	Use:   "watch <file.ldcs>",
	Short: "Recompile a script on every change",
	Long: `Compile a .ldcs script, then recompile it each time the file is saved.
Changes to the project am.toml are picked up as well.

Each run starts from a fresh compiler, so synthesized predicate names are
stable across runs of an unchanged script.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	WatchCmd.Flags().Bool("no-proofs", false, "Omit proof companion rules")
	WatchCmd.Flags().DurationVar(&watchDebounce, "debounce", library.DefaultDebounce, "Quiet period before recompiling")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	noProofs := noProofsFlag(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runs := make(chan struct{}, 1)
	trigger := func() {
		select {
		case runs <- struct{}{}:
		default:
		}
	}

	w, err := library.NewWatcher(path, watchDebounce, func(string) { trigger() }, logger.Logger.Named("watch"))
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Errorw("watcher stopped", logger.FieldError, err.Error())
		}
	}()

	if project := am.FindProjectConfig(); project != "" {
		cw, err := am.NewConfigWatcher(project, logger.Logger.Named("am"))
		if err != nil {
			logger.Warnw("not watching config", logger.FieldFile, project, logger.FieldError, err.Error())
		} else {
			am.SetGlobalWatcher(cw)
			defer am.SetGlobalWatcher(nil)
			cw.OnReload(func(*am.Config) error {
				trigger()
				return nil
			})
			go func() {
				if err := cw.Run(ctx); err != nil {
					logger.Errorw("config watcher stopped", logger.FieldError, err.Error())
				}
			}()
		}
	}

	trigger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-runs:
			compileScript(ctx, cmd, path, noProofs)
		}
	}
}

// compileScript runs one script through a fresh session and prints the result
func compileScript(ctx context.Context, cmd *cobra.Command, path string, noProofs bool) {
	start := time.Now()

	s, err := openSession(ctx, sessionOptions{noProofs: noProofs})
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	defer s.Close()

	text, err := s.loader.Load(path, library.KindOf(path))
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%% %s compiled at %s\n", path, time.Now().Format(time.TimeOnly))
	if s.prelude != "" {
		fmt.Fprintln(w, s.prelude)
	}
	fmt.Fprintln(w, text)
	logger.Debugw("script compiled", logger.FieldFile, path, logger.FieldDurationMS, time.Since(start).Milliseconds())
}
