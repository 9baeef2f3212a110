package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ldcs/am"
	"github.com/teranos/ldcs/cmd/ldcs/commands"
	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ldcs",
	Short: "ldcs - compile compositional commands to answer-set programs",
	Long: `ldcs compiles a compact compositional language for facts, definitions,
queries and goals into clingo rules.

Available commands:
  compile - Compile commands to rules
  macro   - Manage stored macros
  watch   - Recompile a script on every change
  am      - Manage configuration ("I am")
  version - Show version information

Examples:
  ldcs compile 'rel1(X,Y), rel2(Y,const)?'
  ldcs compile -f family.ldcs > family.lp
  ldcs macro add 'grand(X,Y) :- parent(X,Z), parent(Z,Y).'
  ldcs watch family.ldcs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		noColor, _ := cmd.Flags().GetBool("no-color")

		if noColor {
			pterm.DisableColor()
		}
		if cfg, err := am.Load(); err == nil {
			logger.SetTheme(cfg.GetLogTheme())
			jsonLogs = jsonLogs || cfg.Log.JSON
		}
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		ctx := logger.WithComponent(cmd.Context(), "ldcs."+cmd.Name())
		cmd.SetContext(logger.WithRequestID(ctx, uuid.New().String()))
		logger.Debugw("logger initialized", "verbosity", logger.LevelName(verbosity), "json", jsonLogs)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(commands.CompileCmd)
	rootCmd.AddCommand(commands.MacroCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		logger.Cleanup()
		os.Exit(1)
	}
}
