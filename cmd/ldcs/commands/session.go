package commands

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/ldcs/am"
	"github.com/teranos/ldcs/db"
	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/compiler"
	"github.com/teranos/ldcs/library"
	"github.com/teranos/ldcs/logger"
	"github.com/teranos/ldcs/macrostore"
)

// session is the compiler state one CLI invocation works with: config,
// compiler, macro store, and the prelude text from program libraries
type session struct {
	cfg      *am.Config
	compiler *compiler.Compiler
	loader   *library.Loader
	db       *sql.DB
	store    *macrostore.Store
	prelude  string
	log      *zap.SugaredLogger
}

type sessionOptions struct {
	noProofs  bool
	needStore bool // fail instead of continuing without a store
}

// openSession loads configuration, restores stored macros, then loads
// configured libraries
func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	log := logger.Logger.Named("ldcs")
	s := &session{
		cfg: cfg,
		log: log,
		compiler: compiler.New(
			compiler.WithLogger(log.Named("compiler")),
			compiler.WithProofs(cfg.Compiler.Proofs && !opts.noProofs),
			compiler.WithPersistCounters(cfg.Compiler.PersistCounters),
			compiler.WithTrace(logger.TraceEnabled()),
		),
	}
	s.loader = library.NewLoader(s.compiler, log.Named("library"))

	if cfg.Store.Enabled {
		conn, err := db.OpenWithMigrations(cfg.GetStorePath(), log.Named("db"))
		if err != nil {
			if opts.needStore {
				return nil, err
			}
			log.Warnw("macro store unavailable", logger.FieldError, err.Error())
		} else {
			s.db = conn
			s.store = macrostore.New(conn, log.Named("macrostore"))
			if _, err := s.store.LoadInto(ctx, s.compiler); err != nil {
				s.Close()
				return nil, err
			}
		}
	} else if opts.needStore {
		return nil, errors.WithHint(
			errors.New("the macro store is disabled"),
			"set store.enabled = true in am.toml")
	}

	prelude, err := s.loader.LoadAll(cfg.Library.Macros, cfg.Library.Preludes)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.prelude = prelude
	return s, nil
}

// Close releases the macro store
func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func noProofsFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-proofs")
	return v
}
