// Package compiler turns commands into answer-set program text.
//
// A compile runs PARSE, EVALUATE, CONTEXT_EXPAND, SYNTHESIZE_PROOFS and
// SERIALIZE in order. Only PARSE can fail; an evaluation that meets a
// malformed intermediate value panics with an assertion failure. The
// symbol generator and rule store are reset before and after every
// compile. The macro table is the only state kept between compiles.
//
// A Compiler is not safe for concurrent use.
package compiler

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/gensym"
	"github.com/teranos/ldcs/ldcs/macro"
	"github.com/teranos/ldcs/ldcs/parser"
	"github.com/teranos/ldcs/ldcs/rules"
	"github.com/teranos/ldcs/logger"
)

// Stage names used in logs
const (
	StageParse         = "parse"
	StageEvaluate      = "evaluate"
	StageContextExpand = "context_expand"
	StageProofs        = "synthesize_proofs"
	StageSerialize     = "serialize"
)

// proofMarker appears in every proof companion rule
const proofMarker = "@proof"

// Program is the structured result of one compile
type Program struct {
	Form         string              `json:"form"`
	Rules        []string            `json:"rules"`
	Descriptions []rules.Description `json:"descriptions,omitempty"`
	Text         string              `json:"text"`
}

// Compiler owns the macro table and the per-compile state
type Compiler struct {
	logger          *zap.SugaredLogger
	proofs          bool
	persistCounters bool
	trace           bool

	macros *macro.Table
	gen    *gensym.Generator
	store  *rules.Store
}

// Option configures a Compiler
type Option func(*Compiler)

// WithLogger sets the logger; the default is the "ldcs.compiler" component logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProofs enables or disables proof companion rules (enabled by default)
func WithProofs(enabled bool) Option {
	return func(c *Compiler) { c.proofs = enabled }
}

// WithPersistCounters keeps predicate indices increasing across compiles,
// for drivers that accumulate one program from many commands. Symbols
// still restart at A.
func WithPersistCounters(enabled bool) Option {
	return func(c *Compiler) { c.persistCounters = enabled }
}

// WithTrace logs the full rule list after every stage at debug level
func WithTrace(enabled bool) Option {
	return func(c *Compiler) { c.trace = enabled }
}

// New creates a compiler with an empty macro table
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger: logger.ComponentLogger("ldcs.compiler"),
		proofs: true,
		macros: macro.NewTable(),
		gen:    gensym.New(),
		store:  rules.NewStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile returns the generated rules of one command joined by newlines.
// A syntax error is returned as a *parser.ParseError.
func (c *Compiler) Compile(command string) (string, error) {
	prog, err := c.CompileProgram(command)
	if err != nil {
		return "", err
	}
	return prog.Text, nil
}

// CompileProgram compiles one command and returns its rules with the
// describe table of any objects it introduced
func (c *Compiler) CompileProgram(command string) (*Program, error) {
	start := time.Now()
	log := c.logger.With(logger.FieldRequestID, uuid.New().String())

	c.reset()
	defer c.reset()

	cmd, err := parser.Parse(command)
	if err != nil {
		c.logSyntaxError(log, command, err)
		return nil, err
	}
	form := FormOf(cmd)
	log.Debugw("parsed", logger.FieldStage, StageParse, logger.FieldForm, form)

	ev := &evaluator{gen: c.gen, store: c.store, macros: c.macros}
	if top := ev.command(cmd); top != "" {
		c.store.Prepend(top + ".")
	}
	log.Debugw("evaluated", logger.FieldStage, StageEvaluate, logger.FieldRuleCount, c.store.Len())
	c.traceRules(log, StageEvaluate)

	passes := c.store.ExpandContexts()
	log.Debugw("contexts expanded", logger.FieldStage, StageContextExpand, logger.FieldPasses, passes)
	c.traceRules(log, StageContextExpand)

	if c.proofs {
		added := c.store.SynthesizeProofs(c.gen)
		log.Debugw("proofs synthesized", logger.FieldStage, StageProofs, logger.FieldCount, added)
		c.traceRules(log, StageProofs)
	}

	text := rules.Serialize(c.store.Rules())
	prog := &Program{
		Form:         form,
		Rules:        strings.Split(text, "\n"),
		Descriptions: c.store.Descriptions(),
		Text:         text,
	}

	if form == FormMacro {
		if err := c.registerRules(log, prog); err != nil {
			return nil, err
		}
	}

	log.Debugw("compiled",
		logger.FieldStage, StageSerialize,
		logger.FieldForm, form,
		logger.FieldRuleCount, len(prog.Rules),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return prog, nil
}

// RegisterMacro parses a "head(Vars) :- body." definition and adds it to
// the macro table, replacing any definition with the same name and arity
func (c *Compiler) RegisterMacro(definition string) error {
	m, replaced, err := c.macros.Register(definition)
	if err != nil {
		c.logger.Warnw("macro rejected", logger.FieldError, err.Error())
		return err
	}
	if replaced {
		c.logger.Infow("macro redefined", logger.FieldMacro, m.Signature.String())
	} else {
		c.logger.Debugw("macro registered", logger.FieldMacro, m.Signature.String())
	}
	return nil
}

// DefineMacro compiles a definition command and registers every rule it
// yields as a macro, so later commands expand it inline
func (c *Compiler) DefineMacro(command string) error {
	prog, err := c.CompileProgram(command)
	if err != nil {
		return err
	}
	if prog.Form == FormMacro {
		return nil
	}
	return c.registerRules(c.logger, prog)
}

// MacroRules returns the rules of a program that can serve as macro
// definitions: implications that are not proof companions
func (p *Program) MacroRules() []string {
	var out []string
	for _, line := range p.Rules {
		if strings.Contains(line, " :- ") && !strings.Contains(line, proofMarker) {
			out = append(out, line)
		}
	}
	return out
}

func (c *Compiler) registerRules(log *zap.SugaredLogger, prog *Program) error {
	for _, line := range prog.MacroRules() {
		if err := c.RegisterMacro(line); err != nil {
			log.Warnw("generated rule is not a valid macro", "rule", line)
			return errors.Wrapf(err, "registering %q", line)
		}
	}
	return nil
}

// Macros lists the registered macro signatures
func (c *Compiler) Macros() []macro.Signature {
	return c.macros.Signatures()
}

// Macro returns the definition registered under a name and arity
func (c *Compiler) Macro(name string, arity int) (*macro.Macro, error) {
	return c.macros.Get(name, arity)
}

// reset clears per-compile state
func (c *Compiler) reset() {
	c.store.Reset()
	if c.persistCounters {
		c.gen.ResetSymbols()
	} else {
		c.gen.Reset()
	}
}

func (c *Compiler) traceRules(log *zap.SugaredLogger, stage string) {
	if c.trace {
		log.Debugw("rules", logger.FieldStage, stage, logger.FieldRules, c.store.Rules())
	}
}

func (c *Compiler) logSyntaxError(log *zap.SugaredLogger, command string, err error) {
	fields := []interface{}{logger.FieldCommand, command, logger.FieldError, err.Error()}
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		if perr.Range != nil {
			fields = append(fields, logger.FieldPosition, perr.Range.Start.Offset)
		}
		if perr.Token != nil {
			fields = append(fields, logger.FieldToken, perr.Token.Text)
		}
	}
	log.Warnw("syntax error", fields...)
}
