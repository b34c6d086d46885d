package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bawdo/relq/compiler"
	"github.com/bawdo/relq/ir"
	"github.com/ergochat/readline"
)

// Session holds the REPL state: the table catalog, named expression
// bindings, the active connection (if any), and the SQL text most
// recently produced by 'compile' or 'run'.
type Session struct {
	engine   string
	cat      *catalog
	vars     map[string]ir.Node
	conn     *dbConn
	lastDSN  string
	lastSQL  string
	rl       *readline.Instance
	out      io.Writer
	commands []commandEntry
}

type commandEntry struct {
	prefix string
	run    func(s *Session, rest string) error
	help   string
}

// NewSession creates a session targeting the given SQL engine.
func NewSession(engine string, rl *readline.Instance) *Session {
	s := &Session{
		engine: engine,
		cat:    newCatalog(),
		vars:   make(map[string]ir.Node),
		rl:     rl,
		out:    os.Stdout,
	}
	s.initCommands()
	return s
}

func (s *Session) initCommands() {
	s.commands = []commandEntry{
		{"connect ", (*Session).cmdConnect, "connect <dsn>               connect to a database"},
		{"table ", (*Session).cmdTable, "table <name> <col:type>...  declare a physical table"},
		{"let ", (*Session).cmdLet, "let <name> = <expr>         bind an expression to a name"},
		{"compile ", (*Session).cmdCompile, "compile <expr>               compile an expression to SQL"},
		{"run ", (*Session).cmdRun, "run <expr>                   compile, then execute against the connection"},
		{"tables", (*Session).cmdTables, "tables                       list declared/discovered tables"},
		{"help", (*Session).cmdHelp, "help                         show this message"},
	}
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// Execute dispatches one line of REPL input to the matching command.
func (s *Session) Execute(line string) error {
	for _, c := range s.commands {
		switch {
		case strings.HasPrefix(line, c.prefix):
			rest := strings.TrimSpace(strings.TrimPrefix(line, c.prefix))
			return c.run(s, rest)
		case line == strings.TrimRight(c.prefix, " "):
			return c.run(s, "")
		}
	}
	return fmt.Errorf("unknown command (try 'help'): %s", line)
}

func (s *Session) cmdConnect(rest string) error {
	if rest == "" {
		return fmt.Errorf("usage: connect <dsn>")
	}
	if s.conn != nil {
		_ = s.conn.close()
		s.conn = nil
	}
	conn, err := connect(s.engine, rest)
	if err != nil {
		return err
	}
	s.conn = conn
	s.lastDSN = rest
	fmt.Fprintf(s.out, "  Connected (%s)\n", sanitizeDSN(rest))
	if n := conn.populateCatalog(s.cat); n > 0 {
		fmt.Fprintf(s.out, "  Discovered %d table(s) from the connection\n", n)
	}
	return nil
}

// cmdTable declares a physical table: "table users id:int64 name:string".
func (s *Session) cmdTable(rest string) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return fmt.Errorf("usage: table <name> <col:type>...")
	}
	name := fields[0]
	cols := make([]ir.Column, 0, len(fields)-1)
	for _, f := range fields[1:] {
		parts := strings.SplitN(f, ":", 2)
		col := ir.Column{Name: parts[0]}
		if len(parts) == 2 {
			col.Type = parts[1]
		}
		cols = append(cols, col)
	}
	s.cat.define(name, cols...)
	fmt.Fprintf(s.out, "  Declared table %q (%d columns)\n", name, len(cols))
	return nil
}

// cmdLet binds the result of an expression to a name reusable in later
// expressions, e.g. "let j = t1.inner_join(t2, t1.k == t2.k)".
func (s *Session) cmdLet(rest string) error {
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return fmt.Errorf("usage: let <name> = <expr>")
	}
	name := strings.TrimSpace(rest[:eq])
	exprText := strings.TrimSpace(rest[eq+1:])
	node, err := newExprParser(exprText, s.cat, s.vars).Parse()
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	s.vars[name] = node
	fmt.Fprintf(s.out, "  %s = %T\n", name, node)
	return nil
}

func (s *Session) cmdCompile(rest string) error {
	if rest == "" {
		return fmt.Errorf("usage: compile <expr>")
	}
	node, err := newExprParser(rest, s.cat, s.vars).Parse()
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	sqlText, err := compiler.ToSQL(node)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	s.lastSQL = sqlText
	fmt.Fprintln(s.out, sqlText)
	return nil
}

func (s *Session) cmdRun(rest string) error {
	if rest == "" {
		return fmt.Errorf("usage: run <expr>")
	}
	node, err := newExprParser(rest, s.cat, s.vars).Parse()
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	sqlText, err := compiler.ToSQL(node)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	s.lastSQL = sqlText
	if s.conn == nil {
		return fmt.Errorf("not connected (use 'connect <dsn>' first); compiled SQL was:\n%s", sqlText)
	}
	result, err := s.conn.execQuery(sqlText, nil)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, result)
	return nil
}

// cmdTables lists every table the catalog knows about. cmdConnect already
// folds every connection-discovered table into the catalog (even one whose
// column lookup failed), so the schemaTables() fallback below only lists
// names the catalog does not hold.
func (s *Session) cmdTables(string) error {
	names := make([]string, 0, len(s.cat.tables))
	for name := range s.cat.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "  %s (declared)\n", name)
	}
	if s.conn != nil {
		for _, name := range s.conn.schemaTables() {
			if _, ok := s.cat.tables[name]; ok {
				continue
			}
			fmt.Fprintf(s.out, "  %s (from connection)\n", name)
		}
	}
	return nil
}

func (s *Session) cmdHelp(string) error {
	fmt.Fprintln(s.out, "Commands:")
	for _, c := range s.commands {
		fmt.Fprintln(s.out, "  "+c.help)
	}
	fmt.Fprintln(s.out, "  exit / quit                  leave the REPL")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Expression syntax mirrors the compiler's test scenarios, e.g.:")
	fmt.Fprintln(s.out, "  t")
	fmt.Fprintln(s.out, "  t.x + 1")
	fmt.Fprintln(s.out, "  t.filter(t.x > 5).sort_by(t.x).limit(10)")
	fmt.Fprintln(s.out, "  t.group_by(t.a).aggregate(t.b.sum())")
	fmt.Fprintln(s.out, "  t1.inner_join(t2, t1.k == t2.k)")
	return nil
}
