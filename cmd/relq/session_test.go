package main

import (
	"bytes"
	"strings"
	"testing"
)

func newTestSession() (*Session, *bytes.Buffer) {
	s := NewSession("sqlite", nil)
	var buf bytes.Buffer
	s.out = &buf
	return s, &buf
}

func TestExecuteDispatchesByPrefix(t *testing.T) {
	t.Parallel()
	s, buf := newTestSession()

	if err := s.Execute("table users id:int64 name:string"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.cat.tables["users"]; !ok {
		t.Fatal("expected table users to be declared in the catalog")
	}
	if !strings.Contains(buf.String(), "Declared table") {
		t.Errorf("expected confirmation output, got %q", buf.String())
	}
}

func TestExecuteBareCommandNameWithNoArgsUsesUsageError(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession()
	if err := s.Execute("compile"); err == nil {
		t.Fatal("expected an error for 'compile' with no expression")
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession()
	if err := s.Execute("frobnicate"); err == nil {
		t.Fatal("expected an error for an unrecognized command")
	}
}

func TestCmdLetBindsNameForLaterReference(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession()
	if err := s.Execute("table t x:int64"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Execute("let q = t"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.vars["q"]; !ok {
		t.Fatal("expected q to be bound in vars")
	}
}

func TestCmdCompileProducesSQL(t *testing.T) {
	t.Parallel()
	s, buf := newTestSession()
	if err := s.Execute("table t x:int64"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Execute("compile t"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "SELECT *") {
		t.Errorf("expected compiled SQL in output, got %q", buf.String())
	}
}

func TestCmdRunWithoutConnectionReportsCompiledSQL(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession()
	if err := s.Execute("table t x:int64"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.Execute("run t")
	if err == nil {
		t.Fatal("expected an error when no connection is active")
	}
	if !strings.Contains(err.Error(), "SELECT *") {
		t.Errorf("expected the compiled SQL to be included in the error, got %v", err)
	}
}

func TestCmdTablesListsDeclaredTables(t *testing.T) {
	t.Parallel()
	s, buf := newTestSession()
	if err := s.Execute("table users id:int64"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Execute("tables"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "users") {
		t.Errorf("expected users in tables output, got %q", buf.String())
	}
}
