// Package rules runs user-extensible lint rules over parsed statute
// documents.
//
// Rules are Lua scripts. Each script defines a function
//
//	function check(statute)
//	  -- return a list of finding strings, or nil
//	end
//
// which is called once per statute with a table exposing id, title,
// when, and effects. Findings are advisory: they never block parsing
// or validation.
//
// gopher-lua's LState is not goroutine-safe; an Engine must be used
// from a single goroutine.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/lawkit/internal/dsl/ast"
)

// Finding is a single rule hit.
type Finding struct {
	Rule      string // Rule name (script base name)
	StatuteID string // Statute the finding applies to
	Message   string // Text returned by the rule
}

// String returns a human-readable representation of the finding.
func (f Finding) String() string {
	return fmt.Sprintf("[%s] statute %q: %s", f.Rule, f.StatuteID, f.Message)
}

// rule is a loaded check function with its name.
type rule struct {
	name string
	fn   *lua.LFunction
}

// Engine owns a Lua state and the rules loaded into it.
type Engine struct {
	state *lua.LState
	rules []rule
}

// NewEngine creates a rules engine with a sandboxed Lua state:
// the os, io, and debug libraries are stripped so rules cannot touch
// the file system or process.
func NewEngine() *Engine {
	L := lua.NewState()
	for _, g := range []string{"os", "io", "debug", "dofile", "loadfile"} {
		L.SetGlobal(g, lua.LNil)
	}
	return &Engine{state: L}
}

// Close releases the Lua state. The engine is unusable afterwards.
func (e *Engine) Close() {
	e.state.Close()
}

// Len returns the number of loaded rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// LoadScript compiles and registers one rule script under the given
// name. The script must define a global check function.
func (e *Engine) LoadScript(name, src string) error {
	if err := e.state.DoString(src); err != nil {
		return fmt.Errorf("rule %s: %w", name, err)
	}

	checkVal := e.state.GetGlobal("check")
	fn, ok := checkVal.(*lua.LFunction)
	if !ok {
		return fmt.Errorf("rule %s: script does not define a check function", name)
	}

	// Detach the global so the next script cannot see or shadow it
	// accidentally.
	e.state.SetGlobal("check", lua.LNil)

	e.rules = append(e.rules, rule{name: name, fn: fn})
	return nil
}

// LoadDir loads every *.lua file in dir, in lexical order.
// A missing directory is not an error; no rules are loaded.
func (e *Engine) LoadDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return err
	}
	sort.Strings(matches)

	for _, path := range matches {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading rule %s: %w", path, err)
		}
		name := filepath.Base(path)
		name = name[:len(name)-len(".lua")]
		if err := e.LoadScript(name, string(src)); err != nil {
			return err
		}
	}
	return nil
}

// Check runs every loaded rule over every statute in the document.
func (e *Engine) Check(doc *ast.Document) ([]Finding, error) {
	var findings []Finding

	for _, st := range doc.Statutes {
		tbl := e.statuteTable(st)
		for _, r := range e.rules {
			hits, err := e.runRule(r, st.ID, tbl)
			if err != nil {
				return nil, err
			}
			findings = append(findings, hits...)
		}
	}

	return findings, nil
}

// runRule calls one rule's check function with the statute table.
func (e *Engine) runRule(r rule, statuteID string, tbl *lua.LTable) ([]Finding, error) {
	e.state.Push(r.fn)
	e.state.Push(tbl)
	if err := e.state.PCall(1, 1, nil); err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.name, err)
	}

	ret := e.state.Get(-1)
	e.state.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LTable:
		var findings []Finding
		v.ForEach(func(_, val lua.LValue) {
			if msg, ok := val.(lua.LString); ok {
				findings = append(findings, Finding{
					Rule:      r.name,
					StatuteID: statuteID,
					Message:   string(msg),
				})
			}
		})
		return findings, nil
	default:
		return nil, fmt.Errorf("rule %s: check must return a table or nil, got %s", r.name, ret.Type())
	}
}

// statuteTable converts a statute into the Lua table rules receive.
func (e *Engine) statuteTable(st *ast.Statute) *lua.LTable {
	tbl := e.state.NewTable()
	tbl.RawSetString("id", lua.LString(st.ID))
	tbl.RawSetString("title", lua.LString(st.Title))
	tbl.RawSetString("when", lua.LString(st.When))

	effects := e.state.NewTable()
	for _, eff := range st.Effects {
		et := e.state.NewTable()
		et.RawSetString("name", lua.LString(eff.Name))
		args := e.state.NewTable()
		for _, a := range eff.Args {
			args.Append(lua.LString(a))
		}
		et.RawSetString("args", args)
		effects.Append(et)
	}
	tbl.RawSetString("effects", effects)

	return tbl
}
