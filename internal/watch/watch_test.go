package watch

import (
	"os"
	"path/filepath"
	"testing"

	dslparser "github.com/dshills/lawkit/internal/dsl/parser"
	"github.com/dshills/lawkit/internal/logging"
	"github.com/dshills/lawkit/internal/parser"
	"github.com/dshills/lawkit/internal/rules"
	"github.com/dshills/lawkit/internal/validate"
)

const goodSrc = `STATUTE theft_basic {
	TITLE "Basic Theft"
	WHEN item.value > 0
	THEN charge("theft")
}
`

func writeStatuteFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "code.law")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewMissingFile(t *testing.T) {
	p := parser.NewCaching(dslparser.New(), 8)
	if _, err := New(filepath.Join(t.TempDir(), "absent.law"), p); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCheckCleanFile(t *testing.T) {
	path := writeStatuteFile(t, goodSrc)
	p := parser.NewCaching(dslparser.New(), 8)

	s, err := New(path, p, WithValidator(validate.New()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	res := s.Check()
	if !res.OK() {
		t.Fatalf("expected clean check, got %+v", res)
	}
	if res.Statutes != 1 {
		t.Errorf("expected 1 statute, got %d", res.Statutes)
	}
	if res.RunID == "" {
		t.Error("check should carry a run id")
	}

	// A second check of unchanged content is served from the cache.
	s.Check()
	if stats := p.CacheStats(); stats.Hits != 1 {
		t.Errorf("expected cache hit on unchanged file, stats %+v", stats)
	}
}

func TestCheckParseError(t *testing.T) {
	path := writeStatuteFile(t, "STATUTE broken {")
	p := parser.NewCaching(dslparser.New(), 8)

	s, err := New(path, p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	res := s.Check()
	if res.OK() || res.ParseError == nil {
		t.Errorf("expected parse error, got %+v", res)
	}
	if stats := p.CacheStats(); stats.Size != 0 {
		t.Errorf("failed parse must not be cached, stats %+v", stats)
	}
}

func TestCheckValidationIssues(t *testing.T) {
	src := `STATUTE odd {
	WHEN item.value >
	THEN charge("x")
}
`
	path := writeStatuteFile(t, src)
	p := parser.NewCaching(dslparser.New(), 8)

	s, err := New(path, p, WithValidator(validate.New()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	res := s.Check()
	if res.ParseError != nil {
		t.Fatalf("document should parse, got %v", res.ParseError)
	}
	if res.Issues != 1 {
		t.Errorf("expected 1 validation issue, got %d", res.Issues)
	}
	if res.OK() {
		t.Error("result with issues should not be OK")
	}
}

func TestCheckRuleFindings(t *testing.T) {
	src := `STATUTE untitled {
	WHEN item.value > 0
	THEN charge("x")
}
`
	path := writeStatuteFile(t, src)
	p := parser.NewCaching(dslparser.New(), 8)

	e := rules.NewEngine()
	defer e.Close()
	script := `
function check(statute)
	if statute.title == "" then
		return { "missing TITLE clause" }
	end
	return nil
end
`
	if err := e.LoadScript("require_title", script); err != nil {
		t.Fatal(err)
	}

	s, err := New(path, p, WithRules(e), WithLogger(logging.Nop()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	res := s.Check()
	if res.Findings != 1 {
		t.Errorf("expected 1 finding, got %d", res.Findings)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := writeStatuteFile(t, goodSrc)
	p := parser.NewCaching(dslparser.New(), 8)

	s, err := New(path, p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
