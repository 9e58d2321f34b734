package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/lawkit/internal/dsl/ast"
)

func statute(id, when string, effects ...ast.Effect) *ast.Statute {
	return &ast.Statute{ID: id, When: when, Effects: effects}
}

func TestValidateSoundDocument(t *testing.T) {
	doc := &ast.Document{
		Statutes: []*ast.Statute{
			statute("theft_basic",
				`item.value > 0 && suspect.intent == "permanent"`,
				ast.Effect{Name: "charge", Args: []string{"theft"}}),
			statute("burglary_night",
				"act.at_night && act.armed",
				ast.Effect{Name: "sentence", Args: []string{"5"}}),
		},
	}

	if err := New().ValidateDocument(doc); err != nil {
		t.Errorf("sound document should validate, got %v", err)
	}
}

func TestValidateBadWhenExpression(t *testing.T) {
	doc := &ast.Document{
		Statutes: []*ast.Statute{
			statute("broken", "item.value >", ast.Effect{Name: "charge", Args: []string{"x"}}),
		},
	}

	err := New().ValidateDocument(doc)
	if err == nil {
		t.Fatal("expected validation error for malformed expression")
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	if len(verrs.Issues) != 1 || verrs.Issues[0].StatuteID != "broken" {
		t.Errorf("unexpected issues: %v", verrs.Issues)
	}
	if !strings.Contains(err.Error(), "invalid WHEN expression") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateNonBooleanWhen(t *testing.T) {
	doc := &ast.Document{
		Statutes: []*ast.Statute{
			statute("numeric", "item.value + 1", ast.Effect{Name: "charge", Args: []string{"x"}}),
		},
	}

	if err := New().ValidateDocument(doc); err == nil {
		t.Error("non-boolean WHEN should fail validation")
	}
}

func TestValidateUnknownEffect(t *testing.T) {
	doc := &ast.Document{
		Statutes: []*ast.Statute{
			statute("odd", "item.value > 1", ast.Effect{Name: "teleport", Args: []string{"x"}}),
		},
	}

	err := New().ValidateDocument(doc)
	if err == nil || !strings.Contains(err.Error(), `unknown effect "teleport"`) {
		t.Errorf("expected unknown effect issue, got %v", err)
	}
}

func TestValidateEffectWithoutArgs(t *testing.T) {
	doc := &ast.Document{
		Statutes: []*ast.Statute{
			statute("bare", "item.value > 1", ast.Effect{Name: "charge"}),
		},
	}

	err := New().ValidateDocument(doc)
	if err == nil || !strings.Contains(err.Error(), "no arguments") {
		t.Errorf("expected no-arguments issue, got %v", err)
	}
}

func TestValidateAggregatesIssues(t *testing.T) {
	doc := &ast.Document{
		Statutes: []*ast.Statute{
			statute("one", "item.value >", ast.Effect{Name: "charge", Args: []string{"x"}}),
			statute("two", "item.value > 1", ast.Effect{Name: "teleport", Args: []string{"x"}}),
		},
	}

	var verrs *ValidationErrors
	err := New().ValidateDocument(doc)
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *ValidationErrors, got %v", err)
	}
	if len(verrs.Issues) != 2 {
		t.Errorf("expected 2 issues, got %d: %v", len(verrs.Issues), verrs.Issues)
	}
}

func TestWithEffects(t *testing.T) {
	doc := &ast.Document{
		Statutes: []*ast.Statute{
			statute("custom", "item.value > 1", ast.Effect{Name: "notify", Args: []string{"court"}}),
		},
	}

	if err := New(WithEffects("notify")).ValidateDocument(doc); err != nil {
		t.Errorf("custom effect registry should accept notify, got %v", err)
	}
	if err := New().ValidateDocument(doc); err == nil {
		t.Error("default registry should reject notify")
	}
}
