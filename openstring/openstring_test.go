package openstring

import (
	"reflect"
	"strings"
	"testing"
)

func TestRuleTable(t *testing.T) {
	for _, rule := range Rules() {
		name := RuleName(rule)
		if name == "" {
			t.Fatalf("RuleName(%d) is empty", rule)
		}
		if got, ok := RuleNumber(name); !ok || got != rule {
			t.Fatalf("RuleNumber(%q) = %d, %v; want %d", name, got, ok, rule)
		}
	}
	if _, ok := RuleNumber("once"); ok {
		t.Fatal("RuleNumber(once) should not exist")
	}
	if got := RuleName(42); got != "" {
		t.Fatalf("RuleName(42) = %q, want empty", got)
	}
}

func TestTemplateReplacement(t *testing.T) {
	s := New("a.b", "hello", 0)
	tr := s.TemplateReplacement()
	if !strings.HasSuffix(tr, "_tr") || len(tr) != 32+3 {
		t.Fatalf("TemplateReplacement() = %q", tr)
	}
	if tr != New("a.b", "other text", 7).TemplateReplacement() {
		t.Fatal("replacement must depend only on key and context")
	}
	if tr == New("a.b", "hello", 0, WithContext("menu")).TemplateReplacement() {
		t.Fatal("context must change the replacement")
	}
	if tr == New(`a\.b`, "hello", 0).TemplateReplacement() {
		t.Fatal("escaped and nested keys must not collide")
	}

	p := NewPluralized("a.b", map[int]string{RuleOne: "file", RuleOther: "files"}, 0)
	if !strings.HasSuffix(p.TemplateReplacement(), "_pl") {
		t.Fatalf("plural TemplateReplacement() = %q", p.TemplateReplacement())
	}
	if p.Hash() != s.Hash() {
		t.Fatal("hash must not depend on plural status")
	}
}

func TestAccessorsAndOptions(t *testing.T) {
	s := New("k", "v", 3,
		WithContext("ctx"),
		WithDeveloperComment("note"),
		WithCharacterLimit(40),
	)
	if s.Key() != "k" || s.Order() != 3 || s.Context() != "ctx" || s.Pluralized() {
		t.Fatalf("unexpected accessors: %+v", s)
	}
	if s.String() != "v" {
		t.Fatalf("String() = %q", s.String())
	}
	if s.DeveloperComment != "note" || s.CharacterLimit == nil || *s.CharacterLimit != 40 {
		t.Fatalf("unexpected metadata: %+v", s)
	}
}

func TestWithStringsCopies(t *testing.T) {
	src := map[int]string{RuleOne: "file", RuleOther: "files"}
	p := NewPluralized("k", src, 1)
	src[RuleOne] = "changed"
	if p.Strings[RuleOne] != "file" {
		t.Fatal("NewPluralized must copy its map")
	}

	q := p.WithStrings(map[int]string{RuleOther: "αρχεία"})
	if q.Key() != "k" || q.Order() != 1 || !q.Pluralized() {
		t.Fatalf("WithStrings lost identity: %+v", q)
	}
	if q.TemplateReplacement() != p.TemplateReplacement() {
		t.Fatal("WithStrings changed the template replacement")
	}
	if p.Strings[RuleOther] != "files" {
		t.Fatal("WithStrings mutated the original")
	}
	if got := q.Rules(); !reflect.DeepEqual(got, []int{RuleOther}) {
		t.Fatalf("Rules() = %v", got)
	}
	if got := p.Rules(); !reflect.DeepEqual(got, []int{RuleOne, RuleOther}) {
		t.Fatalf("Rules() = %v", got)
	}
}
