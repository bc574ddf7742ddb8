package storage

import "testing"

func TestArgListBind(t *testing.T) {
	var args argList
	if got := args.Bind("alice"); got != "$1" {
		t.Fatalf("first placeholder: got %s", got)
	}
	if got := args.Bind(42); got != "$2" {
		t.Fatalf("second placeholder: got %s", got)
	}
	values := args.Values()
	if len(values) != 2 || values[0] != "alice" || values[1] != 42 {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestConditionSetClause(t *testing.T) {
	var conds conditionSet
	if got := conds.Clause(); got != "" {
		t.Fatalf("empty clause: got %q", got)
	}
	conds.Add("name = $1")
	conds.Add("duration <= $2")
	want := " WHERE name = $1 AND duration <= $2"
	if got := conds.Clause(); got != want {
		t.Fatalf("clause: got %q, want %q", got, want)
	}
}

func TestAssignmentSetClause(t *testing.T) {
	var assigns assignmentSet
	if !assigns.Empty() {
		t.Fatal("new set not empty")
	}
	assigns.Add("name = $1")
	assigns.Add("user_id = $2")
	if assigns.Empty() {
		t.Fatal("set with entries reported empty")
	}
	if got := assigns.Clause(); got != "name = $1, user_id = $2" {
		t.Fatalf("clause: got %q", got)
	}
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"plain":   "%plain%",
		"50%":     `%50\%%`,
		"a_b":     `%a\_b%`,
		`back\sl`: `%back\\sl%`,
	}
	for input, want := range cases {
		if got := containsPattern(input); got != want {
			t.Errorf("containsPattern(%q) = %q, want %q", input, got, want)
		}
	}
}
