package domain

import "testing"

func TestNormalizeKind(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"job", "job"},
		{"jobs", "job"},
		{"smart_answers", "smart_answer"},
		{"answer", "answer"},
		{"vehicle", ""},
		{"s", ""},
		{"", ""},
	} {
		if got := NormalizeKind(tc.in); got != tc.want {
			t.Errorf("NormalizeKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateSmartAnswerGraph(t *testing.T) {
	valid := []SmartAnswerNode{
		{Kind: "question", Slug: "start", Options: []SmartAnswerOption{
			{Label: "Yes", NextNode: "done"},
			{Label: "No", NextNode: "start"},
		}},
		{Kind: "outcome", Slug: "done"},
	}
	if err := ValidateSmartAnswerGraph(valid); err != nil {
		t.Fatalf("valid graph rejected: %v", err)
	}

	dangling := []SmartAnswerNode{
		{Kind: "question", Slug: "start", Options: []SmartAnswerOption{
			{Label: "Yes", NextNode: "missing"},
		}},
	}
	if err := ValidateSmartAnswerGraph(dangling); err == nil {
		t.Fatalf("dangling next_node accepted")
	}

	badKind := []SmartAnswerNode{{Kind: "decision", Slug: "start"}}
	if err := ValidateSmartAnswerGraph(badKind); err == nil {
		t.Fatalf("invalid node kind accepted")
	}

	noSlug := []SmartAnswerNode{{Kind: "question"}}
	if err := ValidateSmartAnswerGraph(noSlug); err == nil {
		t.Fatalf("missing slug accepted")
	}
}
