package model

import (
	"encoding/json"
	"testing"
)

func TestAmount_DecodesNumbersAndStrings(t *testing.T) {
	var row RFMRow
	if err := json.Unmarshal([]byte(`{"customer_id":"C1","monetary":"120.50"}`), &row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Monetary != 120.5 {
		t.Fatalf("got %v, want 120.5", row.Monetary)
	}

	var rank RankingRow
	if err := json.Unmarshal([]byte(`{"customer_id":"C2","city":"Austin","total_paid":99}`), &rank); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rank.TotalPaid != 99 {
		t.Fatalf("got %v, want 99", rank.TotalPaid)
	}
}

func TestAmount_RejectsGarbage(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"abc"`), &a); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}

func TestAnalysisResult_Filtered(t *testing.T) {
	tests := []struct {
		name    string
		applied map[string]any
		want    bool
	}{
		{"nil", nil, false},
		{"empty", map[string]any{}, false},
		{"segment", map[string]any{"segment": "Lost"}, true},
		{"blank value", map[string]any{"segment": ""}, false},
		{"list value", map[string]any{"min_monetary": []any{"10"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &AnalysisResult{Summary: AnalysisSummary{FiltersApplied: tt.applied}}
			if got := a.Filtered(); got != tt.want {
				t.Fatalf("Filtered() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalysisResult_CloneIsDeep(t *testing.T) {
	a := &AnalysisResult{
		Rows:    []RFMRow{{CustomerID: "C1"}},
		Summary: AnalysisSummary{SegmentCounts: map[string]int{"Champions": 1}},
	}
	c := a.Clone()
	c.Rows[0].CustomerID = "X"
	c.Summary.SegmentCounts["Champions"] = 9
	if a.Rows[0].CustomerID != "C1" || a.Summary.SegmentCounts["Champions"] != 1 {
		t.Fatal("clone shares memory with original")
	}
}

func TestFilterState_Query(t *testing.T) {
	q := FilterState{Segment: "At Risk"}.Query()
	if len(q) != 1 || q["segment"] != "At Risk" {
		t.Fatalf("unexpected query %v", q)
	}
	if len(FilterState{}.Query()) != 0 {
		t.Fatal("zero filter state must produce no query")
	}
}

func TestParseSegment(t *testing.T) {
	if s, ok := ParseSegment("champions"); !ok || s != SegmentChampions {
		t.Fatalf("got %q %v", s, ok)
	}
	if s, ok := ParseSegment(""); !ok || s != "" {
		t.Fatalf("got %q %v", s, ok)
	}
	if s, ok := ParseSegment("Lost"); ok || s != "Lost" {
		t.Fatalf("got %q %v", s, ok)
	}
}

func TestParseModalKind(t *testing.T) {
	for in, want := range map[string]ModalKind{
		"revenue":         ModalRevenue,
		"Customers":       ModalCustomer,
		"vip":             ModalVIP,
		"avg-order-value": ModalAvgOrderValue,
		"avgOrderValue":   ModalAvgOrderValue,
	} {
		got, ok := ParseModalKind(in)
		if !ok || got != want {
			t.Errorf("ParseModalKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseModalKind("churn"); ok {
		t.Error("expected unknown kind to fail")
	}
}
