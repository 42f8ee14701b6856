package model

// RFMRow is one scored customer as computed by the analytics service.
type RFMRow struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   Amount  `json:"monetary"`
	RScore     int     `json:"r_score"`
	FScore     int     `json:"f_score"`
	MScore     int     `json:"m_score"`
	RFMScore   string  `json:"rfm_score"`
	Segment    Segment `json:"segment"`
}

type AnalysisSummary struct {
	TotalCustomers int            `json:"total_customers"`
	SegmentCounts  map[string]int `json:"segment_counts"`
	FiltersApplied map[string]any `json:"filters_applied"`
}

// AnalysisResult is GET /rfm/analysis/. It is a snapshot: a newer fetch
// replaces it as a whole.
type AnalysisResult struct {
	Rows    []RFMRow        `json:"rfm_data"`
	Summary AnalysisSummary `json:"summary"`
	Message string          `json:"message,omitempty"`
}

func (a *AnalysisResult) Empty() bool { return a == nil || len(a.Rows) == 0 }

// Filtered reports whether the server says a non-trivial filter produced this result.
func (a *AnalysisResult) Filtered() bool {
	if a == nil {
		return false
	}
	for _, v := range a.Summary.FiltersApplied {
		switch x := v.(type) {
		case nil:
		case string:
			if x != "" {
				return true
			}
		case []any:
			if len(x) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	out := &AnalysisResult{Message: a.Message}
	out.Rows = append([]RFMRow(nil), a.Rows...)
	out.Summary.TotalCustomers = a.Summary.TotalCustomers
	if a.Summary.SegmentCounts != nil {
		out.Summary.SegmentCounts = make(map[string]int, len(a.Summary.SegmentCounts))
		for k, v := range a.Summary.SegmentCounts {
			out.Summary.SegmentCounts[k] = v
		}
	}
	if a.Summary.FiltersApplied != nil {
		out.Summary.FiltersApplied = make(map[string]any, len(a.Summary.FiltersApplied))
		for k, v := range a.Summary.FiltersApplied {
			out.Summary.FiltersApplied[k] = v
		}
	}
	return out
}

// FilterState is what the user typed; "" means unset.
type FilterState struct {
	Segment     string `json:"segment"`
	MinMonetary string `json:"min_monetary"`
}

func (f FilterState) IsZero() bool { return f.Segment == "" && f.MinMonetary == "" }

// Query returns only the filters that are set, keyed by their query parameter names.
func (f FilterState) Query() map[string]string {
	q := make(map[string]string, 2)
	if f.Segment != "" {
		q["segment"] = f.Segment
	}
	if f.MinMonetary != "" {
		q["min_monetary"] = f.MinMonetary
	}
	return q
}

// RankingRow is one entry of GET /rfm/ranking/ (top 10 by total paid).
type RankingRow struct {
	CustomerID string `json:"customer_id"`
	City       string `json:"city"`
	TotalPaid  Amount `json:"total_paid"`
}
