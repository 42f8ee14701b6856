package model

import "strings"

type Segment string

const (
	SegmentChampions          Segment = "Champions"
	SegmentLoyalCustomers     Segment = "Loyal Customers"
	SegmentPotentialLoyalists Segment = "Potential Loyalists"
	SegmentNewCustomers       Segment = "New Customers"
	SegmentPromising          Segment = "Promising"
	SegmentNeedAttention      Segment = "Need Attention"
	SegmentAboutToSleep       Segment = "About To Sleep"
	SegmentAtRisk             Segment = "At Risk"
	SegmentCannotLoseThem     Segment = "Cannot Lose Them"
	SegmentHibernating        Segment = "Hibernating"
	SegmentOther              Segment = "Other"
)

// Segments lists the segment catalogue in display order.
var Segments = []Segment{
	SegmentChampions,
	SegmentLoyalCustomers,
	SegmentPotentialLoyalists,
	SegmentNewCustomers,
	SegmentPromising,
	SegmentNeedAttention,
	SegmentAboutToSleep,
	SegmentAtRisk,
	SegmentCannotLoseThem,
	SegmentHibernating,
	SegmentOther,
}

func (s Segment) String() string { return string(s) }

// ParseSegment normalizes input; empty => "" (all segments).
// Unknown names are passed through unchanged with ok=false: the server owns
// the catalogue and may answer with an empty "no match" result.
func ParseSegment(raw string) (Segment, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", true
	}
	for _, seg := range Segments {
		if strings.EqualFold(s, string(seg)) {
			return seg, true
		}
	}
	return Segment(s), false
}
