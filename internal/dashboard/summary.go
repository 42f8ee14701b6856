package dashboard

import (
	"github.com/jmehdipour/rfm-dashboard/internal/util"
)

// vipSlots is how many top analysis rows count as VIP customers.
const vipSlots = 10

// Metric is a derived figure. Known is false when neither the analysis nor the
// ranking is loaded; a known zero is a real value.
type Metric struct {
	Known bool    `json:"known"`
	Value float64 `json:"value"`
}

// Metrics are the dashboard summary cards.
type Metrics struct {
	TotalCustomers Metric `json:"total_customers"`
	TotalRevenue   Metric `json:"total_revenue"`
	AvgOrderValue  Metric `json:"avg_order_value"`
	VIPCount       Metric `json:"vip_count"`
}

// Metrics derives the summary cards from the analysis when one is loaded,
// else from the ranking.
func (o *Orchestrator) Metrics() Metrics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.metricsLocked()
}

func (o *Orchestrator) metricsLocked() Metrics {
	switch {
	case o.analysis != nil:
		var revenue float64
		for _, row := range o.analysis.Rows {
			revenue += row.Monetary.Float64()
		}
		n := len(o.analysis.Rows)
		return Metrics{
			TotalCustomers: known(float64(o.analysis.Summary.TotalCustomers)),
			TotalRevenue:   known(revenue),
			AvgOrderValue:  known(ratio(revenue, n)),
			VIPCount:       known(float64(min(n, vipSlots))),
		}
	case len(o.ranking) > 0:
		var revenue float64
		for _, row := range o.ranking {
			revenue += row.TotalPaid.Float64()
		}
		n := len(o.ranking)
		return Metrics{
			TotalCustomers: known(float64(n)),
			TotalRevenue:   known(revenue),
			AvgOrderValue:  known(ratio(revenue, n)),
			VIPCount:       known(float64(n)),
		}
	default:
		return Metrics{}
	}
}

func known(v float64) Metric { return Metric{Known: true, Value: v} }

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Money renders m as currency, or the placeholder when unknown.
func (m Metric) Money() string {
	if !m.Known {
		return util.Placeholder
	}
	return util.FormatMoney(m.Value)
}

// Count renders m as an integer count, or the placeholder when unknown.
func (m Metric) Count() string {
	if !m.Known {
		return util.Placeholder
	}
	return util.FormatCount(int(m.Value))
}
