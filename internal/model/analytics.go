package model

import (
	"strings"
	"time"
)

// ModalKind names one of the on-demand analytics bundles.
type ModalKind string

const (
	ModalRevenue       ModalKind = "revenue"
	ModalCustomer      ModalKind = "customer"
	ModalVIP           ModalKind = "vip"
	ModalAvgOrderValue ModalKind = "avgOrderValue"
)

// ModalKinds lists every bundle kind in dashboard order.
var ModalKinds = []ModalKind{ModalRevenue, ModalCustomer, ModalVIP, ModalAvgOrderValue}

func (k ModalKind) String() string { return string(k) }

func (k ModalKind) Valid() bool {
	return k == ModalRevenue || k == ModalCustomer || k == ModalVIP || k == ModalAvgOrderValue
}

// Title is the human label used in failure messages.
func (k ModalKind) Title() string {
	switch k {
	case ModalRevenue:
		return "revenue analytics"
	case ModalCustomer:
		return "customer analytics"
	case ModalVIP:
		return "VIP analytics"
	case ModalAvgOrderValue:
		return "average order value"
	default:
		return string(k)
	}
}

// ParseModalKind accepts the canonical names plus a few CLI-friendly aliases.
func ParseModalKind(s string) (ModalKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revenue":
		return ModalRevenue, true
	case "customer", "customers":
		return ModalCustomer, true
	case "vip":
		return ModalVIP, true
	case "avgordervalue", "avg-order-value", "aov":
		return ModalAvgOrderValue, true
	default:
		return "", false
	}
}

// RevenuePeriod is the ?period= window of the revenue bundle.
type RevenuePeriod string

const (
	PeriodToday      RevenuePeriod = "today"
	PeriodWeek       RevenuePeriod = "week"
	PeriodMonth      RevenuePeriod = "month"
	PeriodThreeMonth RevenuePeriod = "3m"
	PeriodSixMonth   RevenuePeriod = "6m"
	PeriodYear       RevenuePeriod = "year"
	PeriodAll        RevenuePeriod = "all"
)

// ParseRevenuePeriod normalizes input; empty => all.
func ParseRevenuePeriod(s string) (RevenuePeriod, bool) {
	switch p := RevenuePeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAll, true
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodThreeMonth, PeriodSixMonth, PeriodYear, PeriodAll:
		return p, true
	default:
		return PeriodAll, false
	}
}

type ProductRevenue struct {
	ProductType string `json:"product_type"`
	Amount      Amount `json:"amount"`
}

type ProductWeight struct {
	ProductType string `json:"product_type"`
	Amount100kg Amount `json:"amount_100kg"`
}

type DailyAmount struct {
	PurchaseDate string `json:"purchase_date"`
	Amount       Amount `json:"amount"`
}

type RevenueAnalytics struct {
	RevenueByType   []ProductRevenue `json:"revenue_by_type"`
	RevenueByWeight []ProductWeight  `json:"revenue_by_weight"`
	TotalRevenue    Amount           `json:"total_revenue"`
	Graph           []DailyAmount    `json:"graph"`
}

type CustomerTotals struct {
	CustomerID  string `json:"customer_id"`
	TotalPaid   Amount `json:"total_paid"`
	TotalPoints Amount `json:"total_points"`
	OrderCount  int    `json:"order_count"`
}

type CustomerAnalytics struct {
	Customers []CustomerTotals         `json:"customers"`
	Top40     []CustomerTotals         `json:"top_40"`
	Logs      map[string][]DailyAmount `json:"logs"`
	Graph     []DailyAmount            `json:"graph"`
}

type VIPCustomer struct {
	CustomerID    string `json:"customer_id"`
	TotalPaid     Amount `json:"total_paid"`
	LoyaltyPoints Amount `json:"loyalty_points"`
	Status        string `json:"status"` // VIP | Loyal Customer | Thrifter
}

type AvgOrderValue struct {
	Value Amount `json:"avg_order_value"`
}

// UploadedFile is one entry of GET /rfm/uploaded-files/.
type UploadedFile struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	UploadedAt       time.Time `json:"uploaded_at"`
	DownloadURL      string    `json:"download_url,omitempty"`
}

// Insights is GET /ai/generate/.
type Insights struct {
	Insights string `json:"insights"`
}
