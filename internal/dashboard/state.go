package dashboard

import (
	"github.com/jmehdipour/rfm-dashboard/internal/model"
)

// Resource names an independently loaded piece of dashboard state. Each one
// has its own loading/error pair.
type Resource string

const (
	ResourceAnalysis Resource = "analysis"
	ResourceFilters  Resource = "filters"
	ResourceRanking  Resource = "ranking"
	ResourceFiles    Resource = "files"
	ResourceUpload   Resource = "upload"
	ResourceInsights Resource = "insights"
)

// ModalResource maps a bundle kind onto its resource name.
func ModalResource(kind model.ModalKind) Resource { return Resource(kind) }

// Notice is an expected empty state. It is not an error.
type Notice string

const (
	NoticeNone    Notice = ""
	NoticeNoData  Notice = "no_data"
	NoticeNoMatch Notice = "no_match"
)

func (n Notice) Message() string {
	switch n {
	case NoticeNoData:
		return "No customer data found. Upload a CSV or Excel file to get started."
	case NoticeNoMatch:
		return "No customers match the specified filters."
	default:
		return ""
	}
}

const (
	msgAnalysisFailed  = "Failed to fetch RFM analysis data. Please try again later."
	msgRankingFailed   = "Failed to fetch ranking data."
	msgFilesFailed     = "Failed to load uploaded files."
	msgUploadFailed    = "Failed to upload file."
	msgInsightsFailed  = "Failed to generate AI insights."
	msgInsightsNoData  = "No customer data available to generate insights. Please upload data first."
	msgAIUnconfigured  = "AI service is not configured."
	msgMinMonetaryNaN  = "Minimum Monetary value must be a number."
	msgUnsupportedFile = "Invalid file type. Please upload a CSV or Excel file."
)

type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type ModalState struct {
	Visible bool `json:"visible"`
	Status
}

// Bundles holds the last successfully fetched payload of every analytics modal.
type Bundles struct {
	Revenue       *model.RevenueAnalytics  `json:"revenue,omitempty"`
	Customer      *model.CustomerAnalytics `json:"customer,omitempty"`
	VIP           []model.VIPCustomer      `json:"vip,omitempty"`
	AvgOrderValue *model.AvgOrderValue     `json:"avg_order_value,omitempty"`
}

// Snapshot is a copy of the orchestrator state, safe to hand to renderers.
type Snapshot struct {
	Filters  model.FilterState     `json:"filters"`
	City     string                `json:"city"`
	Analysis *model.AnalysisResult `json:"analysis,omitempty"`
	Notice   Notice                `json:"notice,omitempty"`
	Ranking  []model.RankingRow    `json:"ranking"`
	Files    []model.UploadedFile  `json:"files"`

	UploadMessage string              `json:"upload_message,omitempty"`
	Insights      string              `json:"insights,omitempty"`
	RevenuePeriod model.RevenuePeriod `json:"revenue_period"`

	Status  map[Resource]Status            `json:"status"`
	Modals  map[model.ModalKind]ModalState `json:"modals"`
	Bundles Bundles                        `json:"bundles"`
	Metrics Metrics                        `json:"metrics"`
}

// NoticeMessage is the text to render for Notice, "" when there is none.
func (s Snapshot) NoticeMessage() string { return s.Notice.Message() }
