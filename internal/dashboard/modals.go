package dashboard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmehdipour/rfm-dashboard/internal/gateway"
	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	"github.com/jmehdipour/rfm-dashboard/internal/model"
	"go.uber.org/zap"
)

// OpenModal shows a bundle modal and fetches its payload. The visibility flag
// is set before the request goes out; a failure leaves the modal open with an
// error and never touches the other modals. Nothing is cached between opens.
func (o *Orchestrator) OpenModal(ctx context.Context, kind model.ModalKind) error {
	if !kind.Valid() {
		return gateway.Validation("openModal", "kind", fmt.Sprintf("unknown analytics modal %q", kind))
	}
	r := ModalResource(kind)

	o.mu.Lock()
	o.seq[r]++
	seq := o.seq[r]
	o.modals[kind] = ModalState{Visible: true, Status: Status{Loading: true}}
	o.clearBundleLocked(kind)
	period := o.period
	o.mu.Unlock()

	var (
		revenue  *model.RevenueAnalytics
		customer *model.CustomerAnalytics
		vip      []model.VIPCustomer
		aov      *model.AvgOrderValue
		err      error
	)
	switch kind {
	case model.ModalRevenue:
		revenue, err = o.gw.RevenueAnalytics(ctx, period)
	case model.ModalCustomer:
		customer, err = o.gw.CustomerAnalytics(ctx)
	case model.ModalVIP:
		vip, err = o.gw.VIPCustomers(ctx)
	case model.ModalAvgOrderValue:
		aov, err = o.gw.AvgOrderValue(ctx)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq[r] != seq {
		o.superseded(r)
		return nil
	}
	m := o.modals[kind]
	m.Loading = false
	if err != nil {
		m.Error = "Failed to load " + kind.Title() + "."
		o.modals[kind] = m
		logger.Log.Warn("dashboard: load analytics bundle", zap.String("kind", kind.String()), zap.Error(err))
		return fmt.Errorf("load %s: %w", kind.Title(), err)
	}
	o.modals[kind] = m

	switch kind {
	case model.ModalRevenue:
		o.bundles.Revenue = revenue
	case model.ModalCustomer:
		o.bundles.Customer = customer
	case model.ModalVIP:
		o.bundles.VIP = vip
	case model.ModalAvgOrderValue:
		o.bundles.AvgOrderValue = aov
	}
	return nil
}

// CloseModal hides a modal. A fetch still in flight for it is discarded.
func (o *Orchestrator) CloseModal(kind model.ModalKind) {
	if !kind.Valid() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq[ModalResource(kind)]++
	o.modals[kind] = ModalState{}
}

// SetRevenuePeriod selects the window used the next time the revenue modal opens.
func (o *Orchestrator) SetRevenuePeriod(p model.RevenuePeriod) {
	o.mu.Lock()
	o.period = p
	o.mu.Unlock()
}

func (o *Orchestrator) clearBundleLocked(kind model.ModalKind) {
	switch kind {
	case model.ModalRevenue:
		o.bundles.Revenue = nil
	case model.ModalCustomer:
		o.bundles.Customer = nil
	case model.ModalVIP:
		o.bundles.VIP = nil
	case model.ModalAvgOrderValue:
		o.bundles.AvgOrderValue = nil
	}
}

// GenerateInsights asks the service for AI commentary on the current data.
// It needs a non-empty analysis.
func (o *Orchestrator) GenerateInsights(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.analysis.Empty() {
		o.insights = ""
		o.status[ResourceInsights] = Status{Error: msgInsightsNoData}
		o.mu.Unlock()
		return "", ErrNoCustomers
	}
	seq := o.beginLocked(ResourceInsights)
	o.insights = ""
	o.mu.Unlock()

	res, err := o.gw.GenerateInsights(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.currentLocked(ResourceInsights, seq) {
		o.superseded(ResourceInsights)
		return "", nil
	}
	if err != nil {
		text := msgInsightsFailed
		switch {
		case gateway.StatusOf(err) == http.StatusServiceUnavailable:
			text = msgAIUnconfigured
		case gateway.Detail(err) != "":
			text = gateway.Detail(err)
		}
		o.status[ResourceInsights] = Status{Error: text}
		return "", fmt.Errorf("generate insights: %w", err)
	}

	o.insights = res.Insights
	if o.insights == "" {
		o.insights = "No insights generated."
	}
	o.status[ResourceInsights] = Status{}
	return o.insights, nil
}
