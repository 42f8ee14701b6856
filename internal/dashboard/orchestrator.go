package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jmehdipour/rfm-dashboard/internal/gateway"
	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	"github.com/jmehdipour/rfm-dashboard/internal/metrics"
	"github.com/jmehdipour/rfm-dashboard/internal/model"
	"github.com/jmehdipour/rfm-dashboard/internal/session"
	"go.uber.org/zap"
)

// ErrNotReady is returned by Start when the session is not authenticated.
var ErrNotReady = errors.New("dashboard: session is not authenticated")

// ErrNoCustomers is returned by LoadRanking while there is no analysis to rank.
var ErrNoCustomers = errors.New("dashboard: no customers to rank")

// Gateway is the part of the analytics client the dashboard reads from.
type Gateway interface {
	Analysis(ctx context.Context, filters model.FilterState) (*model.AnalysisResult, error)
	Ranking(ctx context.Context, city string) ([]model.RankingRow, error)
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	UploadedFiles(ctx context.Context) ([]model.UploadedFile, error)
	DownloadUploadedFile(ctx context.Context, id int64, w io.Writer) (int64, error)
	RevenueAnalytics(ctx context.Context, period model.RevenuePeriod) (*model.RevenueAnalytics, error)
	CustomerAnalytics(ctx context.Context) (*model.CustomerAnalytics, error)
	VIPCustomers(ctx context.Context) ([]model.VIPCustomer, error)
	AvgOrderValue(ctx context.Context) (*model.AvgOrderValue, error)
	GenerateInsights(ctx context.Context) (*model.Insights, error)
}

// Session is what the dashboard needs from the session manager.
type Session interface {
	Ready() <-chan struct{}
	Authenticated() bool
	Subscribe(fn func(session.State))
}

// Orchestrator owns every piece of dashboard state. Its lock is never held
// across a gateway call; results are committed only while their sequence
// number is still the latest one issued for that resource.
type Orchestrator struct {
	gw   Gateway
	sess Session

	mu       sync.Mutex
	filters  model.FilterState
	city     string
	analysis *model.AnalysisResult
	notice   Notice
	ranking  []model.RankingRow
	files    []model.UploadedFile
	period   model.RevenuePeriod
	bundles  Bundles
	insights string
	uploaded string
	status   map[Resource]Status
	modals   map[model.ModalKind]ModalState
	seq      map[Resource]uint64
}

// New returns an orchestrator that resets itself whenever the session turns
// anonymous.
func New(gw Gateway, sess Session) *Orchestrator {
	o := &Orchestrator{
		gw:     gw,
		sess:   sess,
		period: model.PeriodAll,
	}
	o.resetLocked()
	sess.Subscribe(func(s session.State) {
		if s == session.Anonymous {
			o.Reset()
		}
	})
	return o
}

// Start waits for the first session resolution, then loads the unfiltered
// analysis and the uploaded-file list.
func (o *Orchestrator) Start(ctx context.Context) error {
	select {
	case <-o.sess.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	if !o.sess.Authenticated() {
		return ErrNotReady
	}

	return o.reload(ctx)
}

// LoadPrimaryAnalysis fetches the analysis for filters. A newer call always
// supersedes an older one, whichever response arrives first. A committed
// non-empty result triggers a ranking fetch for the current city.
func (o *Orchestrator) LoadPrimaryAnalysis(ctx context.Context, filters model.FilterState) error {
	o.mu.Lock()
	seq := o.beginLocked(ResourceAnalysis)
	o.notice = NoticeNone
	o.mu.Unlock()

	res, err := o.gw.Analysis(ctx, filters)

	o.mu.Lock()
	if !o.currentLocked(ResourceAnalysis, seq) {
		o.mu.Unlock()
		o.superseded(ResourceAnalysis)
		return nil
	}

	st := Status{}
	switch {
	case err == nil:
		o.analysis = res
		o.notice = noticeFor(res)
	case errors.Is(err, gateway.ErrNotFound):
		o.analysis = nil
		o.notice = NoticeNoData
		err = nil
	case errors.Is(err, gateway.ErrValidation):
		st.Error = firstNonEmpty(gateway.Detail(err), msgAnalysisFailed)
	default:
		st.Error = msgAnalysisFailed
	}
	o.status[ResourceAnalysis] = st

	var rankSeq uint64
	city := o.city
	trigger := err == nil && !o.analysis.Empty()
	if trigger {
		rankSeq = o.beginLocked(ResourceRanking)
	}
	o.mu.Unlock()

	if err != nil {
		logger.Log.Warn("dashboard: load analysis", zap.Error(err))
		return fmt.Errorf("load analysis: %w", err)
	}
	if trigger {
		// ranking failures are recorded on their own resource
		_ = o.fetchRanking(ctx, rankSeq, city)
	}
	return nil
}

// ApplyFilters records the filter inputs and, when they are valid, reloads
// the analysis with them. A non-numeric minimum monetary value is rejected
// locally and reported on ResourceFilters.
func (o *Orchestrator) ApplyFilters(ctx context.Context, segment, minMonetary string) error {
	f := model.FilterState{
		Segment:     strings.TrimSpace(segment),
		MinMonetary: strings.TrimSpace(minMonetary),
	}
	if seg, ok := model.ParseSegment(f.Segment); ok {
		f.Segment = seg.String()
	}

	o.mu.Lock()
	o.filters = f
	if f.MinMonetary != "" {
		if _, err := strconv.ParseFloat(f.MinMonetary, 64); err != nil {
			// kept apart from the analysis status so a fetch in flight neither
			// loses its loading flag nor erases this message when it commits
			o.status[ResourceFilters] = Status{Error: msgMinMonetaryNaN}
			o.mu.Unlock()
			return gateway.Validation("applyFilters", "min_monetary", msgMinMonetaryNaN)
		}
	}
	o.status[ResourceFilters] = Status{}
	o.mu.Unlock()

	return o.LoadPrimaryAnalysis(ctx, f)
}

// SetCity changes the ranking city. The ranking is refetched only when the
// city actually changed and there are customers to rank.
func (o *Orchestrator) SetCity(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)

	o.mu.Lock()
	if city == o.city {
		o.mu.Unlock()
		return nil
	}
	o.city = city
	if o.analysis.Empty() {
		o.mu.Unlock()
		return nil
	}
	seq := o.beginLocked(ResourceRanking)
	o.mu.Unlock()

	return o.fetchRanking(ctx, seq, city)
}

// LoadRanking refetches the ranking for the current city.
func (o *Orchestrator) LoadRanking(ctx context.Context) error {
	o.mu.Lock()
	if o.analysis.Empty() {
		o.mu.Unlock()
		return ErrNoCustomers
	}
	city := o.city
	seq := o.beginLocked(ResourceRanking)
	o.mu.Unlock()

	return o.fetchRanking(ctx, seq, city)
}

func (o *Orchestrator) fetchRanking(ctx context.Context, seq uint64, city string) error {
	rows, err := o.gw.Ranking(ctx, city)

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.currentLocked(ResourceRanking, seq) {
		o.superseded(ResourceRanking)
		return nil
	}
	if err != nil {
		o.ranking = nil
		o.status[ResourceRanking] = Status{Error: msgRankingFailed}
		logger.Log.Warn("dashboard: load ranking", zap.String("city", city), zap.Error(err))
		return fmt.Errorf("load ranking: %w", err)
	}
	o.ranking = rows
	o.status[ResourceRanking] = Status{}
	return nil
}

// DismissError clears the error message of one resource.
func (o *Orchestrator) DismissError(r Resource) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if kind := model.ModalKind(r); kind.Valid() {
		m := o.modals[kind]
		m.Error = ""
		o.modals[kind] = m
		return
	}
	st := o.status[r]
	st.Error = ""
	o.status[r] = st
}

// Reset drops all dashboard state. Results of requests already in flight are
// discarded when they arrive.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.resetLocked()
	o.mu.Unlock()
}

func (o *Orchestrator) resetLocked() {
	o.filters = model.FilterState{}
	o.city = ""
	o.analysis = nil
	o.notice = NoticeNone
	o.ranking = nil
	o.files = nil
	o.bundles = Bundles{}
	o.insights = ""
	o.uploaded = ""
	o.status = make(map[Resource]Status)
	o.modals = make(map[model.ModalKind]ModalState, len(model.ModalKinds))
	for _, k := range model.ModalKinds {
		o.modals[k] = ModalState{}
	}
	// sequences only ever grow so that stale results never match again
	if o.seq == nil {
		o.seq = make(map[Resource]uint64)
	}
	for r := range o.seq {
		o.seq[r]++
	}
}

// Snapshot returns a copy of the current state. Fetched payloads are replaced
// wholesale and never mutated, so they are shared with the copy.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		Filters:       o.filters,
		City:          o.city,
		Analysis:      o.analysis.Clone(),
		Notice:        o.notice,
		Ranking:       append([]model.RankingRow(nil), o.ranking...),
		Files:         append([]model.UploadedFile(nil), o.files...),
		UploadMessage: o.uploaded,
		Insights:      o.insights,
		RevenuePeriod: o.period,
		Status:        make(map[Resource]Status, len(o.status)),
		Modals:        make(map[model.ModalKind]ModalState, len(o.modals)),
		Bundles:       o.bundles,
		Metrics:       o.metricsLocked(),
	}
	for k, v := range o.status {
		s.Status[k] = v
	}
	for k, v := range o.modals {
		s.Modals[k] = v
	}
	return s
}

// beginLocked marks r as loading, clears its error and returns the sequence
// number the eventual result must carry.
func (o *Orchestrator) beginLocked(r Resource) uint64 {
	o.seq[r]++
	o.status[r] = Status{Loading: true}
	return o.seq[r]
}

func (o *Orchestrator) currentLocked(r Resource, seq uint64) bool {
	return o.seq[r] == seq
}

func (o *Orchestrator) superseded(r Resource) {
	metrics.SupersededTotal.WithLabelValues(string(r)).Inc()
	logger.Log.Debug("dashboard: dropped superseded result", zap.String("resource", string(r)))
}

// noticeFor distinguishes an account without data from a filter that matched
// nobody, based on what the server says it applied.
func noticeFor(res *model.AnalysisResult) Notice {
	if !res.Empty() {
		return NoticeNone
	}
	if res.Filtered() {
		return NoticeNoMatch
	}
	return NoticeNoData
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
