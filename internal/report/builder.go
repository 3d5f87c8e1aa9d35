package report

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/internal/history"
	"github.com/zvilnymo/casecheck/internal/naming"
	"github.com/zvilnymo/casecheck/internal/resolve"
	"github.com/zvilnymo/casecheck/pkg/bitrix"
	"github.com/zvilnymo/casecheck/pkg/drive"
)

// Settings carries the CRM field ids and document-store locations a report
// reads.
type Settings struct {
	CategoryID      int
	ConsultantField string
	DebtField       string
	CourtField      string
	HistoryLimit    int
	RootFolderID    string
	PlanFileName    string
	PlanFilePattern string
}

// Builder produces reports. Requests are independent; the only state shared
// between them is the stage-label cache.
type Builder struct {
	crm      bitrix.Client
	docs     drive.Client
	resolver *resolve.Resolver
	plans    resolve.PlanFinder
	labels   *history.Labels
	settings Settings
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the evaluation clock used for the live segment.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// WithResolver overrides the default folder cascade.
func WithResolver(r *resolve.Resolver) BuilderOption {
	return func(b *Builder) {
		b.resolver = r
	}
}

// NewBuilder creates a Builder. A nil labels cache gets a fresh in-memory
// one backed by crm.
func NewBuilder(crm bitrix.Client, docs drive.Client, labels *history.Labels, s Settings, opts ...BuilderOption) *Builder {
	if labels == nil {
		labels = history.NewLabels(crm, nil)
	}
	b := &Builder{
		crm:      crm,
		docs:     docs,
		resolver: resolve.NewResolver(docs),
		plans: resolve.PlanFinder{
			Lister:    docs,
			ExactName: s.PlanFileName,
			Pattern:   s.PlanFilePattern,
		},
		labels:   labels,
		settings: s,
		now:      time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build looks up the customer behind rawPhone. Absence at any step is an
// Outcome, not an error. CRM failures on the contact or deal lookup abort
// the report and are returned; document and history failures are recorded
// in their sections.
func (b *Builder) Build(ctx context.Context, rawPhone string) (*Report, error) {
	r := &Report{
		RequestID:   uuid.NewString(),
		GeneratedAt: b.now(),
		CategoryID:  b.settings.CategoryID,
	}
	log := zap.L().With(zap.String("request_id", r.RequestID))

	if !naming.UsablePhone(rawPhone) {
		r.Outcome = OutcomeInvalidPhone
		return r, nil
	}
	r.Phone = naming.NormalizePhone(rawPhone)
	log = log.With(zap.String("phone", r.Phone))

	contact, err := b.crm.FindContactByPhone(ctx, r.Phone)
	if err != nil {
		return nil, eris.Wrap(err, "report: find contact")
	}
	if contact == nil {
		log.Info("report: no contact")
		r.Outcome = OutcomeNoContact
		return r, nil
	}
	r.ContactID = int64(contact.ID)
	r.Client = contact.PersonName().FullName()

	deal, err := b.crm.LatestDeal(ctx, r.ContactID, b.settings.CategoryID, b.dealFields())
	if err != nil {
		return nil, eris.Wrap(err, "report: latest deal")
	}
	if deal == nil {
		log.Info("report: no deal", zap.Int64("contact_id", r.ContactID))
		r.Outcome = OutcomeNoDeal
		return r, nil
	}
	r.Outcome = OutcomeOK
	log = log.With(zap.Int64("deal_id", int64(deal.ID)))

	r.Deal = b.dealSection(ctx, log, deal)
	r.Document = b.documentSection(ctx, log, contact.PersonName(), r.Phone)
	r.History, err = b.historySection(ctx, int64(deal.ID), r.GeneratedAt)
	if err != nil {
		log.Warn("report: stage history failed", zap.Error(err))
		r.HistoryError = DescribeError(err)
	}

	log.Info("report: built",
		zap.String("stage", r.Deal.StageID),
		zap.String("document", string(r.Document.Status)),
		zap.Int("history", len(r.History)),
	)
	return r, nil
}

func (b *Builder) dealFields() []string {
	var out []string
	for _, f := range []string{b.settings.ConsultantField, b.settings.DebtField, b.settings.CourtField} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (b *Builder) dealSection(ctx context.Context, log *zap.Logger, deal *bitrix.Deal) *Deal {
	d := &Deal{
		ID:          int64(deal.ID),
		Title:       deal.Title,
		URL:         b.crm.DealURL(int64(deal.ID)),
		StageID:     deal.StageID,
		Responsible: Placeholder,
		Court:       orPlaceholder(deal.Field(b.settings.CourtField)),
		Debt:        orPlaceholder(deal.Field(b.settings.DebtField)),
	}

	label, err := b.labels.Lookup(ctx, b.settings.CategoryID, deal.StageID)
	if err != nil {
		log.Warn("report: stage labels unavailable", zap.Error(err))
	}
	d.Stage = label

	if deal.AssignedByID > 0 {
		d.Responsible = b.crm.UserName(ctx, int64(deal.AssignedByID))
	}
	d.Consultant = b.consultant(ctx, deal.FieldValues(b.settings.ConsultantField))
	return d
}

// consultant resolves numeric user ids to names and keeps free text as is.
func (b *Builder) consultant(ctx context.Context, values []string) string {
	if len(values) == 0 {
		return Placeholder
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			names = append(names, b.crm.UserName(ctx, id))
			continue
		}
		names = append(names, v)
	}
	return strings.Join(names, ", ")
}

// documentSection never fails: any error becomes the section's status.
func (b *Builder) documentSection(ctx context.Context, log *zap.Logger, name naming.PersonName, phone string) (doc *Document) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("report: document lookup panicked", zap.Any("panic", p))
			doc = &Document{Status: DocFailed, Error: "internal error"}
		}
	}()

	fail := func(err error) *Document {
		log.Warn("report: document lookup failed", zap.Error(err))
		status := DocFailed
		var apiErr *drive.APIError
		if errors.As(err, &apiErr) {
			status = DocDriveError
		}
		return &Document{Status: status, Error: DescribeError(err)}
	}

	target := resolve.Target{
		RootID: b.settings.RootFolderID,
		Title:  naming.BuildTitle(name, phone),
		Phone:  phone,
	}
	match, err := b.resolver.Resolve(ctx, target)
	if err != nil {
		return fail(err)
	}
	if match == nil {
		return &Document{Status: DocFolderNotFound}
	}
	log.Debug("report: folder resolved",
		zap.String("folder_id", match.Folder.ID),
		zap.Stringer("tier", match.Tier),
	)

	plan, err := b.plans.Find(ctx, match.Folder.ID)
	if err != nil {
		return fail(err)
	}
	if plan == nil {
		return &Document{Status: DocPlanNotFound, Folder: match}
	}
	link, err := b.docs.ViewLink(ctx, plan.ID)
	if err != nil {
		return fail(err)
	}
	return &Document{Status: DocFound, Folder: match, PlanID: plan.ID, Plan: plan.Name, Link: link}
}

func (b *Builder) historySection(ctx context.Context, dealID int64, now time.Time) (stages []Stage, err error) {
	defer func() {
		if p := recover(); p != nil {
			stages, err = nil, eris.Errorf("report: stage history panicked: %v", p)
		}
	}()

	rows, err := b.crm.StageHistory(ctx, dealID, b.settings.HistoryLimit)
	if err != nil {
		return nil, err
	}
	events := make([]history.Event, 0, len(rows))
	for _, row := range rows {
		at, err := row.Time()
		if err != nil {
			zap.L().Warn("report: skipping stage row", zap.Int64("deal_id", dealID), zap.Error(err))
			continue
		}
		events = append(events, history.Event{StageID: row.StageID, At: at})
	}

	segs := history.Reduce(events, now)
	stages = make([]Stage, len(segs))
	for i, s := range segs {
		label, err := b.labels.Label(ctx, s.StageID)
		if err != nil {
			zap.L().Warn("report: stage label unavailable", zap.String("stage_id", s.StageID), zap.Error(err))
		}
		stages[i] = Stage{
			StageID:  s.StageID,
			Label:    label,
			Start:    s.Start,
			End:      s.End,
			Duration: s.Duration,
			Current:  i == len(segs)-1,
		}
	}
	return stages, nil
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
