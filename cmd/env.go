package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/internal/history"
	"github.com/zvilnymo/casecheck/internal/report"
	"github.com/zvilnymo/casecheck/internal/resilience"
	"github.com/zvilnymo/casecheck/pkg/bitrix"
	"github.com/zvilnymo/casecheck/pkg/drive"
)

// appEnv holds the collaborators every command shares.
type appEnv struct {
	CRM      bitrix.Client
	Docs     drive.Client
	Breakers *resilience.ServiceBreakers
	Builder  *report.Builder
	Location *time.Location
}

// initEnv validates configuration for mode, builds the CRM and Drive
// clients and checks that the root folder is readable. Any failure aborts
// startup.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	base, err := bitrix.ResolveBase(cfg.Bitrix.WebhookBase, cfg.Bitrix.ContactURL)
	if err != nil {
		return nil, err
	}

	retry := resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
	breakers := resilience.NewServiceBreakers(resilience.FromCircuitConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeoutSecs))

	crm, err := bitrix.NewClient(base,
		bitrix.WithHTTPClient(&http.Client{Timeout: cfg.Bitrix.Timeout()}),
		bitrix.WithRateLimit(cfg.Bitrix.RateLimit),
		bitrix.WithRetry(retry),
		bitrix.WithBreaker(breakers.Get("bitrix")),
	)
	if err != nil {
		return nil, eris.Wrap(err, "init bitrix client")
	}

	sa, err := drive.ServiceAccountClient(ctx, cfg.Drive.CredentialsFile, cfg.Drive.Timeout())
	if err != nil {
		return nil, err
	}
	docs := drive.NewClient(sa.HTTP,
		drive.WithRateLimit(cfg.Drive.RateLimit),
		drive.WithRetry(retry),
		drive.WithBreaker(breakers.Get("drive")),
	)

	root, err := docs.Get(ctx, cfg.Drive.RootFolderID)
	if err != nil {
		return nil, eris.Wrapf(err, "drive self-test: root folder %s is not readable by %s", cfg.Drive.RootFolderID, sa.Email)
	}
	zap.L().Info("drive: root folder ok", zap.String("id", root.ID), zap.String("name", root.Name))

	builder := report.NewBuilder(crm, docs, history.NewLabels(crm, nil), report.Settings{
		CategoryID:      cfg.Bitrix.CategoryID,
		ConsultantField: cfg.Bitrix.ConsultantField,
		DebtField:       cfg.Bitrix.DebtField,
		CourtField:      cfg.Bitrix.CourtField,
		HistoryLimit:    cfg.Bitrix.HistoryLimit,
		RootFolderID:    cfg.Drive.RootFolderID,
		PlanFileName:    cfg.Drive.PlanFileName,
		PlanFilePattern: cfg.Drive.PlanFilePattern,
	})

	return &appEnv{
		CRM:      crm,
		Docs:     docs,
		Breakers: breakers,
		Builder:  builder,
		Location: cfg.Report.Location(),
	}, nil
}

// lookupTimeout bounds one report: every collaborator call plus retries.
func lookupTimeout() time.Duration {
	return 3 * max(cfg.Bitrix.Timeout(), cfg.Drive.Timeout())
}
