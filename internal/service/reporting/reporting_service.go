package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	"github.com/mamadbah2/dairy-dashboard/internal/dataset"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	repo "github.com/mamadbah2/dairy-dashboard/internal/repository/sheets"
	"github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
)

const dateLayout = "2006-01-02"

// ErrNoReportStore is returned when evaluation history is not configured.
var ErrNoReportStore = errors.New("evaluation history not configured")

// ReportStore keeps the history of evaluation runs.
type ReportStore interface {
	SaveEvaluationReport(ctx context.Context, report models.EvaluationReport) error
	RecentEvaluationReports(ctx context.Context, limit int64) ([]models.EvaluationReport, error)
}

// Notifier delivers the digest to the field team.
type Notifier interface {
	SendDigest(ctx context.Context, body string) error
}

// Option customizes a Service.
type Option func(*Service)

// WithSheets enables pulling datasets from, and pushing actions to, a spreadsheet.
func WithSheets(sheets repo.Repository, ranges config.SheetsConfig) Option {
	return func(s *Service) {
		s.sheets = sheets
		s.ranges = ranges
	}
}

// WithReportStore enables storing each recorded evaluation.
func WithReportStore(store ReportStore) Option {
	return func(s *Service) { s.store = store }
}

// WithNotifier enables the field team digest.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithIDGenerator overrides uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service turns dashboard analyses into reports and pushes them to the
// configured channels. Every channel is optional.
type Service struct {
	dashboard *dashboard.Service
	sheets    repo.Repository
	ranges    config.SheetsConfig
	store     ReportStore
	notifier  Notifier
	newID     func() string
	logger    *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(dash *dashboard.Service, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{dashboard: dash, newID: uuid.NewString, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncFromSheets reads the configured dataset ranges and loads them into the
// dashboard. Kinds without a range are left as they are.
func (s *Service) SyncFromSheets(ctx context.Context) error {
	if s.sheets == nil {
		return errors.New("sheets source not configured")
	}

	ranges := map[models.DatasetKind]string{
		models.DatasetFarmers:    s.ranges.FarmersRange,
		models.DatasetCenters:    s.ranges.BMCsRange,
		models.DatasetFieldTeams: s.ranges.FieldTeamsRange,
	}

	var ds models.Datasets
	for _, kind := range models.DatasetKinds {
		sheetRange := ranges[kind]
		if sheetRange == "" {
			continue
		}

		values, err := s.sheets.ReadRange(ctx, sheetRange)
		if err != nil {
			return fmt.Errorf("load %s range: %w", kind, err)
		}
		raw := dataset.FromValues(values)
		if len(raw.Header) == 0 {
			s.logger.Debug("skip empty sheet range", zap.String("kind", string(kind)), zap.String("range", sheetRange))
			continue
		}

		table, err := dataset.Decode(kind, raw)
		if err != nil {
			return fmt.Errorf("decode %s range: %w", kind, err)
		}
		ds = ds.With(table)
	}

	s.dashboard.Replace(ds)
	s.logger.Info("datasets synced from sheets",
		zap.Bool("farmers", ds.Farmers != nil),
		zap.Bool("bmcs", ds.Centers != nil),
		zap.Bool("field_teams", ds.FieldTeams != nil))
	return nil
}

// NewEvaluationReport summarizes an analysis into a storable record.
func (s *Service) NewEvaluationReport(a dashboard.Analysis) models.EvaluationReport {
	failures := make(map[string][]string, len(models.KPINames))
	for _, name := range models.KPINames {
		failures[string(name)] = a.Result[name].CenterIDs()
	}

	return models.EvaluationReport{
		ID:          s.newID(),
		GeneratedAt: a.GeneratedAt,
		CenterRows:  a.CenterRows,
		FarmerRows:  a.FarmerRows,
		Failures:    failures,
		Actions:     a.Actions,
		AllPassing:  a.AllPassing(),
		CreatedAt:   time.Now().UTC(),
	}
}

// RecordEvaluation stores the analysis when a report store is configured.
func (s *Service) RecordEvaluation(ctx context.Context, a dashboard.Analysis) (models.EvaluationReport, error) {
	report := s.NewEvaluationReport(a)
	if s.store == nil {
		return report, nil
	}
	if err := s.store.SaveEvaluationReport(ctx, report); err != nil {
		return report, fmt.Errorf("save evaluation report: %w", err)
	}
	s.logger.Info("evaluation recorded", zap.String("report_id", report.ID), zap.Bool("all_passing", report.AllPassing))
	return report, nil
}

// RecentEvaluations lists the latest recorded runs, newest first.
func (s *Service) RecentEvaluations(ctx context.Context, limit int64) ([]models.EvaluationReport, error) {
	if s.store == nil {
		return nil, ErrNoReportStore
	}
	reports, err := s.store.RecentEvaluationReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluation reports: %w", err)
	}
	return reports, nil
}

// SendDigest analyzes the current data, records the run, messages the field
// team and appends each action item to the actions sheet. Delivery failures on
// one channel do not stop the others.
func (s *Service) SendDigest(ctx context.Context) error {
	analysis, err := s.dashboard.Analyze()
	if err != nil {
		return err
	}

	report, recordErr := s.RecordEvaluation(ctx, analysis)

	var errs []error
	if recordErr != nil {
		errs = append(errs, recordErr)
	}

	if s.notifier != nil {
		if err := s.notifier.SendDigest(ctx, DigestText(analysis)); err != nil {
			errs = append(errs, fmt.Errorf("send digest: %w", err))
		}
	}

	if s.sheets != nil && s.ranges.ActionsRange != "" {
		day := analysis.GeneratedAt.Format(dateLayout)
		for _, item := range analysis.Actions {
			row := []interface{}{day, report.ID, item}
			if err := s.sheets.WriteRow(ctx, s.ranges.ActionsRange, row); err != nil {
				errs = append(errs, fmt.Errorf("append action: %w", err))
				break
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("digest completed", zap.String("report_id", report.ID), zap.Int("actions", len(analysis.Actions)))
	return nil
}
