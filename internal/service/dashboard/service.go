// Package dashboard holds the currently loaded datasets and runs the KPI
// analysis over them.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/dataset"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	"github.com/mamadbah2/dairy-dashboard/internal/repository/snapshot"
	"github.com/mamadbah2/dairy-dashboard/internal/service/kpi"
	"github.com/mamadbah2/dairy-dashboard/internal/service/recommend"
)

// Messages shown when there is nothing to analyze or nothing to act on.
const (
	MsgNeedCenterData = "Please upload the BMC Data to begin the analysis."
	MsgAllPassing     = "All BMCs are performing well across the defined KPIs based on current data!"
	MsgNoActions      = "No specific actionable insights or targets to display as all BMCs are performing well."
)

// ErrNoCenterData is returned by Analyze until BMC data has been loaded.
var ErrNoCenterData = errors.New("bmc data not loaded")

// Loader decodes uploaded files.
type Loader interface {
	Load(kind models.DatasetKind, filename string, content []byte) (models.Table, error)
}

// Analysis is one KPI evaluation together with its action items.
type Analysis struct {
	Result      models.KPIResult
	Actions     []string
	CenterRows  int
	FarmerRows  int
	GeneratedAt time.Time
}

// AllPassing reports whether no center failed any KPI.
func (a Analysis) AllPassing() bool {
	return a.Result.AllPassing()
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSnapshots enables persisting the loaded datasets.
func WithSnapshots(repo snapshot.Repository) Option {
	return func(s *Service) { s.snapshots = repo }
}

// Service is safe for concurrent use.
type Service struct {
	evaluator *kpi.Evaluator
	loader    Loader
	snapshots snapshot.Repository
	now       func() time.Time
	logger    *zap.Logger

	mu       sync.RWMutex
	datasets models.Datasets
}

// NewService wires the dashboard service.
func NewService(evaluator *kpi.Evaluator, loader Loader, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		evaluator: evaluator,
		loader:    loader,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload decodes content and makes it the current table of its kind.
func (s *Service) Upload(kind models.DatasetKind, filename string, content []byte) (models.Table, error) {
	table, err := s.loader.Load(kind, filename, content)
	if err != nil {
		return nil, fmt.Errorf("load %s upload %s: %w", kind, filename, err)
	}

	s.mu.Lock()
	s.datasets = s.datasets.With(table)
	s.mu.Unlock()

	s.logger.Info("dataset uploaded",
		zap.String("kind", string(kind)),
		zap.String("file", filename),
		zap.Int("rows", table.Len()))
	return table, nil
}

// Replace swaps in every non-nil table of ds.
func (s *Service) Replace(ds models.Datasets) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range models.DatasetKinds {
		if table := ds.Get(kind); table != nil {
			s.datasets = s.datasets.With(table)
		}
	}
}

// Datasets returns the tables currently loaded.
func (s *Service) Datasets() models.Datasets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets
}

// Preview returns the first n rows of a loaded dataset. ok is false when the
// dataset has not been loaded.
func (s *Service) Preview(kind models.DatasetKind, n int) (preview dataset.Table, ok bool) {
	table := s.Datasets().Get(kind)
	if table == nil {
		return dataset.Table{}, false
	}
	return dataset.Encode(table).Head(n), true
}

// Analyze evaluates the loaded BMC data.
func (s *Service) Analyze() (Analysis, error) {
	ds := s.Datasets()
	if ds.Centers == nil {
		return Analysis{}, ErrNoCenterData
	}

	result, err := s.evaluator.Evaluate(ds.Centers, ds.Farmers)
	if err != nil {
		return Analysis{}, fmt.Errorf("evaluate kpis: %w", err)
	}

	analysis := Analysis{
		Result:      result,
		Actions:     recommend.Generate(result),
		CenterRows:  ds.Centers.Len(),
		GeneratedAt: s.now().UTC(),
	}
	if ds.Farmers != nil {
		analysis.FarmerRows = ds.Farmers.Len()
	}

	s.logger.Debug("analysis complete",
		zap.Bool("all_passing", analysis.AllPassing()),
		zap.Int("actions", len(analysis.Actions)))
	return analysis, nil
}

// PersistSnapshot writes the loaded datasets. It is a no-op without a
// snapshot repository or when nothing is loaded.
func (s *Service) PersistSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	ds := s.Datasets()
	if ds.Farmers == nil && ds.Centers == nil && ds.FieldTeams == nil {
		s.logger.Debug("nothing loaded, skipping snapshot")
		return nil
	}
	if err := s.snapshots.Save(ctx, ds); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// RestoreSnapshot loads whatever the snapshot repository holds.
func (s *Service) RestoreSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	ds, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.Replace(ds)

	s.logger.Info("snapshot restored",
		zap.Bool("farmers", ds.Farmers != nil),
		zap.Bool("bmcs", ds.Centers != nil),
		zap.Bool("field_teams", ds.FieldTeams != nil))
	return nil
}
