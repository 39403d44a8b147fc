package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	"github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
	"github.com/mamadbah2/dairy-dashboard/internal/service/kpi"
	"github.com/mamadbah2/dairy-dashboard/internal/service/loader"
)

type fakeSheets struct {
	ranges  map[string][][]interface{}
	written [][]interface{}
	readErr error
}

func (f *fakeSheets) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.ranges[sheetRange], nil
}

func (f *fakeSheets) WriteRow(_ context.Context, _ string, values []interface{}) error {
	f.written = append(f.written, values)
	return nil
}

type fakeStore struct {
	reports []models.EvaluationReport
	err     error
}

func (f *fakeStore) SaveEvaluationReport(_ context.Context, report models.EvaluationReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeStore) RecentEvaluationReports(_ context.Context, limit int64) ([]models.EvaluationReport, error) {
	out := make([]models.EvaluationReport, 0, len(f.reports))
	for i := len(f.reports) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, f.reports[i])
	}
	return out, nil
}

type fakeNotifier struct{ bodies []string }

func (f *fakeNotifier) SendDigest(_ context.Context, body string) error {
	f.bodies = append(f.bodies, body)
	return nil
}

var sheetRanges = config.SheetsConfig{
	FarmersRange:    "Farmers!A:I",
	BMCsRange:       "BMCs!A:N",
	FieldTeamsRange: "FieldTeams!A:I",
	ActionsRange:    "Actions!A:C",
}

func bmcValues() [][]interface{} {
	return [][]interface{}{
		{"BMC_ID", "BMC_Name", "District", "Animal_Welfare_Compliance_Score_BMC", "Women_Empowerment_Participation_Rate_BMC", "Date"},
		{"BMC004", "Junnar BMC", "Pune", "3.8", "40", "2025-07-15"},
		{"BMC003", "Daund BMC", "Pune", "4.2", "60", "2025-07-15"},
	}
}

func newDashboard() *dashboard.Service {
	clock := func() time.Time { return time.Date(2025, 7, 16, 6, 30, 0, 0, time.UTC) }
	return dashboard.NewService(kpi.NewEvaluator(kpi.DefaultThresholds(), nil), loader.NewCache(nil), nil, dashboard.WithClock(clock))
}

func TestSyncFromSheets(t *testing.T) {
	dash := newDashboard()
	sheets := &fakeSheets{ranges: map[string][][]interface{}{
		sheetRanges.BMCsRange: bmcValues(),
		sheetRanges.FarmersRange: {
			{"Farmer_ID", "Farmer_Name", "BMC_ID"},
			{"F001", "Rajesh Kumar", "BMC004"},
		},
	}}
	svc := NewService(dash, nil, WithSheets(sheets, sheetRanges))

	if err := svc.SyncFromSheets(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	ds := dash.Datasets()
	if ds.Centers == nil || ds.Centers.Len() != 2 {
		t.Fatalf("expected 2 BMC rows, got %+v", ds.Centers)
	}
	if ds.Farmers == nil || ds.Farmers.Len() != 1 {
		t.Fatalf("expected 1 farmer row, got %+v", ds.Farmers)
	}
	if ds.FieldTeams != nil {
		t.Fatal("expected an empty field team range to be skipped")
	}
}

func TestSyncFromSheetsErrors(t *testing.T) {
	if err := NewService(newDashboard(), nil).SyncFromSheets(context.Background()); err == nil {
		t.Fatal("expected an error without a sheets source")
	}

	boom := errors.New("quota exceeded")
	svc := NewService(newDashboard(), nil, WithSheets(&fakeSheets{readErr: boom}, sheetRanges))
	if err := svc.SyncFromSheets(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected the read error, got %v", err)
	}
}

func TestSendDigest(t *testing.T) {
	dash := newDashboard()
	sheets := &fakeSheets{ranges: map[string][][]interface{}{sheetRanges.BMCsRange: bmcValues()}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	svc := NewService(dash, nil,
		WithSheets(sheets, sheetRanges),
		WithReportStore(store),
		WithNotifier(notifier),
		WithIDGenerator(func() string { return "run-1" }))

	if err := svc.SyncFromSheets(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := svc.SendDigest(context.Background()); err != nil {
		t.Fatalf("digest: %v", err)
	}

	if len(store.reports) != 1 {
		t.Fatalf("expected one stored report, got %d", len(store.reports))
	}
	report := store.reports[0]
	if report.ID != "run-1" || report.AllPassing || report.CenterRows != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := report.Failures[string(models.KPIAnimalWelfare)]; len(got) != 1 || got[0] != "BMC004" {
		t.Fatalf("unexpected animal welfare failures %v", got)
	}
	if got := report.Failures[string(models.KPIQuality)]; got == nil || len(got) != 0 {
		t.Fatalf("expected an empty quality list, got %v", got)
	}

	recent, err := svc.RecentEvaluations(context.Background(), 5)
	if err != nil || len(recent) != 1 || recent[0].ID != "run-1" {
		t.Fatalf("unexpected recent evaluations %v, %v", recent, err)
	}

	if len(notifier.bodies) != 1 || !strings.HasPrefix(notifier.bodies[0], "Field team actions for 2025-07-16") {
		t.Fatalf("unexpected digest %v", notifier.bodies)
	}

	if len(sheets.written) != 2 {
		t.Fatalf("expected one sheet row per action, got %d", len(sheets.written))
	}
	if sheets.written[0][0] != "2025-07-16" || sheets.written[0][1] != "run-1" {
		t.Fatalf("unexpected action row %v", sheets.written[0])
	}
}

func TestRecentEvaluationsWithoutStore(t *testing.T) {
	if _, err := NewService(newDashboard(), nil).RecentEvaluations(context.Background(), 5); !errors.Is(err, ErrNoReportStore) {
		t.Fatalf("expected ErrNoReportStore, got %v", err)
	}
}

func TestSendDigestWithoutData(t *testing.T) {
	svc := NewService(newDashboard(), nil, WithNotifier(&fakeNotifier{}))
	if err := svc.SendDigest(context.Background()); !errors.Is(err, dashboard.ErrNoCenterData) {
		t.Fatalf("expected ErrNoCenterData, got %v", err)
	}
}

func TestSendDigestReportsStoreFailure(t *testing.T) {
	dash := newDashboard()
	sheets := &fakeSheets{ranges: map[string][][]interface{}{sheetRanges.BMCsRange: bmcValues()}}
	notifier := &fakeNotifier{}
	boom := errors.New("mongo down")

	svc := NewService(dash, nil,
		WithSheets(sheets, sheetRanges),
		WithReportStore(&fakeStore{err: boom}),
		WithNotifier(notifier))
	if err := svc.SyncFromSheets(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	err := svc.SendDigest(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected the store error, got %v", err)
	}
	if len(notifier.bodies) != 1 {
		t.Fatal("expected the digest to be sent despite the store failure")
	}
}

func TestRenderMarkdown(t *testing.T) {
	dash := newDashboard()
	sheets := &fakeSheets{ranges: map[string][][]interface{}{sheetRanges.BMCsRange: bmcValues()}}
	svc := NewService(dash, nil, WithSheets(sheets, sheetRanges))
	if err := svc.SyncFromSheets(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	analysis, err := dash.Analyze()
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	md := RenderMarkdown(analysis)

	for _, want := range []string{
		"# " + ReportTitle,
		"#### Animal Welfare KPI Concerns",
		"| BMC004 | Junnar BMC | Pune | Low Animal Welfare Score |",
		"#### Women Empowerment KPI Concerns",
		"- BMC BMC004 (District: Pune) has **Low Women Empowerment Participation** (40.00%).",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "Quality KPI Concerns") {
		t.Error("passing KPIs must not get a section")
	}
}

func TestRenderMarkdownAllPassing(t *testing.T) {
	analysis := dashboard.Analysis{Result: models.NewKPIResult(), Actions: []string{}}

	md := RenderMarkdown(analysis)
	if !strings.Contains(md, dashboard.MsgAllPassing) || !strings.Contains(md, dashboard.MsgNoActions) {
		t.Fatalf("expected the all-passing messages, got\n%s", md)
	}
	if !strings.HasSuffix(DigestText(analysis), dashboard.MsgAllPassing) {
		t.Fatal("expected the digest to carry the all-passing message")
	}
}
