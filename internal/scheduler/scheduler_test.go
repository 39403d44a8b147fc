package scheduler

import (
	"context"
	"os"
	"testing"

	"github.com/robfig/cron/v3"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	"github.com/mamadbah2/dairy-dashboard/internal/repository/snapshot"
	"github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
	"github.com/mamadbah2/dairy-dashboard/internal/service/kpi"
	"github.com/mamadbah2/dairy-dashboard/internal/service/loader"
	"github.com/mamadbah2/dairy-dashboard/internal/service/reporting"
)

type countingNotifier struct{ calls int }

func (n *countingNotifier) SendDigest(context.Context, string) error {
	n.calls++
	return nil
}

func testConfig() config.Config {
	return config.Config{Reporting: config.ReportingConfig{
		SnapshotSchedule: "0 * * * *",
		DigestSchedule:   "0 7 * * 1",
		Timezone:         "UTC",
	}}
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Reporting.Timezone = "Mars/Olympus_Mons"

	if _, err := NewScheduler(cfg, nil, nil, nil); err == nil {
		t.Fatal("expected an error for an unknown timezone")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Reporting.DigestSchedule = "every monday"

	s, err := NewScheduler(cfg, nil, nil, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected an error for an invalid cron expression")
	}
}

func TestStartAndStop(t *testing.T) {
	s, err := NewScheduler(testConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if n := len(s.cron.Entries()); n != 2 {
		t.Fatalf("expected 2 jobs, got %d", n)
	}
	s.Stop()
}

func TestJobs(t *testing.T) {
	repo, err := snapshot.NewParquetRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	dash := dashboard.NewService(kpi.NewEvaluator(kpi.DefaultThresholds(), nil), loader.NewCache(nil), nil, dashboard.WithSnapshots(repo))
	notifier := &countingNotifier{}
	rep := reporting.NewService(dash, nil, reporting.WithNotifier(notifier))

	s, err := NewScheduler(testConfig(), dash, rep, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	s.RunDigest()
	if notifier.calls != 0 {
		t.Fatal("expected no digest without BMC data")
	}

	csv := "BMC_ID,Women_Empowerment_Participation_Rate_BMC\nBMC001,40\n"
	if _, err := dash.Upload(models.DatasetCenters, "bmcs.csv", []byte(csv)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	s.RunSnapshot()
	if _, err := os.Stat(repo.Path(models.DatasetCenters)); err != nil {
		t.Fatalf("expected a bmc snapshot file: %v", err)
	}

	s.RunDigest()
	if notifier.calls != 1 {
		t.Fatalf("expected one digest, got %d", notifier.calls)
	}
}

func TestJobPanicIsRecovered(t *testing.T) {
	s, err := NewScheduler(testConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	ran := false
	job := s.chain.Then(cron.FuncJob(func() {
		ran = true
		panic("Cannot create a Decimal from +Inf")
	}))

	job.Run()
	if !ran {
		t.Fatal("expected the job to run")
	}
}
