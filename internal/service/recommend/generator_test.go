package recommend

import (
	"strings"
	"testing"

	"github.com/mamadbah2/dairy-dashboard/internal/dataset/sample"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	"github.com/mamadbah2/dairy-dashboard/internal/service/kpi"
)

func ptr(v float64) *float64 { return &v }

func TestGenerateEmptyResult(t *testing.T) {
	items := Generate(models.NewKPIResult())
	if items == nil {
		t.Fatal("expected a non-nil slice")
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %v", items)
	}

	if got := Generate(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected an empty slice for a nil result, got %v", got)
	}
}

func TestGenerateQualityTemplate(t *testing.T) {
	result := models.NewKPIResult()
	result[models.KPIQuality] = models.FailureSet{{
		Center: models.CenterSnapshot{
			BMCID:                   "BMC002",
			District:                "Pune",
			QualityFatPercentage:    ptr(3.2),
			QualitySNFPercentage:    ptr(7.8),
			QualityAdulterationFlag: "Yes",
		},
		Reason: kpi.ReasonQuality,
	}}

	want := "BMC BMC002 (District: Pune) has **Low Quality** (Fat: 3.2%, SNF: 7.8%, Adulteration: Yes). " +
		"**Action:** Field team to visit for quality checks, farmer awareness on clean milk production. " +
		"**Target:** Increase Fat to >3.8% and SNF to >8.0% within 1 month."

	items := Generate(result)
	if len(items) != 1 || items[0] != want {
		t.Fatalf("unexpected items:\n%q\nwant\n%q", items, want)
	}
}

func TestGenerateUtilizationTemplate(t *testing.T) {
	result := models.NewKPIResult()
	result[models.KPIUtilization] = models.FailureSet{{
		Center: models.CenterSnapshot{
			BMCID:                       "BMC009",
			District:                    "Satara",
			UtilizationTargetPercentage: ptr(85),
		},
		Reason:                kpi.ReasonUtilization,
		UtilizationPercentage: ptr(65.0),
	}}

	want := "BMC BMC009 (District: Satara) has **Low Utilization** (65.00%). " +
		"**Action:** Identify reasons for low collection, farmer mobilization, improve logistics. " +
		"**Target:** Increase utilization to 85% (or +5% points) within 2 months."

	items := Generate(result)
	if len(items) != 1 || items[0] != want {
		t.Fatalf("unexpected items:\n%q\nwant\n%q", items, want)
	}
}

func TestGenerateUtilizationDefaults(t *testing.T) {
	result := models.NewKPIResult()
	result[models.KPIUtilization] = models.FailureSet{{
		Center:          models.CenterSnapshot{BMCID: "BMC010"},
		Reason:          kpi.ReasonUtilization,
		CapacityInvalid: true,
	}}

	items := Generate(result)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	if !strings.Contains(items[0], "(District: N/A)") {
		t.Errorf("expected district placeholder in %q", items[0])
	}
	if !strings.Contains(items[0], "**Low Utilization** (N/A%)") {
		t.Errorf("expected percentage placeholder in %q", items[0])
	}
	if !strings.Contains(items[0], "Increase utilization to 80% (or +5% points)") {
		t.Errorf("expected default target in %q", items[0])
	}
}

func TestGenerateAnimalWelfareAndWomenTemplates(t *testing.T) {
	center := models.CenterSnapshot{
		BMCID:                      "BMC004",
		District:                   "Pune",
		AnimalWelfareComplianceBMC: ptr(3.8),
		WomenEmpowermentRateBMC:    ptr(40),
	}
	result := models.NewKPIResult()
	result[models.KPIAnimalWelfare] = models.FailureSet{{Center: center, Reason: kpi.ReasonAnimalWelfare}}
	result[models.KPIWomenEmpowerment] = models.FailureSet{{Center: center, Reason: kpi.ReasonWomenEmpowerment}}

	want := []string{
		"BMC BMC004 (District: Pune) has **Low Animal Welfare Score** (3.8). " +
			"**Action:** Conduct farmer training on animal health, hygiene, and shelter. " +
			"**Target:** Improve average animal welfare score to >4.5 within 3 months.",
		"BMC BMC004 (District: Pune) has **Low Women Empowerment Participation** (40.00%). " +
			"**Action:** Organize women's self-help group meetings, promote female farmer participation. " +
			"**Target:** Increase women empowerment participation rate to >65% within 3 months.",
	}

	items := Generate(result)
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d: %v", len(want), len(items), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d:\n%q\nwant\n%q", i, items[i], want[i])
		}
	}
}

func TestGenerateMissingWomenRateUsesPlaceholder(t *testing.T) {
	result := models.NewKPIResult()
	result[models.KPIWomenEmpowerment] = models.FailureSet{{
		Center: models.CenterSnapshot{BMCID: "BMC011", District: "Nashik"},
		Reason: kpi.ReasonWomenEmpowerment,
	}}

	items := Generate(result)
	if len(items) != 1 || !strings.Contains(items[0], "(N/A%)") {
		t.Fatalf("expected placeholder rate, got %v", items)
	}
}

func TestGenerateFollowsKPIOrder(t *testing.T) {
	ds, err := sample.Datasets()
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	result, err := kpi.Evaluate(ds.Centers, ds.Farmers)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	items := Generate(result)

	total := 0
	for _, name := range models.KPINames {
		total += len(result[name])
	}
	if len(items) != total {
		t.Fatalf("expected %d items, got %d", total, len(items))
	}

	markers := []string{
		"**Low Quality**",
		"**Low Utilization**",
		"**Low Animal Welfare Score**",
		"**Low Women Empowerment Participation**",
	}
	stage := 0
	for _, item := range items {
		for stage < len(markers) && !strings.Contains(item, markers[stage]) {
			stage++
		}
		if stage == len(markers) {
			t.Fatalf("item out of KPI order: %q", item)
		}
	}

	if !strings.Contains(items[2], "BMC BMC002 (District: Pune) has **Low Utilization** (66.67%)") {
		t.Errorf("expected BMC002 utilization item third, got %q", items[2])
	}
}
