// Package recommend renders field team action items for failing centers.
package recommend

import (
	"fmt"
	"strconv"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

// Placeholder is substituted for any missing value.
const Placeholder = "N/A"

// DefaultUtilizationTarget is used when a center has no utilization target.
const DefaultUtilizationTarget = "80"

// Generate walks the failure sets in KPI order and returns one markdown
// formatted action item per failing row.
func Generate(result models.KPIResult) []string {
	items := make([]string, 0)
	for _, kpi := range models.KPINames {
		for _, f := range result[kpi] {
			if item, ok := render(kpi, f); ok {
				items = append(items, item)
			}
		}
	}
	return items
}

func render(kpi models.KPIName, f models.Failure) (string, bool) {
	c := f.Center
	head := fmt.Sprintf("BMC %s (District: %s)", textOrNA(c.BMCID), textOrNA(c.District))

	switch kpi {
	case models.KPIQuality:
		return fmt.Sprintf("%s has **Low Quality** (Fat: %s%%, SNF: %s%%, Adulteration: %s). "+
			"**Action:** Field team to visit for quality checks, farmer awareness on clean milk production. "+
			"**Target:** Increase Fat to >3.8%% and SNF to >8.0%% within 1 month.",
			head, number(c.QualityFatPercentage), number(c.QualitySNFPercentage), textOrNA(c.QualityAdulterationFlag)), true

	case models.KPIUtilization:
		target := DefaultUtilizationTarget
		if c.UtilizationTargetPercentage != nil {
			target = number(c.UtilizationTargetPercentage)
		}
		return fmt.Sprintf("%s has **Low Utilization** (%s%%). "+
			"**Action:** Identify reasons for low collection, farmer mobilization, improve logistics. "+
			"**Target:** Increase utilization to %s%% (or +5%% points) within 2 months.",
			head, twoDecimals(f.UtilizationPercentage), target), true

	case models.KPIAnimalWelfare:
		return fmt.Sprintf("%s has **Low Animal Welfare Score** (%s). "+
			"**Action:** Conduct farmer training on animal health, hygiene, and shelter. "+
			"**Target:** Improve average animal welfare score to >4.5 within 3 months.",
			head, number(c.AnimalWelfareComplianceBMC)), true

	case models.KPIWomenEmpowerment:
		return fmt.Sprintf("%s has **Low Women Empowerment Participation** (%s%%). "+
			"**Action:** Organize women's self-help group meetings, promote female farmer participation. "+
			"**Target:** Increase women empowerment participation rate to >65%% within 3 months.",
			head, twoDecimals(c.WomenEmpowermentRateBMC)), true
	}

	return "", false
}

func textOrNA(v string) string {
	if v == "" {
		return Placeholder
	}
	return v
}

func number(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// twoDecimals only formats real numbers; a missing value stays a placeholder.
func twoDecimals(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
