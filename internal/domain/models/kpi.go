package models

import "strings"

// KPIName names one of the four fixed KPI categories.
type KPIName string

const (
	KPIQuality          KPIName = "Quality"
	KPIUtilization      KPIName = "Utilization"
	KPIAnimalWelfare    KPIName = "Animal_Welfare"
	KPIWomenEmpowerment KPIName = "Women_Empowerment"
)

// KPINames is the fixed iteration order for results and recommendations.
var KPINames = []KPIName{KPIQuality, KPIUtilization, KPIAnimalWelfare, KPIWomenEmpowerment}

// Title renders "Animal_Welfare" as "Animal Welfare".
func (k KPIName) Title() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// Failure is a center row that violates a KPI rule.
type Failure struct {
	Center CenterSnapshot `json:"center"`
	Reason string         `json:"Reason"`
	// UtilizationPercentage is only set for the Utilization KPI, and stays nil
	// when the center capacity is zero or negative.
	UtilizationPercentage *float64 `json:"Utilization_Percentage_Calculated,omitempty"`
	CapacityInvalid       bool     `json:"capacity_invalid,omitempty"`
}

// FailureSet is the ordered list of failing rows for one KPI.
type FailureSet []Failure

// KPIResult maps every KPI name to its failure set.
type KPIResult map[KPIName]FailureSet

// NewKPIResult returns a result with all four KPI names mapped to empty sets.
func NewKPIResult() KPIResult {
	result := make(KPIResult, len(KPINames))
	for _, name := range KPINames {
		result[name] = FailureSet{}
	}
	return result
}

// AllPassing reports whether no KPI has a failing center.
func (r KPIResult) AllPassing() bool {
	for _, set := range r {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

// CenterIDs lists the BMC_IDs of a failure set in order.
func (s FailureSet) CenterIDs() []string {
	ids := make([]string, 0, len(s))
	for _, f := range s {
		ids = append(ids, f.Center.BMCID)
	}
	return ids
}
