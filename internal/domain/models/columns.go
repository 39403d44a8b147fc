package models

import "encoding/json"

// Canonical column names for the farmer table.
const (
	ColFarmerID                  = "Farmer_ID"
	ColFarmerName                = "Farmer_Name"
	ColVillage                   = "Village"
	ColDistrict                  = "District"
	ColBMCID                     = "BMC_ID"
	ColMilkProductionLitersDaily = "Milk_Production_Liters_Daily"
	ColCattleCount               = "Cattle_Count"
	ColWomenEmpowermentFlag      = "Women_Empowerment_Flag"
	ColAnimalWelfareScore        = "Animal_Welfare_Score"
)

// Canonical column names for the collection center (BMC) table.
const (
	ColBMCName                    = "BMC_Name"
	ColCapacityLiters             = "Capacity_Liters"
	ColDailyCollectionLiters      = "Daily_Collection_Liters"
	ColQualityFatPercentage       = "Quality_Fat_Percentage"
	ColQualitySNFPercentage       = "Quality_SNF_Percentage"
	ColQualityAdulterationFlag    = "Quality_Adulteration_Flag"
	ColQualityTargetFat           = "Quality_Target_Fat"
	ColQualityTargetSNF           = "Quality_Target_SNF"
	ColUtilizationTargetPct       = "Utilization_Target_Percentage"
	ColAnimalWelfareComplianceBMC = "Animal_Welfare_Compliance_Score_BMC"
	ColWomenEmpowermentRateBMC    = "Women_Empowerment_Participation_Rate_BMC"
	ColDate                       = "Date"
)

// Canonical column names for the field team training table.
const (
	ColTeamID               = "Team_ID"
	ColTeamLeader           = "Team_Leader"
	ColDistrictCoverage     = "District_Coverage"
	ColMaxBMCCoverage       = "Max_BMC_Coverage"
	ColTrainingType         = "Training_Type"
	ColTrainingDate         = "Training_Date"
	ColBMCIDTrained         = "BMC_ID_Trained"
	ColFarmerIDTrained      = "Farmer_ID_Trained"
	ColTrainingOutcomeScore = "Training_Outcome_Score"
)

// Columns added to failing rows by the KPI evaluation.
const (
	ColUtilizationCalculated = "Utilization_Percentage_Calculated"
	ColReason                = "Reason"
)

// FarmerColumns lists the farmer table columns in canonical order.
var FarmerColumns = []string{
	ColFarmerID, ColFarmerName, ColVillage, ColDistrict, ColBMCID,
	ColMilkProductionLitersDaily, ColCattleCount, ColWomenEmpowermentFlag, ColAnimalWelfareScore,
}

// CenterColumns lists the BMC table columns in canonical order.
var CenterColumns = []string{
	ColBMCID, ColBMCName, ColDistrict, ColCapacityLiters, ColDailyCollectionLiters,
	ColQualityFatPercentage, ColQualitySNFPercentage, ColQualityAdulterationFlag,
	ColQualityTargetFat, ColQualityTargetSNF, ColUtilizationTargetPct,
	ColAnimalWelfareComplianceBMC, ColWomenEmpowermentRateBMC, ColDate,
}

// TrainingColumns lists the field team table columns in canonical order.
var TrainingColumns = []string{
	ColTeamID, ColTeamLeader, ColDistrictCoverage, ColMaxBMCCoverage, ColTrainingType,
	ColTrainingDate, ColBMCIDTrained, ColFarmerIDTrained, ColTrainingOutcomeScore,
}

// Columns is the ordered set of canonical columns present in a source table.
type Columns struct {
	names []string
	set   map[string]struct{}
}

// NewColumns builds a column set preserving the given order and dropping duplicates.
func NewColumns(names ...string) Columns {
	c := Columns{set: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if _, ok := c.set[name]; ok {
			continue
		}
		c.set[name] = struct{}{}
		c.names = append(c.names, name)
	}
	return c
}

// Has reports whether the column was present in the source table.
func (c Columns) Has(name string) bool {
	_, ok := c.set[name]
	return ok
}

// Names returns a copy of the column names in order.
func (c Columns) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c Columns) Len() int { return len(c.names) }

func (c Columns) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Names())
}
