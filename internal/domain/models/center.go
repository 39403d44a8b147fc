package models

// CenterSnapshot is one dated observation of a bulk milk chilling center.
// Date is kept as the source text; the KPI evaluation parses it.
type CenterSnapshot struct {
	BMCID                       string   `csv:"BMC_ID" parquet:"BMC_ID,optional" json:"BMC_ID" validate:"required"`
	BMCName                     string   `csv:"BMC_Name" parquet:"BMC_Name,optional" json:"BMC_Name,omitempty"`
	District                    string   `csv:"District" parquet:"District,optional" json:"District,omitempty"`
	CapacityLiters              *float64 `csv:"Capacity_Liters" parquet:"Capacity_Liters,optional" json:"Capacity_Liters,omitempty"`
	DailyCollectionLiters       *float64 `csv:"Daily_Collection_Liters" parquet:"Daily_Collection_Liters,optional" json:"Daily_Collection_Liters,omitempty"`
	QualityFatPercentage        *float64 `csv:"Quality_Fat_Percentage" parquet:"Quality_Fat_Percentage,optional" json:"Quality_Fat_Percentage,omitempty"`
	QualitySNFPercentage        *float64 `csv:"Quality_SNF_Percentage" parquet:"Quality_SNF_Percentage,optional" json:"Quality_SNF_Percentage,omitempty"`
	QualityAdulterationFlag     string   `csv:"Quality_Adulteration_Flag" parquet:"Quality_Adulteration_Flag,optional" json:"Quality_Adulteration_Flag,omitempty"`
	QualityTargetFat            *float64 `csv:"Quality_Target_Fat" parquet:"Quality_Target_Fat,optional" json:"Quality_Target_Fat,omitempty"`
	QualityTargetSNF            *float64 `csv:"Quality_Target_SNF" parquet:"Quality_Target_SNF,optional" json:"Quality_Target_SNF,omitempty"`
	UtilizationTargetPercentage *float64 `csv:"Utilization_Target_Percentage" parquet:"Utilization_Target_Percentage,optional" json:"Utilization_Target_Percentage,omitempty"`
	AnimalWelfareComplianceBMC  *float64 `csv:"Animal_Welfare_Compliance_Score_BMC" parquet:"Animal_Welfare_Compliance_Score_BMC,optional" json:"Animal_Welfare_Compliance_Score_BMC,omitempty"`
	WomenEmpowermentRateBMC     *float64 `csv:"Women_Empowerment_Participation_Rate_BMC" parquet:"Women_Empowerment_Participation_Rate_BMC,optional" json:"Women_Empowerment_Participation_Rate_BMC,omitempty"`
	Date                        string   `csv:"Date" parquet:"Date,optional" json:"Date,omitempty"`
}

// CenterTable holds decoded BMC rows and the columns they came with.
type CenterTable struct {
	Cols Columns
	Rows []CenterSnapshot
}

func (t *CenterTable) Kind() DatasetKind { return DatasetCenters }
func (t *CenterTable) Len() int          { return len(t.Rows) }
func (t *CenterTable) Columns() Columns  { return t.Cols }
