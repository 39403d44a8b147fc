package models

// FarmerRecord is one row of the farmer table.
type FarmerRecord struct {
	FarmerID                  string   `csv:"Farmer_ID" parquet:"Farmer_ID,optional" json:"Farmer_ID" validate:"required"`
	FarmerName                string   `csv:"Farmer_Name" parquet:"Farmer_Name,optional" json:"Farmer_Name,omitempty"`
	Village                   string   `csv:"Village" parquet:"Village,optional" json:"Village,omitempty"`
	District                  string   `csv:"District" parquet:"District,optional" json:"District,omitempty"`
	BMCID                     string   `csv:"BMC_ID" parquet:"BMC_ID,optional" json:"BMC_ID,omitempty"`
	MilkProductionLitersDaily *float64 `csv:"Milk_Production_Liters_Daily" parquet:"Milk_Production_Liters_Daily,optional" json:"Milk_Production_Liters_Daily,omitempty"`
	CattleCount               *int64   `csv:"Cattle_Count" parquet:"Cattle_Count,optional" json:"Cattle_Count,omitempty"`
	WomenEmpowermentFlag      string   `csv:"Women_Empowerment_Flag" parquet:"Women_Empowerment_Flag,optional" json:"Women_Empowerment_Flag,omitempty"`
	AnimalWelfareScore        *float64 `csv:"Animal_Welfare_Score" parquet:"Animal_Welfare_Score,optional" json:"Animal_Welfare_Score,omitempty"`
}

// FarmerTable holds decoded farmer rows and the columns they came with.
type FarmerTable struct {
	Cols Columns
	Rows []FarmerRecord
}

func (t *FarmerTable) Kind() DatasetKind { return DatasetFarmers }
func (t *FarmerTable) Len() int          { return len(t.Rows) }
func (t *FarmerTable) Columns() Columns  { return t.Cols }
