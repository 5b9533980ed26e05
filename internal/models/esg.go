package models

// ESGCompany is one rated company from the bulk-imported ESG dataset.
// A ticker maps to at most one company.
type ESGCompany struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrgPermID int64  `gorm:"column:orgperm_id;uniqueIndex" json:"orgperm_id"`
	Ticker    string `gorm:"column:ticker;index" json:"ticker"`
	Name      string `gorm:"column:name" json:"name"`
	ISIN      string `gorm:"column:isin" json:"isin"`
	SICCode   string `gorm:"column:siccode;index" json:"siccode"`
}

func (ESGCompany) TableName() string {
	return "ESGCompanies"
}

// ESGMetric is one metric value for one company and fiscal year. The
// dataset is write-once from cmd/importesg; the serving path treats it as
// immutable. At most one row exists per (company, year, fieldid).
type ESGMetric struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	CompanyID  uint    `gorm:"column:company_id;not null;uniqueIndex:idx_company_year_field;index" json:"-"`
	Year       int     `gorm:"column:year;not null;uniqueIndex:idx_company_year_field;index" json:"year"`
	FieldID    int     `gorm:"column:fieldid;not null;uniqueIndex:idx_company_year_field" json:"fieldid"`
	Hierarchy  string  `gorm:"column:hierarchy" json:"hierarchy"`
	Pillar     string  `gorm:"column:pillar;index" json:"pillar"`
	FieldName  string  `gorm:"column:fieldname;index" json:"fieldname"`
	Value      string  `gorm:"column:value;type:text" json:"value"`
	ValueScore float64 `gorm:"column:valuescore;index" json:"valuescore"`
}

func (ESGMetric) TableName() string {
	return "ESGMetrics"
}
