package model

// Defect is the root row. Child collections live in their own tables
// keyed by defect_id and ordered by insertion.
type Defect struct {
	ID   string `gorm:"column:id;type:text;primaryKey"`
	Code string `gorm:"column:code;type:text;not null;uniqueIndex:idx_defects_code"`

	Title       string `gorm:"column:title;type:text;not null"`
	Description string `gorm:"column:description;type:text;not null"`

	SeverityModel string `gorm:"column:severity_model;type:text;not null"`
	Severity      string `gorm:"column:severity;type:text;not null;index:idx_defects_severity"`
	Unsafe        bool   `gorm:"column:unsafe;not null;default:0"`

	Status        string `gorm:"column:status;type:text;not null;index:idx_defects_status"`
	ReopenedCount int    `gorm:"column:reopened_count;not null;default:0"`

	PreviousOccurrenceID    *string `gorm:"column:previous_occurrence_id;type:text"`
	TargetRectificationDate *string `gorm:"column:target_rectification_date;type:text"`
	ComplianceTag           *string `gorm:"column:compliance_tag;type:text"`

	AssetID      *string `gorm:"column:asset_id;type:text;index:idx_defects_asset"`
	LocationID   *string `gorm:"column:location_id;type:text"`
	InspectionID *string `gorm:"column:inspection_id;type:text"`
	WorkOrderID  *string `gorm:"column:work_order_id;type:text"`
	SiteID       *string `gorm:"column:site_id;type:text;index:idx_defects_site"`

	AssigneeID   *string `gorm:"column:assignee_id;type:text"`
	AssigneeName *string `gorm:"column:assignee_name;type:text"`

	CreatedAt     string `gorm:"column:created_at;type:text;not null;index:idx_defects_created_at"`
	UpdatedAt     string `gorm:"column:updated_at;type:text;not null"`
	CreatedByID   string `gorm:"column:created_by_id;type:text;not null"`
	CreatedByName string `gorm:"column:created_by_name;type:text;not null"`
	UpdatedByID   string `gorm:"column:updated_by_id;type:text;not null"`
	UpdatedByName string `gorm:"column:updated_by_name;type:text;not null"`
}

func (Defect) TableName() string {
	return "defects"
}
