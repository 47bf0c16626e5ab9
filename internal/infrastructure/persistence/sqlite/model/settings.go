package model

// Settings is a singleton row (id = 1). The per-model unsafe severity
// sets are stored as JSON text.
type Settings struct {
	ID                  int    `gorm:"column:id;primaryKey"`
	DefaultModel        string `gorm:"column:default_model;type:text;not null"`
	UnsafeBasicJSON     string `gorm:"column:unsafe_basic_json;type:text;not null"`
	UnsafeGradedJSON    string `gorm:"column:unsafe_graded_json;type:text;not null"`
	BeforeAfterRequired bool   `gorm:"column:before_after_required;not null;default:0"`
	UpdatedAt           string `gorm:"column:updated_at;type:text;not null"`
}

func (Settings) TableName() string {
	return "settings"
}
