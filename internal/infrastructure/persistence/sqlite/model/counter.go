package model

type Counter struct {
	Name      string `gorm:"column:name;type:text;primaryKey"`
	Value     uint64 `gorm:"column:value;not null;default:0"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (Counter) TableName() string {
	return "counters"
}
