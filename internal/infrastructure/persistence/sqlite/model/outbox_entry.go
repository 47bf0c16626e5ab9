package model

type OutboxEntry struct {
	ID            string `gorm:"column:id;type:text;primaryKey"`
	Kind          string `gorm:"column:kind;type:text;not null"`
	DefectID      string `gorm:"column:defect_id;type:text;not null"`
	Payload       string `gorm:"column:payload_json;type:text;not null"`
	Attempts      int    `gorm:"column:attempts;not null;default:0"`
	NextAttemptAt string `gorm:"column:next_attempt_at;type:text;not null"`
	CreatedAt     string `gorm:"column:created_at;type:text;not null;index:idx_outbox_created_at"`
}

func (OutboxEntry) TableName() string {
	return "outbox_entries"
}
