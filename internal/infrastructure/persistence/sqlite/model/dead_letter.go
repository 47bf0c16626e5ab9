package model

// DeadLetter captures terminal outbox failures for sync-health auditing.
type DeadLetter struct {
	ID       string `gorm:"column:id;type:text;primaryKey"`
	EntryID  string `gorm:"column:entry_id;type:text;not null"`
	Kind     string `gorm:"column:kind;type:text;not null"`
	DefectID string `gorm:"column:defect_id;type:text;not null"`
	Payload  string `gorm:"column:payload_json;type:text;not null"`
	Attempts int    `gorm:"column:attempts;not null;default:0"`
	Reason   string `gorm:"column:reason;type:text;not null"`
	FailedAt string `gorm:"column:failed_at;type:text;not null;index:idx_dead_letters_failed_at"`
}

func (DeadLetter) TableName() string {
	return "dead_letters"
}
