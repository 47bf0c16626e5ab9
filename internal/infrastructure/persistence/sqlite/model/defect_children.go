package model

// Child rows keep their list order through the autoincrement rowid.

type DefectAction struct {
	RowID       uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	DefectID    string `gorm:"column:defect_id;type:text;not null;index:idx_defect_actions_defect"`
	ActionID    string `gorm:"column:action_id;type:text;not null"`
	Description string `gorm:"column:description;type:text;not null"`
	Required    bool   `gorm:"column:required;not null;default:0"`
	Completed   bool   `gorm:"column:completed;not null;default:0"`
}

func (DefectAction) TableName() string {
	return "defect_actions"
}

type DefectAttachment struct {
	RowID        uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	DefectID     string `gorm:"column:defect_id;type:text;not null;index:idx_defect_attachments_defect"`
	AttachmentID string `gorm:"column:attachment_id;type:text;not null"`
	Kind         string `gorm:"column:kind;type:text;not null"`
	Label        string `gorm:"column:label;type:text;not null;default:''"`
	Name         string `gorm:"column:name;type:text;not null;default:''"`
	URI          string `gorm:"column:uri;type:text;not null;default:''"`
}

func (DefectAttachment) TableName() string {
	return "defect_attachments"
}

type DefectComment struct {
	RowID      uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	DefectID   string `gorm:"column:defect_id;type:text;not null;index:idx_defect_comments_defect"`
	CommentID  string `gorm:"column:comment_id;type:text;not null"`
	AuthorID   string `gorm:"column:author_id;type:text;not null"`
	AuthorName string `gorm:"column:author_name;type:text;not null"`
	Body       string `gorm:"column:body;type:text;not null"`
	CreatedAt  string `gorm:"column:created_at;type:text;not null"`
}

func (DefectComment) TableName() string {
	return "defect_comments"
}

type DefectHistory struct {
	RowID     uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	DefectID  string `gorm:"column:defect_id;type:text;not null;index:idx_defect_history_defect"`
	EntryID   string `gorm:"column:entry_id;type:text;not null"`
	Kind      string `gorm:"column:kind;type:text;not null"`
	Summary   string `gorm:"column:summary;type:text;not null"`
	ActorID   string `gorm:"column:actor_id;type:text;not null"`
	ActorName string `gorm:"column:actor_name;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (DefectHistory) TableName() string {
	return "defect_history"
}
