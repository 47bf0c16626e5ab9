package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	"faultline/internal/infrastructure/persistence/sqlite/model"
	"faultline/internal/ports"
)

// DefectRepository persists whole defect records: the root row plus the
// ordered child tables. Save is a full-record rewrite because the store
// offers no partial-document update primitive.
type DefectRepository struct {
	db *gorm.DB
}

var _ ports.DefectRepository = (*DefectRepository)(nil)

func NewDefectRepository(db *gorm.DB) *DefectRepository {
	return &DefectRepository{db: db}
}

func (r *DefectRepository) Create(ctx context.Context, d defect.Defect) error {
	if ports.TxFromContext(ctx) != nil {
		db, err := dbFromContext(ctx, r.db)
		if err != nil {
			return err
		}

		row := rootToModel(d)
		if err := db.Create(&row).Error; err != nil {
			return errs.Wrap(err, "insert defect")
		}
		return insertChildren(db, d)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.Create(ports.WithTxContext(ctx, tx), d)
	})
}

func (r *DefectRepository) Save(ctx context.Context, d defect.Defect) error {
	if ports.TxFromContext(ctx) != nil {
		db, err := dbFromContext(ctx, r.db)
		if err != nil {
			return err
		}

		row := rootToModel(d)
		if err := db.Save(&row).Error; err != nil {
			return errs.Wrap(err, "save defect")
		}
		if err := deleteChildren(db, d.ID); err != nil {
			return err
		}
		return insertChildren(db, d)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.Save(ports.WithTxContext(ctx, tx), d)
	})
}

func (r *DefectRepository) Get(ctx context.Context, id string) (defect.Defect, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return defect.Defect{}, err
	}

	var row model.Defect
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defect.Defect{}, defect.ErrNotFound
		}
		return defect.Defect{}, errs.Wrap(err, "query defect")
	}
	return r.loadRecord(db, row)
}

func (r *DefectRepository) GetByCode(ctx context.Context, code string) (defect.Defect, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return defect.Defect{}, err
	}

	var row model.Defect
	if err := db.Where("code = ?", code).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defect.Defect{}, defect.ErrNotFound
		}
		return defect.Defect{}, errs.Wrap(err, "query defect by code")
	}
	return r.loadRecord(db, row)
}

func (r *DefectRepository) List(ctx context.Context) ([]defect.Defect, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Defect
	if err := db.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query defects")
	}
	if len(rows) == 0 {
		return []defect.Defect{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	actions, attachments, comments, history, err := loadChildrenBulk(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]defect.Defect, 0, len(rows))
	for _, row := range rows {
		out = append(out, assembleRecord(row, actions[row.ID], attachments[row.ID], comments[row.ID], history[row.ID]))
	}
	return out, nil
}

func (r *DefectRepository) Delete(ctx context.Context, id string) error {
	if ports.TxFromContext(ctx) != nil {
		db, err := dbFromContext(ctx, r.db)
		if err != nil {
			return err
		}

		if err := deleteChildren(db, id); err != nil {
			return err
		}

		result := db.Where("id = ?", id).Delete(&model.Defect{})
		if result.Error != nil {
			return errs.Wrap(result.Error, "delete defect")
		}
		if result.RowsAffected == 0 {
			return defect.ErrNotFound
		}
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.Delete(ports.WithTxContext(ctx, tx), id)
	})
}

func (r *DefectRepository) loadRecord(db *gorm.DB, row model.Defect) (defect.Defect, error) {
	actions, attachments, comments, history, err := loadChildrenBulk(db, []string{row.ID})
	if err != nil {
		return defect.Defect{}, err
	}
	return assembleRecord(row, actions[row.ID], attachments[row.ID], comments[row.ID], history[row.ID]), nil
}

func insertChildren(db *gorm.DB, d defect.Defect) error {
	for _, action := range d.Actions {
		row := model.DefectAction{
			DefectID:    d.ID,
			ActionID:    action.ID,
			Description: action.Description,
			Required:    action.Required,
			Completed:   action.Completed,
		}
		if err := db.Create(&row).Error; err != nil {
			return errs.Wrap(err, "insert defect action")
		}
	}

	for _, att := range d.Attachments {
		row := model.DefectAttachment{
			DefectID:     d.ID,
			AttachmentID: att.ID,
			Kind:         string(att.Kind),
			Label:        att.Label,
			Name:         att.Name,
			URI:          att.URI,
		}
		if err := db.Create(&row).Error; err != nil {
			return errs.Wrap(err, "insert defect attachment")
		}
	}

	for _, comment := range d.Comments {
		row := model.DefectComment{
			DefectID:   d.ID,
			CommentID:  comment.ID,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			return errs.Wrap(err, "insert defect comment")
		}
	}

	for _, entry := range d.History {
		row := model.DefectHistory{
			DefectID:  d.ID,
			EntryID:   entry.ID,
			Kind:      string(entry.Kind),
			Summary:   entry.Summary,
			ActorID:   entry.ActorID,
			ActorName: entry.ActorName,
			CreatedAt: entry.CreatedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			return errs.Wrap(err, "insert defect history entry")
		}
	}

	return nil
}

func deleteChildren(db *gorm.DB, defectID string) error {
	if err := db.Where("defect_id = ?", defectID).Delete(&model.DefectAction{}).Error; err != nil {
		return errs.Wrap(err, "delete defect actions")
	}
	if err := db.Where("defect_id = ?", defectID).Delete(&model.DefectAttachment{}).Error; err != nil {
		return errs.Wrap(err, "delete defect attachments")
	}
	if err := db.Where("defect_id = ?", defectID).Delete(&model.DefectComment{}).Error; err != nil {
		return errs.Wrap(err, "delete defect comments")
	}
	if err := db.Where("defect_id = ?", defectID).Delete(&model.DefectHistory{}).Error; err != nil {
		return errs.Wrap(err, "delete defect history")
	}
	return nil
}

func loadChildrenBulk(db *gorm.DB, ids []string) (
	map[string][]defect.ActionItem,
	map[string][]defect.Attachment,
	map[string][]defect.Comment,
	map[string][]defect.HistoryEntry,
	error,
) {
	actions := make(map[string][]defect.ActionItem)
	attachments := make(map[string][]defect.Attachment)
	comments := make(map[string][]defect.Comment)
	history := make(map[string][]defect.HistoryEntry)

	var actionRows []model.DefectAction
	if err := db.Where("defect_id IN ?", ids).Order("row_id asc").Find(&actionRows).Error; err != nil {
		return nil, nil, nil, nil, errs.Wrap(err, "query defect actions")
	}
	for _, row := range actionRows {
		actions[row.DefectID] = append(actions[row.DefectID], defect.ActionItem{
			ID:          row.ActionID,
			Description: row.Description,
			Required:    row.Required,
			Completed:   row.Completed,
		})
	}

	var attachmentRows []model.DefectAttachment
	if err := db.Where("defect_id IN ?", ids).Order("row_id asc").Find(&attachmentRows).Error; err != nil {
		return nil, nil, nil, nil, errs.Wrap(err, "query defect attachments")
	}
	for _, row := range attachmentRows {
		attachments[row.DefectID] = append(attachments[row.DefectID], defect.Attachment{
			ID:    row.AttachmentID,
			Kind:  defect.AttachmentKind(row.Kind),
			Label: row.Label,
			Name:  row.Name,
			URI:   row.URI,
		})
	}

	var commentRows []model.DefectComment
	if err := db.Where("defect_id IN ?", ids).Order("row_id asc").Find(&commentRows).Error; err != nil {
		return nil, nil, nil, nil, errs.Wrap(err, "query defect comments")
	}
	for _, row := range commentRows {
		comments[row.DefectID] = append(comments[row.DefectID], defect.Comment{
			ID:         row.CommentID,
			AuthorID:   row.AuthorID,
			AuthorName: row.AuthorName,
			Body:       row.Body,
			CreatedAt:  row.CreatedAt,
		})
	}

	var historyRows []model.DefectHistory
	if err := db.Where("defect_id IN ?", ids).Order("row_id asc").Find(&historyRows).Error; err != nil {
		return nil, nil, nil, nil, errs.Wrap(err, "query defect history")
	}
	for _, row := range historyRows {
		history[row.DefectID] = append(history[row.DefectID], defect.HistoryEntry{
			ID:        row.EntryID,
			Kind:      defect.HistoryKind(row.Kind),
			Summary:   row.Summary,
			ActorID:   row.ActorID,
			ActorName: row.ActorName,
			CreatedAt: row.CreatedAt,
		})
	}

	return actions, attachments, comments, history, nil
}

func rootToModel(d defect.Defect) model.Defect {
	return model.Defect{
		ID:                      d.ID,
		Code:                    d.Code,
		Title:                   d.Title,
		Description:             d.Description,
		SeverityModel:           string(d.SeverityModel),
		Severity:                string(d.Severity),
		Unsafe:                  d.Unsafe,
		Status:                  string(d.Status),
		ReopenedCount:           d.ReopenedCount,
		PreviousOccurrenceID:    strPtr(d.PreviousOccurrenceID),
		TargetRectificationDate: strPtr(d.TargetRectificationDate),
		ComplianceTag:           strPtr(d.ComplianceTag),
		AssetID:                 strPtr(d.AssetID),
		LocationID:              strPtr(d.LocationID),
		InspectionID:            strPtr(d.InspectionID),
		WorkOrderID:             strPtr(d.WorkOrderID),
		SiteID:                  strPtr(d.SiteID),
		AssigneeID:              strPtr(d.AssigneeID),
		AssigneeName:            strPtr(d.AssigneeName),
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
		CreatedByID:             d.CreatedByID,
		CreatedByName:           d.CreatedByName,
		UpdatedByID:             d.UpdatedByID,
		UpdatedByName:           d.UpdatedByName,
	}
}

func assembleRecord(
	row model.Defect,
	actions []defect.ActionItem,
	attachments []defect.Attachment,
	comments []defect.Comment,
	history []defect.HistoryEntry,
) defect.Defect {
	return defect.Defect{
		ID:                      row.ID,
		Code:                    row.Code,
		Title:                   row.Title,
		Description:             row.Description,
		SeverityModel:           defect.SeverityModel(row.SeverityModel),
		Severity:                defect.Severity(row.Severity),
		Unsafe:                  row.Unsafe,
		Status:                  defect.Status(row.Status),
		ReopenedCount:           row.ReopenedCount,
		PreviousOccurrenceID:    derefString(row.PreviousOccurrenceID),
		TargetRectificationDate: derefString(row.TargetRectificationDate),
		ComplianceTag:           derefString(row.ComplianceTag),
		Actions:                 actions,
		Attachments:             attachments,
		Comments:                comments,
		History:                 history,
		AssetID:                 derefString(row.AssetID),
		LocationID:              derefString(row.LocationID),
		InspectionID:            derefString(row.InspectionID),
		WorkOrderID:             derefString(row.WorkOrderID),
		SiteID:                  derefString(row.SiteID),
		AssigneeID:              derefString(row.AssigneeID),
		AssigneeName:            derefString(row.AssigneeName),
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
		CreatedByID:             row.CreatedByID,
		CreatedByName:           row.CreatedByName,
		UpdatedByID:             row.UpdatedByID,
		UpdatedByName:           row.UpdatedByName,
	}
}
