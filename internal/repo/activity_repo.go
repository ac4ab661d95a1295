package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/importdash/internal/model"
	"github.com/xxxsen/importdash/internal/pkg/dbutil"
	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
)

const activityTable = "run_activities"

var activityColumns = []string{
	"id", "run_id", "user_id", "imported_by", "import_id", "job_id",
	"header_filename", "items_filename", "total_orders", "processed_orders",
	"skipped_orders", "failed_orders", "forced", "pipeline_status", "ctime", "mtime",
}

type ActivityFilter struct {
	UserID string
	Limit  int
	Offset int
}

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, item *model.RunActivity) error {
	data := map[string]interface{}{
		"id":               item.ID,
		"run_id":           item.RunID,
		"user_id":          item.UserID,
		"imported_by":      item.ImportedBy,
		"import_id":        nullInt64(item.ImportID),
		"job_id":           nullInt64(item.JobID),
		"header_filename":  item.HeaderFilename,
		"items_filename":   item.ItemsFilename,
		"total_orders":     item.TotalOrders,
		"processed_orders": item.ProcessedOrders,
		"skipped_orders":   item.SkippedOrders,
		"failed_orders":    item.FailedOrders,
		"forced":           item.Forced,
		"pipeline_status":  item.PipelineStatus,
		"ctime":            item.Ctime,
		"mtime":            item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert(activityTable, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ActivityRepo) List(ctx context.Context, filter ActivityFilter) ([]model.RunActivity, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
	}
	if filter.UserID != "" {
		where["user_id"] = filter.UserID
	}
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		where["_limit"] = []uint{uint(offset), uint(filter.Limit)}
	}
	return r.query(ctx, where)
}

// ListByPipelineStatus returns the oldest rows first so a bounded scan makes
// progress across runs.
func (r *ActivityRepo) ListByPipelineStatus(ctx context.Context, status string, limit int) ([]model.RunActivity, error) {
	where := map[string]interface{}{
		"pipeline_status": status,
		"import_id":       builder.IsNotNull,
		"_orderby":        "ctime asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	return r.query(ctx, where)
}

func (r *ActivityRepo) UpdatePipelineStatus(ctx context.Context, id, status string, mtime int64) error {
	sqlStr, args, err := builder.BuildUpdate(activityTable, map[string]interface{}{
		"id": id,
	}, map[string]interface{}{
		"pipeline_status": status,
		"mtime":           mtime,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ActivityRepo) DeleteBefore(ctx context.Context, ctime int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete(activityTable, map[string]interface{}{
		"ctime <": ctime,
	})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ActivityRepo) query(ctx context.Context, where map[string]interface{}) ([]model.RunActivity, error) {
	sqlStr, args, err := builder.BuildSelect(activityTable, where, activityColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.RunActivity, 0)
	for rows.Next() {
		var (
			item     model.RunActivity
			importID sql.NullInt64
			jobID    sql.NullInt64
		)
		if err := rows.Scan(
			&item.ID, &item.RunID, &item.UserID, &item.ImportedBy, &importID, &jobID,
			&item.HeaderFilename, &item.ItemsFilename, &item.TotalOrders, &item.ProcessedOrders,
			&item.SkippedOrders, &item.FailedOrders, &item.Forced, &item.PipelineStatus,
			&item.Ctime, &item.Mtime,
		); err != nil {
			return nil, err
		}
		item.ImportID = int64Ptr(importID)
		item.JobID = int64Ptr(jobID)
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}
