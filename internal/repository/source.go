package repository

import (
	"context"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sourceQuery describes how the visible rows of one content table are read.
type sourceQuery struct {
	table   string
	columns []string
	visible sqrl.Sqlizer
	scan    func(rows pgx.Rows) (domain.Indexable, error)
}

var sourceQueries = map[domain.ContentType]sourceQuery{
	domain.ContentTypeAnnouncement: {
		table:   "announcements",
		columns: []string{"id::text", "title", "summary", "content", "priority", "target_roles", "target_units"},
		visible: sqrl.Eq{"status": "published"},
		scan: func(rows pgx.Rows) (domain.Indexable, error) {
			var a domain.Announcement
			err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.Priority, &a.TargetRoles, &a.TargetUnits)
			return &a, err
		},
	},
	domain.ContentTypeTraining: {
		table:   "trainings",
		columns: []string{"id::text", "title", "description", "content", "category", "duration_minutes", "target_roles"},
		visible: sqrl.Eq{"status": "published"},
		scan: func(rows pgx.Rows) (domain.Indexable, error) {
			var t domain.Training
			err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Content, &t.Category, &t.DurationMinutes, &t.TargetRoles)
			return &t, err
		},
	},
	domain.ContentTypeManual: {
		table:   "manuals",
		columns: []string{"id::text", "title", "description", "content", "category", "version"},
		visible: sqrl.Eq{"is_active": true},
		scan: func(rows pgx.Rows) (domain.Indexable, error) {
			var m domain.Manual
			err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Content, &m.Category, &m.Version)
			return &m, err
		},
	},
	domain.ContentTypeChecklist: {
		table:   "checklists",
		columns: []string{"id::text", "title", "description", "category", "target_roles", "target_units"},
		visible: sqrl.Eq{"is_active": true},
		scan: func(rows pgx.Rows) (domain.Indexable, error) {
			var c domain.Checklist
			err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.TargetRoles, &c.TargetUnits)
			return &c, err
		},
	},
	domain.ContentTypeIdea: {
		table:   "ideas",
		columns: []string{"id::text", "title", "description", "category", "status", "tags"},
		visible: sqrl.Eq{"status": []string{"approved", "in_progress"}},
		scan: func(rows pgx.Rows) (domain.Indexable, error) {
			var i domain.Idea
			err := rows.Scan(&i.ID, &i.Title, &i.Description, &i.Category, &i.Status, &i.Tags)
			return &i, err
		},
	},
	domain.ContentTypeCampaign: {
		table:   "campaigns",
		columns: []string{"id::text", "title", "description", "content", "target_roles", "target_units", "starts_at", "ends_at"},
		visible: sqrl.Eq{"status": "active"},
		scan: func(rows pgx.Rows) (domain.Indexable, error) {
			var c domain.Campaign
			var startsAt, endsAt *time.Time
			err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Content, &c.TargetRoles, &c.TargetUnits, &startsAt, &endsAt)
			c.StartsAt, c.EndsAt = startsAt, endsAt
			return &c, err
		},
	},
	domain.ContentTypeFeedPost: {
		table:   "feed_posts",
		columns: []string{"id::text", "author_id::text", "content", "tags"},
		visible: sqrl.And{sqrl.Eq{"is_pinned": true}, sqrl.Eq{"deleted_at": nil}},
		scan: func(rows pgx.Rows) (domain.Indexable, error) {
			var p domain.FeedPost
			var authorID *string
			err := rows.Scan(&p.ID, &authorID, &p.Content, &p.Tags)
			if authorID != nil {
				p.AuthorID = *authorID
			}
			return &p, err
		},
	},
}

// SourceRepository reads searchable content from the intranet tables.
type SourceRepository struct {
	pool *pgxpool.Pool
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

// ListVisible returns the rows of contentType that are currently public.
func (r *SourceRepository) ListVisible(ctx context.Context, contentType domain.ContentType) ([]domain.Indexable, error) {
	q, ok := sourceQueries[contentType]
	if !ok {
		return nil, domain.ErrInvalidContentType
	}

	query, args, err := psql.Select(q.columns...).
		From(q.table).
		Where(q.visible).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", q.table, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", q.table, err)
	}
	defer rows.Close()

	var items []domain.Indexable
	for rows.Next() {
		item, err := q.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", q.table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
