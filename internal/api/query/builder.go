package query

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/devcamper-api/app/db"
	"github.com/FACorreiaa/devcamper-api/app/observability/metrics"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

// Builder runs listing queries built from URL parameters.
type Builder struct {
	db     database.DB
	logger *slog.Logger
}

func NewBuilder(db database.DB, logger *slog.Logger) *Builder {
	return &Builder{db: db, logger: logger}
}

// List filters, sorts, selects and paginates res according to values,
// inlines the requested relations and shapes the list envelope.
func (b *Builder) List(ctx context.Context, res *Resource, values url.Values, populate ...Populate) (*types.ListEnvelope, error) {
	ctx, span := otel.Tracer("QueryBuilder").Start(ctx, "List", trace.WithAttributes(
		attribute.String("db.sql.table", res.Name),
	))
	defer span.End()

	l := b.logger.With(slog.String("method", "List"), slog.String("resource", res.Name))

	spec, err := Parse(res, values)
	if err != nil {
		l.WarnContext(ctx, "Rejected listing parameters", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid query parameters")
		return nil, err
	}

	cols, err := columnsFor(res, spec.Select, populate)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	m := metrics.Get()
	m.ListQueriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", res.Name)))
	start := time.Now()

	var rows []map[string]any
	var total int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sql, args := findSQL(res, spec, cols)
		r, err := b.db.Query(gctx, sql, args...)
		if err != nil {
			return err
		}
		rows, err = pgx.CollectRows(r, rowToMap)
		return err
	})
	g.Go(func() error {
		sql, args := countSQL(res, spec)
		return b.db.QueryRow(gctx, sql, args...).Scan(&total)
	})
	err = g.Wait()
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("resource", res.Name)))
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Listing query failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing %s: %w", res.Name, err)
	}

	for _, p := range populate {
		if err = b.populate(ctx, res, p, rows); err != nil {
			m.DbQueryErrorsTotal.Add(ctx, 1)
			l.ErrorContext(ctx, "Populate query failed", slog.String("relation", p.Relation), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "populate failed")
			return nil, fmt.Errorf("database error populating %s: %w", p.Relation, err)
		}
	}

	env := envelope(spec, rows, total)
	l.DebugContext(ctx, "Listing served", slog.Int("count", env.Count), slog.Int("total", total))
	span.SetAttributes(attribute.Int("result.count", env.Count))
	span.SetStatus(codes.Ok, "listed")
	return env, nil
}

// columnsFor adds the local keys belongs-to relations need to the selection.
func columnsFor(res *Resource, selected []string, populate []Populate) ([]string, error) {
	cols := append([]string(nil), selected...)
	for _, p := range populate {
		rel, ok := res.Relations[p.Relation]
		if !ok {
			return nil, fmt.Errorf("resource %s has no relation %q", res.Name, p.Relation)
		}
		if rel.Kind == BelongsTo && !contains(cols, rel.Key) {
			cols = append(cols, rel.Key)
		}
	}
	return cols, nil
}

func envelope(spec *Spec, rows []map[string]any, total int) *types.ListEnvelope {
	if rows == nil {
		rows = []map[string]any{}
	}
	env := &types.ListEnvelope{Success: true, Count: len(rows), Data: rows}

	var p types.Pagination
	if spec.Offset()+spec.Limit < total {
		p.Next = &types.PageRef{Page: spec.Page + 1, Limit: spec.Limit}
	}
	if spec.Page > 1 {
		p.Previous = &types.PageRef{Page: spec.Page - 1, Limit: spec.Limit}
	}
	if p.Next != nil || p.Previous != nil {
		env.Pagination = &p
	}
	return env
}

func (b *Builder) populate(ctx context.Context, res *Resource, p Populate, rows []map[string]any) error {
	rel := res.Relations[p.Relation]
	target, ok := lookup(rel.Target)
	if !ok {
		return fmt.Errorf("unknown relation target %q", rel.Target)
	}

	cols := p.Fields
	if len(cols) == 0 {
		cols = target.fieldNames()
	}

	switch rel.Kind {
	case HasMany:
		ids := collectIDs(rows, "id")
		for _, row := range rows {
			row[p.Relation] = []map[string]any{}
		}
		if len(ids) == 0 {
			return nil
		}
		cols = withColumns(cols, "id", rel.Key)
		related, err := b.related(ctx, target, cols, rel.Key, ids)
		if err != nil {
			return err
		}
		byParent := make(map[uuid.UUID][]map[string]any)
		for _, child := range related {
			if parent, ok := asUUID(child[rel.Key]); ok {
				byParent[parent] = append(byParent[parent], child)
			}
		}
		for _, row := range rows {
			if id, ok := asUUID(row["id"]); ok && byParent[id] != nil {
				row[p.Relation] = byParent[id]
			}
		}

	case BelongsTo:
		ids := collectIDs(rows, rel.Key)
		for _, row := range rows {
			row[p.Relation] = nil
		}
		if len(ids) == 0 {
			return nil
		}
		cols = withColumns(cols, "id")
		related, err := b.related(ctx, target, cols, "id", ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]map[string]any, len(related))
		for _, parent := range related {
			if id, ok := asUUID(parent["id"]); ok {
				byID[id] = parent
			}
		}
		for _, row := range rows {
			if fk, ok := asUUID(row[rel.Key]); ok {
				if parent, found := byID[fk]; found {
					row[p.Relation] = parent
				}
			}
		}
	}
	return nil
}

func (b *Builder) related(ctx context.Context, target *Resource, cols []string, key string, ids []uuid.UUID) ([]map[string]any, error) {
	r, err := b.db.Query(ctx, relatedSQL(target, cols, key), ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(r, rowToMap)
}

func collectIDs(rows []map[string]any, key string) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		id, ok := asUUID(row[key])
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// rowToMap keys each column value by its result column name.
func rowToMap(row pgx.CollectableRow) (map[string]any, error) {
	values, err := row.Values()
	if err != nil {
		return nil, err
	}
	fields := row.FieldDescriptions()
	m := make(map[string]any, len(fields))
	for i, fd := range fields {
		m[fd.Name] = values[i]
	}
	return m, nil
}

// asUUID normalises the forms a uuid column can take in a row map.
func asUUID(v any) (uuid.UUID, bool) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, true
	case [16]byte:
		return uuid.UUID(id), true
	case string:
		parsed, err := uuid.Parse(id)
		return parsed, err == nil
	}
	return uuid.Nil, false
}

func withColumns(cols []string, required ...string) []string {
	out := append([]string(nil), cols...)
	for _, c := range required {
		if !contains(out, c) {
			out = append([]string{c}, out...)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
