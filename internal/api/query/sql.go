package query

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

var comparison = map[Operator]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// where renders the filters as a conjunction, numbering placeholders from 1.
func (s *Spec) where() (string, []any) {
	if len(s.Filters) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(s.Filters))
	args := make([]any, 0, len(s.Filters))
	for i, c := range s.Filters {
		col := ident(c.Field.Name)
		ph := fmt.Sprintf("$%d", i+1)
		switch {
		case c.Field.Type == TypeTextArray && c.Op == OpIn:
			clauses = append(clauses, fmt.Sprintf("%s && %s", col, ph))
		case c.Field.Type == TypeTextArray:
			clauses = append(clauses, fmt.Sprintf("%s = ANY(%s)", ph, col))
		case c.Op == OpIn:
			clauses = append(clauses, fmt.Sprintf("%s = ANY(%s)", col, ph))
		default:
			clauses = append(clauses, fmt.Sprintf("%s %s %s", col, comparison[c.Op], ph))
		}
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderBy(keys []SortKey) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts[i] = ident(k.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
	}
	return strings.Join(quoted, ", ")
}

// findSQL selects one page of rows.
func findSQL(res *Resource, s *Spec, cols []string) (string, []any) {
	where, args := s.where()
	n := len(args)
	sql := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		columnList(cols), ident(res.Name), where, orderBy(s.Sort), n+1, n+2)
	return sql, append(args, s.Limit, s.Offset())
}

// countSQL counts every row matching the filters, ignoring pagination.
func countSQL(res *Resource, s *Spec) (string, []any) {
	where, args := s.where()
	return fmt.Sprintf("SELECT count(*) FROM %s%s", ident(res.Name), where), args
}

// relatedSQL loads target rows whose key column is in the given id set.
func relatedSQL(target *Resource, cols []string, key string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ANY($1)%s",
		columnList(cols), ident(target.Name), ident(key), orderBy(target.DefaultSort))
}
