package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/devcamper-api/internal/types"
	"github.com/FACorreiaa/devcamper-api/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

var reserved = map[string]struct{}{
	"select": {},
	"sort":   {},
	"page":   {},
	"limit":  {},
}

var filterKey = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[([A-Za-z]+)\])?$`)

type Condition struct {
	Field Field
	Op    Operator
	Value any
}

type SortKey struct {
	Field string
	Desc  bool
}

// Spec is the validated form of a listing request.
type Spec struct {
	Filters []Condition
	Sort    []SortKey
	Select  []string
	Page    int `json:"page" validate:"min=1,max=10000000"`
	Limit   int `json:"limit" validate:"min=1,max=100"`
}

// Offset is the number of rows skipped before the current page.
func (s *Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// Parse validates raw query parameters against res. When a key repeats,
// the last value wins.
func Parse(res *Resource, values url.Values) (*Spec, error) {
	spec := &Spec{Page: DefaultPage, Limit: DefaultLimit}
	var problems []string

	var err error
	if raw, ok := last(values, "page"); ok {
		if spec.Page, err = strconv.Atoi(raw); err != nil {
			problems = append(problems, "page must be a positive integer")
			spec.Page = DefaultPage
		}
	}
	if raw, ok := last(values, "limit"); ok {
		if spec.Limit, err = strconv.Atoi(raw); err != nil {
			problems = append(problems, "limit must be a positive integer")
			spec.Limit = DefaultLimit
		}
	}
	if err := validation.ValidateStruct(spec); err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			problems = append(problems, ve.Messages...)
		}
	}

	if raw, ok := last(values, "select"); ok {
		spec.Select, problems = parseSelect(res, raw, problems)
	} else {
		spec.Select = res.fieldNames()
	}

	if raw, ok := last(values, "sort"); ok {
		spec.Sort, problems = parseSort(res, raw, problems)
	} else {
		spec.Sort = append([]SortKey(nil), res.DefaultSort...)
	}
	// id breaks ties so pages never overlap.
	if !hasSortField(spec.Sort, "id") {
		spec.Sort = append(spec.Sort, SortKey{Field: "id"})
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if _, skip := reserved[k]; !skip {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw, _ := last(values, key)
		cond, msg := parseCondition(res, key, raw)
		if msg != "" {
			problems = append(problems, msg)
			continue
		}
		spec.Filters = append(spec.Filters, cond)
	}

	if len(problems) > 0 {
		return nil, types.NewValidationError(problems...)
	}
	return spec, nil
}

func last(values url.Values, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[len(v)-1], true
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSelect(res *Resource, raw string, problems []string) ([]string, []string) {
	selected := []string{"id"}
	seen := map[string]bool{"id": true}
	for _, name := range splitList(raw) {
		if _, ok := res.Field(name); !ok {
			problems = append(problems, fmt.Sprintf("Unknown select field %s", name))
			continue
		}
		if !seen[name] {
			seen[name] = true
			selected = append(selected, name)
		}
	}
	return selected, problems
}

func parseSort(res *Resource, raw string, problems []string) ([]SortKey, []string) {
	var keys []SortKey
	for _, name := range splitList(raw) {
		key := SortKey{Field: name}
		if strings.HasPrefix(name, "-") {
			key = SortKey{Field: name[1:], Desc: true}
		}
		if _, ok := res.Field(key.Field); !ok {
			problems = append(problems, fmt.Sprintf("Unknown sort field %s", key.Field))
			continue
		}
		keys = append(keys, key)
	}
	return keys, problems
}

func hasSortField(keys []SortKey, name string) bool {
	for _, k := range keys {
		if k.Field == name {
			return true
		}
	}
	return false
}

func parseCondition(res *Resource, key, raw string) (Condition, string) {
	m := filterKey.FindStringSubmatch(key)
	if m == nil {
		return Condition{}, fmt.Sprintf("Invalid filter %s", key)
	}
	field, ok := res.Field(m[1])
	if !ok {
		return Condition{}, fmt.Sprintf("Unknown filter field %s", m[1])
	}

	op := OpEq
	if m[2] != "" {
		op = Operator(m[2])
		switch op {
		case OpGt, OpGte, OpLt, OpLte, OpIn:
		default:
			return Condition{}, fmt.Sprintf("Unknown operator %s for field %s", m[2], field.Name)
		}
	}
	if isRange(op) && !ordered(field.Type) {
		return Condition{}, fmt.Sprintf("Operator %s is not supported for field %s", op, field.Name)
	}

	var value any
	var err error
	if op == OpIn {
		value, err = convertList(field, splitList(raw))
	} else {
		value, err = convert(field, raw)
	}
	if err != nil {
		return Condition{}, fmt.Sprintf("Invalid value for %s", field.Name)
	}
	return Condition{Field: field, Op: op, Value: value}, ""
}

func isRange(op Operator) bool {
	return op == OpGt || op == OpGte || op == OpLt || op == OpLte
}

func ordered(t FieldType) bool {
	switch t {
	case TypeText, TypeInt, TypeFloat, TypeTime:
		return true
	}
	return false
}

var timeLayouts = []string{time.RFC3339, "2006-01-02"}

func parseTime(raw string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// convert returns the scalar value for an equality or range comparison.
// Array columns compare a single element.
func convert(f Field, raw string) (any, error) {
	switch f.Type {
	case TypeInt:
		return strconv.ParseInt(raw, 10, 64)
	case TypeFloat:
		return strconv.ParseFloat(raw, 64)
	case TypeBool:
		return strconv.ParseBool(raw)
	case TypeTime:
		return parseTime(raw)
	case TypeUUID:
		return uuid.Parse(raw)
	default:
		return raw, nil
	}
}

func convertList(f Field, raws []string) (any, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	switch f.Type {
	case TypeInt:
		return convertEach(raws, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
	case TypeFloat:
		return convertEach(raws, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	case TypeBool:
		return convertEach(raws, strconv.ParseBool)
	case TypeTime:
		return convertEach(raws, parseTime)
	case TypeUUID:
		return convertEach(raws, uuid.Parse)
	default:
		return raws, nil
	}
}

func convertEach[T any](raws []string, fn func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		v, err := fn(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
