package query

// FieldType tells the parser how to convert a raw query value.
type FieldType int

const (
	TypeText FieldType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeTime
	TypeUUID
	TypeTextArray
)

// Field is a column a listing may filter, sort or select on.
type Field struct {
	Name string
	Type FieldType
}

type RelationKind int

const (
	// HasMany inlines every target row whose Key column references the result id.
	HasMany RelationKind = iota
	// BelongsTo inlines the single target row whose id is stored in the result's Key column.
	BelongsTo
)

type Relation struct {
	Kind   RelationKind
	Target string
	Key    string
}

// Resource describes a listable table. Only declared fields are reachable
// from query parameters.
type Resource struct {
	Name        string
	Fields      []Field
	DefaultSort []SortKey
	Relations   map[string]Relation
}

// Populate asks for a relation to be inlined. Empty Fields means every
// field of the target.
type Populate struct {
	Relation string
	Fields   []string
}

func (r *Resource) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (r *Resource) fieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

var byCreatedAt = []SortKey{{Field: "created_at", Desc: true}}

var (
	Users = &Resource{
		Name: "users",
		Fields: []Field{
			{"id", TypeUUID},
			{"name", TypeText},
			{"email", TypeText},
			{"role", TypeText},
			{"created_at", TypeTime},
		},
		DefaultSort: byCreatedAt,
	}

	Bootcamps = &Resource{
		Name: "bootcamps",
		Fields: []Field{
			{"id", TypeUUID},
			{"user_id", TypeUUID},
			{"name", TypeText},
			{"slug", TypeText},
			{"description", TypeText},
			{"website", TypeText},
			{"phone", TypeText},
			{"email", TypeText},
			{"address", TypeText},
			{"latitude", TypeFloat},
			{"longitude", TypeFloat},
			{"formatted_address", TypeText},
			{"street", TypeText},
			{"city", TypeText},
			{"state", TypeText},
			{"zipcode", TypeText},
			{"country", TypeText},
			{"careers", TypeTextArray},
			{"average_rating", TypeFloat},
			{"average_cost", TypeInt},
			{"photo", TypeText},
			{"housing", TypeBool},
			{"job_assistance", TypeBool},
			{"job_guarantee", TypeBool},
			{"accept_gi", TypeBool},
			{"created_at", TypeTime},
		},
		DefaultSort: byCreatedAt,
		Relations: map[string]Relation{
			"courses": {Kind: HasMany, Target: "courses", Key: "bootcamp_id"},
			"reviews": {Kind: HasMany, Target: "reviews", Key: "bootcamp_id"},
		},
	}

	Courses = &Resource{
		Name: "courses",
		Fields: []Field{
			{"id", TypeUUID},
			{"title", TypeText},
			{"description", TypeText},
			{"weeks", TypeInt},
			{"tuition", TypeInt},
			{"minimum_skill", TypeText},
			{"scholarship_available", TypeBool},
			{"bootcamp_id", TypeUUID},
			{"user_id", TypeUUID},
			{"created_at", TypeTime},
		},
		DefaultSort: byCreatedAt,
		Relations: map[string]Relation{
			"bootcamp": {Kind: BelongsTo, Target: "bootcamps", Key: "bootcamp_id"},
		},
	}

	Reviews = &Resource{
		Name: "reviews",
		Fields: []Field{
			{"id", TypeUUID},
			{"title", TypeText},
			{"text", TypeText},
			{"rating", TypeInt},
			{"bootcamp_id", TypeUUID},
			{"user_id", TypeUUID},
			{"created_at", TypeTime},
		},
		DefaultSort: byCreatedAt,
		Relations: map[string]Relation{
			"bootcamp": {Kind: BelongsTo, Target: "bootcamps", Key: "bootcamp_id"},
		},
	}
)

var catalog = map[string]*Resource{}

// Register makes a resource reachable as a relation target.
func Register(resources ...*Resource) {
	for _, r := range resources {
		catalog[r.Name] = r
	}
}

func lookup(name string) (*Resource, bool) {
	r, ok := catalog[name]
	return r, ok
}

func init() {
	Register(Users, Bootcamps, Courses, Reviews)
}
