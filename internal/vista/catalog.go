package vista

// SemanticType classifies a field for operator validation and predicate
// construction.
type SemanticType string

const (
	TypeText      SemanticType = "text"
	TypeLongText  SemanticType = "long_text"
	TypeInteger   SemanticType = "integer"
	TypeDecimal   SemanticType = "decimal"
	TypeBoolean   SemanticType = "boolean"
	TypeDate      SemanticType = "date"
	TypeDateTime  SemanticType = "datetime"
	TypeReference SemanticType = "reference"
)

// FieldSpec declares how one field of an entity may participate in a view.
// Column is the stored column the predicates run against; OrderExpr, when
// set, replaces Column in ORDER BY (synthetic and reference fields sort by
// a correlated subquery rather than the raw column).
type FieldSpec struct {
	Type       SemanticType
	Label      string
	Column     string
	OrderExpr  string
	Filterable bool
	Orderable  bool
	ColumnView bool
}

// Catalog is the static declaration of the viewable surface of one entity
// type: which fields exist for filtering, ordering and column display, and
// which text fields the combined free-text search runs over.
type Catalog struct {
	Entity         string
	Fields         map[string]FieldSpec
	TextFields     []string
	MaxFilterSlots int
}

// Field looks up a declared field. Fields absent from the catalog are
// rejected everywhere else.
func (c *Catalog) Field(name string) (FieldSpec, bool) {
	spec, ok := c.Fields[name]
	return spec, ok
}

const (
	latestNoteWhenExpr = "(SELECT max(project_notes.`when`) FROM project_notes" +
		" WHERE project_notes.project_id = projects.id AND project_notes.is_current = true)"
	latestNoteTextExpr = "(SELECT project_notes.main_text FROM project_notes" +
		" WHERE project_notes.project_id = projects.id AND project_notes.is_current = true" +
		" ORDER BY project_notes.`when` DESC LIMIT 1)"
	statusPositionExpr = "(SELECT statuses.list_position FROM statuses WHERE statuses.id = projects.status_id)"
	technicianNameExpr = "(SELECT technicians.name FROM technicians WHERE technicians.id = projects.technician_id)"
	creatorNameExpr    = "(SELECT technicians.name FROM technicians WHERE technicians.id = projects.created_by_id)"
)

// ProjectCatalog declares the viewable fields of the project list. Built
// once at process start; request handling only reads it.
var ProjectCatalog = &Catalog{
	Entity:         "project",
	MaxFilterSlots: 5,
	TextFields:     []string{"title", "description", "completion_notes"},
	Fields: map[string]FieldSpec{
		"title": {
			Type: TypeText, Label: "Title", Column: "title",
			Filterable: true, Orderable: true, ColumnView: true,
		},
		"description": {
			Type: TypeLongText, Label: "Description", Column: "description",
			Filterable: true, ColumnView: true,
		},
		"priority": {
			Type: TypeInteger, Label: "Priority", Column: "priority",
			Filterable: true, Orderable: true, ColumnView: true,
		},
		"begin": {
			Type: TypeDate, Label: "Begin", Column: "begin",
			Filterable: true, Orderable: true, ColumnView: true,
		},
		"technician": {
			Type: TypeReference, Label: "Technician", Column: "technician_id",
			OrderExpr:  technicianNameExpr,
			Filterable: true, Orderable: true, ColumnView: true,
		},
		"created_by": {
			Type: TypeReference, Label: "Created By", Column: "created_by_id",
			OrderExpr:  creatorNameExpr,
			Filterable: true, Orderable: true, ColumnView: true,
		},
		"status": {
			Type: TypeReference, Label: "Status", Column: "status_id",
			OrderExpr:  statusPositionExpr,
			Filterable: true, Orderable: true, ColumnView: true,
		},
		"completion_notes": {
			Type: TypeLongText, Label: "Completion Notes", Column: "completion_notes",
			Filterable: true, ColumnView: true,
		},
		"recipient_emails": {
			Type: TypeText, Label: "Recipient Emails", Column: "recipient_emails",
			ColumnView: true,
		},
		"time_spent": {
			Type: TypeDecimal, Label: "Time Spent", Column: "time_spent",
			Filterable: true, Orderable: true, ColumnView: true,
		},
		// Synthetic fields need a correlated subquery, so they are
		// orderable and displayable but not filterable.
		"latest_note_when": {
			Type: TypeDateTime, Label: "Latest Note Date",
			OrderExpr: latestNoteWhenExpr,
			Orderable: true, ColumnView: true,
		},
		"latest_note_maintext": {
			Type: TypeText, Label: "Latest Note",
			OrderExpr: latestNoteTextExpr,
			Orderable: true, ColumnView: true,
		},
	},
}

// Catalogs indexes every declared catalog by entity type.
var Catalogs = map[string]*Catalog{
	"project": ProjectCatalog,
}
