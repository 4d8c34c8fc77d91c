package sharepoint

// List is the subset of SP.List properties the reconciler cares about.
type List struct {
	ID        string
	Title     string
	ItemCount int
}

// FieldState is the live state of one list field.
type FieldState struct {
	InternalName string
	Title        string
	Required     bool
	TypeKind     int
}

// SharePoint FieldTypeKind values for the supported field types.
const (
	fieldKindText     = 2
	fieldKindDateTime = 4
	fieldKindChoice   = 6
)

// OData verbose response envelopes.

type listEnvelope struct {
	D listPayload `json:"d"`
}

type listPayload struct {
	ID        string `json:"Id"`
	Title     string `json:"Title"`
	ItemCount int    `json:"ItemCount"`
}

type fieldEnvelope struct {
	D fieldPayload `json:"d"`
}

type fieldPayload struct {
	InternalName  string `json:"InternalName"`
	Title         string `json:"Title"`
	Required      bool   `json:"Required"`
	FieldTypeKind int    `json:"FieldTypeKind"`
}
