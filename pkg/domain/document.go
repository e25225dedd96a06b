package domain

// Field is one named entry of an embed. Fields are immutable once created.
type Field struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Inline bool   `json:"inline" yaml:"inline"`
}

// Embed is the render-ready snapshot of a Document.
type Embed struct {
	Title  string  `json:"title" yaml:"title"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Clone returns a deep copy of the embed.
func (e Embed) Clone() Embed {
	out := Embed{Title: e.Title}
	if e.Fields != nil {
		out.Fields = make([]Field, len(e.Fields))
		copy(out.Fields, e.Fields)
	}
	return out
}

// Document holds the title and ordered field list being built in a session.
// It has a single writer (the session controller) and is not safe for concurrent use.
type Document struct {
	title  string
	titled bool
	fields []Field
}

// NewDocument creates an empty, untitled document.
func NewDocument() *Document {
	return &Document{}
}

// SetTitle sets the document title.
func (d *Document) SetTitle(text string) {
	d.title = text
	d.titled = true
}

// Title returns the title and whether it has been set.
func (d *Document) Title() (string, bool) {
	return d.title, d.titled
}

// AppendField adds a non-inline field at the end of the document.
func (d *Document) AppendField(name, value string) Field {
	f := Field{Name: name, Value: value, Inline: false}
	d.fields = append(d.fields, f)
	return f
}

// Len returns the number of fields.
func (d *Document) Len() int {
	return len(d.fields)
}

// Snapshot returns a copy of the document that later mutations do not affect.
func (d *Document) Snapshot() Embed {
	e := Embed{Title: d.title, Fields: make([]Field, len(d.fields))}
	copy(e.Fields, d.fields)
	return e
}
