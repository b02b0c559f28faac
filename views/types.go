package views

// Page carries what every page needs.
type Page struct {
	Name string // console title, Config.Name
	CSRF string
}

// Choice is one option of a select element.
type Choice struct {
	Value string
	Label string
}

// Console is the data for the operator console. StateJSON is the
// serialized workspace; the page script takes over from it.
type Console struct {
	Page
	StateJSON  string
	Tones      []Choice
	Styles     []Choice
	Categories []Choice
	Statuses   []Choice
	Article    *Article // nil until a draft exists
}

// Article is the server-rendered preview of the current draft.
type Article struct {
	Title      string
	Paragraphs []string // already formatted HTML
	Meta       string
	Tags       []string
	Images     []string
}
