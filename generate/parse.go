package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError explains why model output could not be used.
type ParseError struct {
	Reason string
	Raw    string // the text as received
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedResponse, e.Err}
	}
	return []error{ErrMalformedResponse}
}

// ParseResult holds exactly one of Article and Err.
type ParseResult struct {
	Article *Article
	Err     *ParseError
}

// Unpack converts the result to the usual value, error pair.
func (r ParseResult) Unpack() (Article, error) {
	if r.Err != nil {
		return Article{}, r.Err
	}
	if r.Article == nil {
		return Article{}, &ParseError{Reason: "empty parse result"}
	}
	return *r.Article, nil
}

var fence = regexp.MustCompile("(?s)```[\\w-]*[ \\t]*\\n?(.*?)```")

// ExtractJSON returns the body of the first Markdown code fence, if any,
// starting at the first '[' or '{'. Text after the JSON value is left
// for the decoder to ignore.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if m := fence.FindStringSubmatch(s); m != nil && strings.TrimSpace(m[1]) != "" {
		s = strings.TrimSpace(m[1])
	}
	bracket := strings.IndexByte(s, '[')
	brace := strings.IndexByte(s, '{')
	switch {
	case bracket >= 0 && (brace < 0 || bracket < brace):
		s = s[bracket:]
	case brace >= 0:
		s = s[brace:]
	}
	return s
}

type articleJSON struct {
	Title           string          `json:"title"`
	Content         json.RawMessage `json:"content"`
	MetaDescription string          `json:"metaDescription"`
	Tags            []string        `json:"tags"`
}

// ParseArticle decodes and validates a generated article. Tags are
// required only when requireTags is set. Content may be an array of
// paragraphs or a single string with blank lines between paragraphs.
func ParseArticle(text string, requireTags bool) ParseResult {
	raw := ExtractJSON(text)
	fail := func(reason string, err error) ParseResult {
		return ParseResult{Err: &ParseError{Reason: reason, Raw: text, Err: err}}
	}

	var aj articleJSON
	if err := decodeFirst(raw, &aj); err != nil {
		return fail("The AI returned an invalid data format. Please try again.", err)
	}

	paras, err := decodeParagraphs(aj.Content)
	if err != nil {
		return fail("content is neither a list nor a string", err)
	}

	a := Article{
		Title:           strings.TrimSpace(aj.Title),
		Paragraphs:      paras,
		MetaDescription: strings.TrimSpace(aj.MetaDescription),
	}
	for _, t := range aj.Tags {
		if t = strings.TrimSpace(t); t != "" {
			a.Tags = append(a.Tags, t)
		}
	}

	switch {
	case a.Title == "":
		return fail("article has no title", nil)
	case len(a.Paragraphs) == 0:
		return fail("article has no content", nil)
	case a.MetaDescription == "":
		return fail("article has no meta description", nil)
	case requireTags && aj.Tags == nil:
		return fail("article has no tags", nil)
	}
	return ParseResult{Article: &a}
}

// decodeFirst decodes the first JSON value in s. Trailing text, such as
// a closing remark from the model, is ignored.
func decodeFirst(s string, v any) error {
	return json.NewDecoder(strings.NewReader(s)).Decode(v)
}

func decodeParagraphs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, err
		}
		list = strings.Split(single, "\n\n")
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// ParseTopics decodes a JSON array of topics. Non-string entries are
// formatted with fmt.
func ParseTopics(text string) ([]string, error) {
	raw := ExtractJSON(text)
	var items []any
	if err := decodeFirst(raw, &items); err != nil {
		return nil, &ParseError{Reason: "topic list is not a JSON array", Raw: text, Err: err}
	}
	topics := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		switch v := it.(type) {
		case string:
			s = v
		case nil:
			continue
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			topics = append(topics, s)
		}
	}
	return topics, nil
}
