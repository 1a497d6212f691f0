// Package embed models rich-content documents and splits oversized ones into
// a bounded sequence of platform-legal pages.
package embed

import "unicode/utf8"

// Platform limits for a single rich-content payload.
const (
	MaxDescriptionLength = 2048
	MaxFields            = 15
	MaxPages             = 10
)

// Field is a named value rendered inside a Document.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Document is a rich-content payload (an "embed" on most chat platforms).
// Color, URL and Footer are presentation attributes copied onto every page.
type Document struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Color       int     `json:"color,omitempty"`
	Footer      string  `json:"footer,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// AddField appends a field and returns the document for chaining.
func (d *Document) AddField(name, value string, inline bool) *Document {
	d.Fields = append(d.Fields, Field{Name: name, Value: value, Inline: inline})
	return d
}

// NeedsSplit reports whether Split would look for a cut: the description is
// at or above MaxDescriptionLength, or there are more than MaxFields fields.
func NeedsSplit(d *Document) bool {
	if d == nil {
		return false
	}
	return runeLen(d.Description) >= MaxDescriptionLength || len(d.Fields) > MaxFields
}

// Fits reports whether the document is within single-page platform limits.
func Fits(d *Document) bool {
	if d == nil {
		return true
	}
	return runeLen(d.Description) <= MaxDescriptionLength && len(d.Fields) <= MaxFields
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
