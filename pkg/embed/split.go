package embed

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const logPrefix = "embed:split"

// ErrPaginationOverflow is returned when a document needs more than MaxPages pages.
var ErrPaginationOverflow = errors.New("content too large to paginate")

// SplitText cuts s so the head fits in limit runes. Text shorter than limit
// is returned whole. Otherwise it cuts after the last newline inside the
// limit, then after the last space, then hard-cuts at limit. The separator
// stays at the end of the head so head+tail == s, byte for byte.
func SplitText(s string, limit int) (head, tail string) {
	if utf8.RuneCountInString(s) < limit {
		return s, ""
	}
	end := 0
	for n := 0; n < limit && end < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	window := s[:end]
	cut := strings.LastIndexByte(window, '\n')
	if cut < 0 {
		cut = strings.LastIndexByte(window, ' ')
	}
	if cut < 0 {
		return window, s[end:]
	}
	return s[:cut+1], s[cut+1:]
}

// Split paginates a document. The first page keeps the original title, later
// pages are titled "<title> (n)". Text fills a page before fields do, and
// fields spill from the tail of a page onto the next one in their original
// order. It fails with ErrPaginationOverflow when more than MaxPages pages would
// be needed; nothing is returned in that case.
func Split(d *Document) ([]*Document, error) {
	if d == nil {
		return nil, nil
	}
	if !NeedsSplit(d) {
		return []*Document{d.clone(d.Title, d.Description, d.Fields)}, nil
	}

	var pages []*Document
	title := d.Title
	text := d.Description
	fields := d.Fields
	for page := 1; ; page++ {
		if page > MaxPages {
			slog.Debug(fmt.Sprintf("%s - overflow title=%q fields=%d text=%d", logPrefix, d.Title, len(d.Fields), runeLen(d.Description)))
			return nil, fmt.Errorf("%w: more than %d pages", ErrPaginationOverflow, MaxPages)
		}
		if page > 1 {
			title = strings.TrimSpace(fmt.Sprintf("%s (%d)", d.Title, page))
		}

		body, carryText := SplitText(text, MaxDescriptionLength)

		keep := len(fields)
		if carryText != "" {
			keep = 0
		} else if keep > MaxFields {
			keep = MaxFields
		}
		pages = append(pages, d.clone(title, body, fields[:keep]))

		text = carryText
		fields = fields[keep:]
		if text == "" && len(fields) == 0 {
			return pages, nil
		}
	}
}

func (d *Document) clone(title, description string, fields []Field) *Document {
	out := &Document{
		Title:       title,
		Description: description,
		URL:         d.URL,
		Color:       d.Color,
		Footer:      d.Footer,
	}
	if len(fields) > 0 {
		out.Fields = make([]Field, len(fields))
		copy(out.Fields, fields)
	}
	return out
}
