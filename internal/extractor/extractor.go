// Package extractor selects page metadata out of fetched HTML.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/JakeFAU/weblink-inspector/internal/codec"
)

// ErrAttributeMissing is returned when a selector matches an element that lacks the requested attribute.
var ErrAttributeMissing = errors.New("attribute missing")

// Selectors applied by Extract.
const (
	TitleSelector       = "title"
	DescriptionSelector = "meta[name=description]"
	KeywordsSelector    = "meta[name=keywords]"
	AuthorSelector      = "meta[name=author]"

	contentAttribute = "content"
)

// Metadata is the page information extracted by Extract. Nil fields were not present.
type Metadata struct {
	Title       *string
	Description *string
	Keywords    *string
	Author      *string
}

// Parse builds a queryable document from HTML content.
func Parse(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// SelectText returns the text of the first element matching selector.
// ok is false when nothing matches.
func SelectText(doc *goquery.Document, selector string) (string, bool, error) {
	sel, err := first(doc, selector)
	if err != nil || sel.Length() == 0 {
		return "", false, err
	}
	text, err := codec.Normalize(codec.Text(sel.Text()))
	if err != nil {
		return "", false, fmt.Errorf("normalize %s text: %w", selector, err)
	}
	return text, true, nil
}

// SelectAttribute returns attribute of the first element matching selector.
// ok is false when nothing matches; a match without the attribute is ErrAttributeMissing.
func SelectAttribute(doc *goquery.Document, selector, attribute string) (string, bool, error) {
	sel, err := first(doc, selector)
	if err != nil || sel.Length() == 0 {
		return "", false, err
	}
	value, exists := sel.Attr(attribute)
	if !exists {
		return "", false, fmt.Errorf("%s on %s: %w", attribute, selector, ErrAttributeMissing)
	}
	value, err = codec.Normalize(codec.Text(value))
	if err != nil {
		return "", false, fmt.Errorf("normalize %s %s: %w", selector, attribute, err)
	}
	return value, true, nil
}

// Extract reads the title and the description, keywords and author meta tags.
func Extract(doc *goquery.Document) (Metadata, error) {
	var (
		meta Metadata
		err  error
	)
	if meta.Title, err = optional(SelectText(doc, TitleSelector)); err != nil {
		return Metadata{}, err
	}
	if meta.Description, err = optional(SelectAttribute(doc, DescriptionSelector, contentAttribute)); err != nil {
		return Metadata{}, err
	}
	if meta.Keywords, err = optional(SelectAttribute(doc, KeywordsSelector, contentAttribute)); err != nil {
		return Metadata{}, err
	}
	if meta.Author, err = optional(SelectAttribute(doc, AuthorSelector, contentAttribute)); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func first(doc *goquery.Document, selector string) (*goquery.Selection, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	return doc.FindMatcher(matcher).First(), nil
}

func optional(value string, ok bool, err error) (*string, error) {
	if err != nil || !ok {
		return nil, err
	}
	return &value, nil
}
