package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns HTML documents into detected forms
type Extractor struct {
	limits Limits
}

// NewExtractor creates an extractor bounded by limits
func NewExtractor(limits Limits) *Extractor {
	return &Extractor{limits: limits}
}

var defaultExtractor = NewExtractor(DefaultLimits())

// Extract runs the default extractor over htmlStr
func Extract(htmlStr string) ([]DetectedForm, error) {
	return defaultExtractor.Extract(htmlStr)
}

// Extract returns every <form> in htmlStr, in document order, with its
// input, select and textarea descendants. Empty or form-less input yields
// an empty slice. The only error is ErrResourceExhausted.
func (e *Extractor) Extract(htmlStr string) ([]DetectedForm, error) {
	forms := []DetectedForm{}
	if strings.TrimSpace(htmlStr) == "" {
		return forms, nil
	}

	doc, err := loadDocument(htmlStr, e.limits)
	if err != nil {
		return nil, err
	}

	labels := indexLabels(doc)

	doc.FindMatcher(formMatcher).Each(func(idx int, form *goquery.Selection) {
		forms = append(forms, detectForm(idx, form, labels))
	})

	return forms, nil
}

func detectForm(idx int, form *goquery.Selection, labels labelIndex) DetectedForm {
	detected := DetectedForm{
		Name:     fmt.Sprintf("form_%d", idx+1),
		Selector: fmt.Sprintf("form:eq(%d)", idx),
		Fields:   []DetectedField{},
	}

	if action, ok := attr(form, "action"); ok {
		detected.Action = strings.TrimSpace(action)
	}
	if method, ok := attr(form, "method"); ok {
		detected.Method = strings.ToUpper(method)
	}

	id, hasID := attr(form, "id")
	if name, ok := attr(form, "name"); ok {
		detected.Name = name
	} else if hasID {
		detected.Name = id
	}
	if hasID {
		detected.Selector = "#" + id
	}

	form.FindMatcher(fieldMatcher).Each(func(_ int, el *goquery.Selection) {
		if field, ok := detectField(el, labels); ok {
			detected.Fields = append(detected.Fields, field)
		}
	})

	return detected
}

// detectField resolves one control. Controls without a name attribute are
// dropped rather than given a positional field_N name: stored schemas and
// the embed script rely on unnamed controls never appearing.
func detectField(el *goquery.Selection, labels labelIndex) (DetectedField, bool) {
	name, ok := attr(el, "name")
	if !ok {
		return DetectedField{}, false
	}

	field := DetectedField{
		Name:     name,
		Type:     tagName(el),
		Required: hasAttr(el, "required"),
	}
	if typ, ok := attr(el, "type"); ok {
		field.Type = typ
	}
	if placeholder, ok := attr(el, "placeholder"); ok {
		field.Placeholder = placeholder
	}
	field.Label = resolveLabel(el, labels)

	return field, true
}

func resolveLabel(el *goquery.Selection, labels labelIndex) string {
	if aria, ok := attr(el, "aria-label"); ok {
		return aria
	}
	if id, ok := attr(el, "id"); ok {
		if text := labels[id]; text != "" {
			return text
		}
	}
	return precedingLabel(el)
}
