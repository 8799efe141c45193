package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// loadDocument parses htmlStr within the given limits. Malformed markup is
// never an error; only limit violations are.
func loadDocument(htmlStr string, limits Limits) (*goquery.Document, error) {
	if limits.MaxHTMLSize > 0 && len(htmlStr) > limits.MaxHTMLSize {
		return nil, fmt.Errorf("%w: %w (%d bytes, max %d)",
			ErrResourceExhausted, ErrDocumentTooLarge, len(htmlStr), limits.MaxHTMLSize)
	}

	// strings.Reader never fails, so a parse error can only be the parser
	// refusing an excessively deep open-element stack.
	root, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrResourceExhausted, ErrDocumentTooDeep, err)
	}

	if limits.MaxDepth > 0 {
		if depth := maxDepth(root); depth > limits.MaxDepth {
			return nil, fmt.Errorf("%w: %w (depth %d, max %d)",
				ErrResourceExhausted, ErrDocumentTooDeep, depth, limits.MaxDepth)
		}
	}

	return goquery.NewDocumentFromNode(root), nil
}

// maxDepth returns the deepest element nesting level below root.
// Iterative so hostile input cannot grow the goroutine stack.
func maxDepth(root *html.Node) int {
	type frame struct {
		node  *html.Node
		depth int
	}

	deepest := 0
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > deepest {
			deepest = f.depth
		}
		for c := f.node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				stack = append(stack, frame{c, f.depth + 1})
			}
		}
	}
	return deepest
}
