// Package scraper detects HTML forms and the input controls inside them.
//
// The extractor is a pure function over its input: the same HTML always
// yields the same []DetectedForm, no I/O is performed and no state is shared
// between calls, so one Extractor may serve any number of goroutines.
//
// Parsing goes through golang.org/x/net/html (via goquery), which applies
// the HTML5 error-recovery rules, so broken markup produces a best-effort
// tree instead of an error. The only failure is ErrResourceExhausted, raised
// when a document exceeds the configured size or nesting limits.
//
// Label resolution order for each field:
//   - aria-label
//   - the first <label for="id"> anywhere in the document
//   - an immediately preceding sibling <label>
//
// Example Usage:
//
//	ex := scraper.NewExtractor(scraper.Limits{MaxHTMLSize: 10 << 20, MaxDepth: 512})
//	forms, err := ex.Extract(html)
package scraper
