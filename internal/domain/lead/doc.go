// Package lead records form submissions against registered websites.
//
// Leads arrive two ways. Collect is the public path used by embedded
// snippets: the caller proves ownership of a website with its secret key.
// Create is the dashboard path and skips the secret. Both resolve the
// target form by name within the website and refuse inactive websites.
//
// String values are sanitized with a strict HTML policy before storage, so
// stored lead data never carries markup.
package lead
