// Package fetch retrieves web pages as UTF-8 HTML for form detection.
//
// A Client wraps resty on top of a go-retryablehttp transport:
//   - transient failures (transport errors, 429, 5xx) are retried with backoff
//   - each remote host gets its own circuit breaker
//   - an optional token bucket limits outbound request rate
//   - redirects are followed up to a bound and only to http/https URLs
//   - bodies are decompressed (gzip, deflate, zstd), size-bounded,
//     sniffed for textual content and converted to UTF-8
//
// Every failure is reported as *Error with a Kind, except an oversized body,
// which wraps scraper.ErrResourceExhausted.
package fetch
