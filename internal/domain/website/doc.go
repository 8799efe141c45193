// Package website manages registered websites and their forms.
//
// A Manager owns the website lifecycle: registration (idempotent by URL),
// listing with form and lead counts, updates, cascading deletes and secret
// key rotation. It also drives form detection, either on submitted HTML or
// on a fetched page, and stores the operator's chosen form set.
package website
