// Package server assembles the leadform service: configuration, logging,
// metrics, the store, the page fetcher, the domain managers and the gin
// router with its middleware stack.
package server
