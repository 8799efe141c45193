/*
Package resilience provides a circuit breaker for outbound page fetches.

A website that keeps timing out or returning 5xx should not tie up scan
requests for the full fetch timeout on every attempt. The fetcher keeps one
Breaker per remote host through a Group; once a host trips, scans of that
host fail fast with ErrCircuitOpen until the open timeout elapses and a
trial request succeeds.

# Usage

	group := resilience.NewGroup(resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})

	err := group.Get(host).Execute(func() error {
		return doRequest()
	})
*/
package resilience
