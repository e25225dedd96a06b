/*
Package observability provides tools for monitoring Scribe sessions.

It turns session lifecycle hooks into structured log lines and Prometheus
metrics. Hooks from this package can be combined with caller-supplied ones
through domain.MergeHooks.
*/
package observability
