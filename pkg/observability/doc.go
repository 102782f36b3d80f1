/*
Package observability turns materialization lifecycle events into Prometheus metrics.

Metrics.Hooks returns domain.LifecycleHooks that can be passed to a session or an engine;
Metrics.Handler exposes the registry over HTTP.
*/
package observability
