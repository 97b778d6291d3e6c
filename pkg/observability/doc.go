/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

Hook sets compose with Combine, so metrics and debug logging can be attached
to the same engine.
*/
package observability
