// Package bench measures latency over many independent executions of
// one request. Executions never queue behind or depend on each other;
// only the aggregate counters and histogram are shared.
package bench
