// Package testutil contains helper builders used across tests to reduce
// boilerplate when scripting model output (decisions, summaries) and when
// standing up recording toolsets. They are not intended for production usage.
package testutil
