// Package logging provides a unified logging interface for the component
// manager. It abstracts the underlying logging implementation, allowing
// consistent logging across the orchestrator, the registry and the
// cancellation handler while supporting multiple backends.
package logging
