// Package registry holds the single authoritative set of tasks and their
// worker handles. A task is live from registration until its termination
// has been observed and its result collected; after that only the result
// remains.
package registry
