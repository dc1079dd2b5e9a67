// Package worker runs one catalog computation per task in a separate OS
// process and hands its result back through a conduit.
//
// The orchestrator re-executes its own binary with the Subcommand argument;
// the child evaluates the function, writes one frame on file descriptor 3
// and exits. A crash, signal or hang inside the child cannot touch the
// orchestrator's memory, and Kill terminates the child's whole process group.
package worker
