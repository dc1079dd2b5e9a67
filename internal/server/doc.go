// Package server exposes the orchestrator's metrics and health on an
// optional local HTTP listener. It never accepts commands.
package server
