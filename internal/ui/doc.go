// Package ui holds the color themes shared by the REPL and the watch
// dashboard. All output styling goes through the current theme so that
// --no-color and NO_COLOR switch everything off in one place.
package ui
