// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Trajectory arcs with rigid rotation, rise/set crossings, JSON export
// 0.2.0 - Bright star catalog, constellation lines, Moon orbit and phase
// 0.1.0 - Initial release: sky dome TUI, simulation clock, headless positions table
