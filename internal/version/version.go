// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Locked camera follow, selection event stream, headless snapshot export
// 0.2.0 - Ray picking, billboard labels, asteroid field
// 0.1.0 - Initial release: scene graph, orbital kinematics, terminal renderer
