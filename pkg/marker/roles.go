package marker

import "github.com/teslashibe/go-arucogl/pkg/camera"

// Roles decides which detected marker anchors the scene and which one orbits
// it.
//
// Positional mode uses sequence order: index 0 anchors and index 1 orbits.
// Detection order is not stable between frames, so the roles can swap when
// both markers are visible. ID mode picks markers by their decoded id instead.
type Roles struct {
	Mode      string
	AnchorID  int
	OrbiterID int
}

// PositionalRoles is the default role assignment.
func PositionalRoles() Roles {
	return Roles{Mode: camera.RolesPositional}
}

// Assign returns the sequence indices of the anchor and orbiter, -1 when a
// role is not present in markers.
func (r Roles) Assign(markers []Marker) (anchor, orbiter int) {
	if r.Mode == camera.RolesByID {
		return FindByID(markers, r.AnchorID), FindByID(markers, r.OrbiterID)
	}

	anchor, orbiter = -1, -1
	if len(markers) > 0 {
		anchor = 0
	}
	if len(markers) > 1 {
		orbiter = 1
	}
	return anchor, orbiter
}
