package git

import "errors"

// ErrNotFound is returned by git services when the requested object (file,
// repository, team) does not exist on the remote
var ErrNotFound = errors.New("not found")

// Permission is the access level granted to a user or team on a repository
type Permission string

const (
	PermissionPull     Permission = "pull"
	PermissionTriage   Permission = "triage"
	PermissionPush     Permission = "push"
	PermissionMaintain Permission = "maintain"
	PermissionAdmin    Permission = "admin"
)

// Permissions lists every permission accepted by the remote API
var Permissions = []Permission{
	PermissionPull,
	PermissionTriage,
	PermissionPush,
	PermissionMaintain,
	PermissionAdmin,
}

// Valid reports whether p is one of the known permissions. An empty
// permission is not valid, callers decide whether absence is allowed.
func (p Permission) Valid() bool {
	for _, known := range Permissions {
		if p == known {
			return true
		}
	}
	return false
}

func (p Permission) String() string {
	return string(p)
}
