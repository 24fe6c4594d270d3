package platform

import "strings"

// Permission is a bit set of platform permissions.
type Permission int64

// Permission bits, values match the platform's API.
const (
	PermViewChannel   Permission = 1 << 10
	PermSendMessages  Permission = 1 << 11
	PermEmbedLinks    Permission = 1 << 14
	PermAttachFiles   Permission = 1 << 15
	PermManageRoles   Permission = 1 << 28
	PermAdministrator Permission = 1 << 3
)

var permissionNames = []struct {
	perm Permission
	name string
}{
	{PermAdministrator, "Administrator"},
	{PermViewChannel, "View Channel"},
	{PermSendMessages, "Send Messages"},
	{PermEmbedLinks, "Embed Links"},
	{PermAttachFiles, "Attach Files"},
	{PermManageRoles, "Manage Roles"},
}

// Has reports whether every bit in want is set. Administrator implies all.
func (p Permission) Has(want Permission) bool {
	if p&PermAdministrator != 0 {
		return true
	}
	return p&want == want
}

// String lists the named permissions in p.
func (p Permission) String() string {
	var names []string
	for _, pn := range permissionNames {
		if p&pn.perm != 0 {
			names = append(names, pn.name)
		}
	}
	return strings.Join(names, ", ")
}

// Combine ORs a list of permissions into one set.
func Combine(perms []Permission) Permission {
	var out Permission
	for _, p := range perms {
		out |= p
	}
	return out
}
