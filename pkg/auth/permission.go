// Package auth provides permission-based access control over context mutations.
package auth

// Permission defines an action that can be controlled.
type Permission string

// Standard permissions
const (
	PermNetCreate Permission = "net.create"
	PermNetModify Permission = "net.modify"
	PermNetDelete Permission = "net.delete"
	PermNetView   Permission = "net.view"

	PermPhysCreate Permission = "phys.create"
	PermPhysModify Permission = "phys.modify"
	PermPhysDelete Permission = "phys.delete"
	PermPhysView   Permission = "phys.view"

	PermAttachCreate Permission = "attachment.create"
	PermAttachDelete Permission = "attachment.delete"
	PermAttachView   Permission = "attachment.view"

	PermVirtConnect    Permission = "virt.connect"
	PermVirtDisconnect Permission = "virt.disconnect"
	PermVirtModify     Permission = "virt.modify"
	PermVirtView       Permission = "virt.view"

	PermSettingsCreate Permission = "settings.create"
	PermSettingsDelete Permission = "settings.delete"
	PermSettingsView   Permission = "settings.view"

	PermValidate Permission = "context.validate"
	PermCommit   Permission = "context.commit"
	PermFree     Permission = "context.free"

	PermAuditView Permission = "audit.view"

	PermAll Permission = "all" // Superuser - allows everything
)

// PermissionCategory groups related permissions.
type PermissionCategory struct {
	Name        string
	Description string
	Permissions []Permission
}

// StandardCategories defines standard permission categories.
var StandardCategories = []PermissionCategory{
	{
		Name:        "net",
		Description: "Net lifecycle management",
		Permissions: []Permission{PermNetCreate, PermNetModify, PermNetDelete, PermNetView},
	},
	{
		Name:        "phys",
		Description: "Physical host management",
		Permissions: []Permission{PermPhysCreate, PermPhysModify, PermPhysDelete, PermPhysView},
	},
	{
		Name:        "attachment",
		Description: "Net-to-phys attachment management",
		Permissions: []Permission{PermAttachCreate, PermAttachDelete, PermAttachView},
	},
	{
		Name:        "virt",
		Description: "Virtual interface management",
		Permissions: []Permission{PermVirtConnect, PermVirtDisconnect, PermVirtModify, PermVirtView},
	},
	{
		Name:        "settings",
		Description: "Nettype settings management",
		Permissions: []Permission{PermSettingsCreate, PermSettingsDelete, PermSettingsView},
	},
	{
		Name:        "context",
		Description: "Validate/commit/free on the whole context",
		Permissions: []Permission{PermValidate, PermCommit, PermFree},
	},
	{
		Name:        "audit",
		Description: "Audit log access",
		Permissions: []Permission{PermAuditView},
	},
}

// Context provides context for a permission check.
type Context struct {
	ContextName string
	Net         string
	Phys        string
	Virt        string
	Resource    string
}

// NewContext creates a new permission context.
func NewContext() *Context {
	return &Context{}
}

// WithContextName sets the target context's name.
func (c *Context) WithContextName(name string) *Context {
	c.ContextName = name
	return c
}

// WithNet sets the net context.
func (c *Context) WithNet(net string) *Context {
	c.Net = net
	return c
}

// WithPhys sets the phys context.
func (c *Context) WithPhys(phys string) *Context {
	c.Phys = phys
	return c
}

// WithVirt sets the virt context.
func (c *Context) WithVirt(virt string) *Context {
	c.Virt = virt
	return c
}

// WithResource sets a generic resource context.
func (c *Context) WithResource(resource string) *Context {
	c.Resource = resource
	return c
}

// IsReadOnly returns true if the permission is read-only.
func (p Permission) IsReadOnly() bool {
	switch p {
	case PermNetView, PermPhysView, PermAttachView, PermVirtView, PermSettingsView, PermAuditView:
		return true
	}
	return false
}

// IsWriteOperation returns true if the permission involves a mutation.
func (p Permission) IsWriteOperation() bool {
	return !p.IsReadOnly() && p != PermValidate
}

// RequiresCommit returns true if the permission only takes effect once the
// context is committed, rather than immediately on the in-memory graph.
func (p Permission) RequiresCommit() bool {
	return p.IsWriteOperation() && p != PermCommit && p != PermFree
}
