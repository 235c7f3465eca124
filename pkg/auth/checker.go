package auth

import (
	"fmt"
	"os/user"
	"slices"

	"github.com/lsdn-core/lsdn/pkg/util"
)

// Policy is an in-memory authorization policy: who is a superuser, which
// groups hold which permissions globally or per net, and how groups map to
// member usernames. It carries no knowledge of the object graph itself.
type Policy struct {
	SuperUsers  []string              `yaml:"super_users,omitempty"`
	Permissions map[string][]string  `yaml:"permissions,omitempty"`
	NetPolicies map[string]*NetPolicy `yaml:"net_policies,omitempty"`
	UserGroups  map[string][]string  `yaml:"user_groups,omitempty"`
}

// NetPolicy holds permissions scoped to a single net.
type NetPolicy struct {
	Permissions map[string][]string `yaml:"permissions,omitempty"`
}

// NewPolicy creates an empty policy.
func NewPolicy() *Policy {
	return &Policy{
		Permissions: make(map[string][]string),
		NetPolicies: make(map[string]*NetPolicy),
		UserGroups:  make(map[string][]string),
	}
}

// Checker validates user permissions against a Policy.
type Checker struct {
	policy      *Policy
	currentUser string
}

// NewChecker creates a permission checker.
func NewChecker(policy *Policy) *Checker {
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	return &Checker{
		policy:      policy,
		currentUser: username,
	}
}

// SetUser overrides the current user (for testing or sudo).
func (c *Checker) SetUser(username string) {
	c.currentUser = username
}

// CurrentUser returns the current username.
func (c *Checker) CurrentUser() string {
	return c.currentUser
}

// Check verifies if the current user has a permission.
func (c *Checker) Check(permission Permission, ctx *Context) error {
	return c.CheckUser(c.currentUser, permission, ctx)
}

// CheckUser verifies if a specific user has a permission.
func (c *Checker) CheckUser(username string, permission Permission, ctx *Context) error {
	// Superusers can do anything
	if c.isSuperUser(username) {
		return nil
	}

	// Check net-specific permissions first
	if ctx != nil && ctx.Net != "" {
		if np, ok := c.policy.NetPolicies[ctx.Net]; ok {
			if allowed := c.checkNetPermission(username, permission, np); allowed {
				return nil
			}
		}
	}

	// Check global permissions
	if c.checkGlobalPermission(username, permission) {
		return nil
	}

	return &PermissionError{
		User:       username,
		Permission: permission,
		Context:    ctx,
	}
}

// IsSuperUser returns true if the current user is a superuser.
func (c *Checker) IsSuperUser() bool {
	return c.isSuperUser(c.currentUser)
}

func (c *Checker) isSuperUser(username string) bool {
	return slices.Contains(c.policy.SuperUsers, username)
}

func (c *Checker) checkNetPermission(username string, permission Permission, np *NetPolicy) bool {
	if np.Permissions == nil {
		return false
	}
	return c.checkPermissionMap(username, permission, np.Permissions)
}

func (c *Checker) checkGlobalPermission(username string, permission Permission) bool {
	return c.checkPermissionMap(username, permission, c.policy.Permissions)
}

// checkPermissionMap checks whether username has the given permission in permMap.
// It first checks the "all" wildcard key, then the specific permission key.
func (c *Checker) checkPermissionMap(username string, permission Permission, permMap map[string][]string) bool {
	// Check for "all" permission first
	if groups, ok := permMap["all"]; ok {
		if c.userInGroups(username, groups) {
			return true
		}
	}

	// Check specific permission
	groups, ok := permMap[string(permission)]
	if !ok {
		return false
	}

	return c.userInGroups(username, groups)
}

// ListPermissions returns every global permission the current user holds,
// superuser status collapsed to a single PermAll entry.
func (c *Checker) ListPermissions() []Permission {
	if c.isSuperUser(c.currentUser) {
		return []Permission{PermAll}
	}

	var perms []Permission
	for permStr, groups := range c.policy.Permissions {
		if permStr == string(PermAll) {
			continue
		}
		if c.userInGroups(c.currentUser, groups) {
			perms = append(perms, Permission(permStr))
		}
	}
	return perms
}

// GetUserGroups returns every group username belongs to.
func (c *Checker) GetUserGroups(username string) []string {
	var groups []string
	for group, members := range c.policy.UserGroups {
		if slices.Contains(members, username) {
			groups = append(groups, group)
		}
	}
	return groups
}

func (c *Checker) userInGroups(username string, allowedGroups []string) bool {
	for _, group := range allowedGroups {
		if group == username {
			return true
		}
		if members, ok := c.policy.UserGroups[group]; ok {
			if slices.Contains(members, username) {
				return true
			}
		}
	}
	return false
}

// PermissionError represents a permission denial.
type PermissionError struct {
	User       string
	Permission Permission
	Context    *Context
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied: user '%s' does not have '%s' permission", e.User, e.Permission)
	if e.Context != nil {
		if e.Context.Net != "" {
			msg += fmt.Sprintf(" for net '%s'", e.Context.Net)
		}
		if e.Context.ContextName != "" {
			msg += fmt.Sprintf(" in context '%s'", e.Context.ContextName)
		}
	}
	return msg
}

func (e *PermissionError) Unwrap() error {
	return util.ErrPermissionDenied
}
