package auth

import (
	"errors"
	"testing"

	"github.com/lsdn-core/lsdn/pkg/util"
)

func TestContext_Chaining(t *testing.T) {
	ctx := NewContext().
		WithContextName("lab1").
		WithNet("customer-l3").
		WithPhys("host1").
		WithVirt("web0").
		WithResource("vlan100")

	if ctx.ContextName != "lab1" {
		t.Errorf("ContextName = %q", ctx.ContextName)
	}
	if ctx.Net != "customer-l3" {
		t.Errorf("Net = %q", ctx.Net)
	}
	if ctx.Phys != "host1" {
		t.Errorf("Phys = %q", ctx.Phys)
	}
	if ctx.Virt != "web0" {
		t.Errorf("Virt = %q", ctx.Virt)
	}
	if ctx.Resource != "vlan100" {
		t.Errorf("Resource = %q", ctx.Resource)
	}
}

func createTestPolicy() *Policy {
	return &Policy{
		SuperUsers: []string{"admin", "root"},
		UserGroups: map[string][]string{
			"neteng": {"alice", "bob"},
			"netops": {"charlie", "diana"},
			"viewer": {"eve"},
		},
		Permissions: map[string][]string{
			"all":           {"neteng"},
			"net.create":    {"neteng", "netops"},
			"net.delete":    {"neteng", "netops", "viewer"},
			"settings.create": {"neteng"},
			"context.commit":  {"neteng", "netops", "viewer"},
		},
		NetPolicies: map[string]*NetPolicy{
			"customer-l3": {
				Permissions: map[string][]string{
					"net.create": {"netops"}, // More restrictive
				},
			},
			"transit": {
				Permissions: map[string][]string{
					"all": {"neteng"}, // Only neteng
				},
			},
		},
	}
}

func TestChecker_SuperUser(t *testing.T) {
	policy := createTestPolicy()
	checker := NewChecker(policy)
	checker.SetUser("admin")

	// Superuser should pass all checks
	if err := checker.Check(PermNetCreate, nil); err != nil {
		t.Errorf("Superuser should be allowed: %v", err)
	}
	if err := checker.Check(PermCommit, nil); err != nil {
		t.Errorf("Superuser should be allowed: %v", err)
	}

	if !checker.IsSuperUser() {
		t.Error("admin should be superuser")
	}
}

func TestChecker_GlobalPermissions(t *testing.T) {
	policy := createTestPolicy()
	checker := NewChecker(policy)

	t.Run("user in allowed group", func(t *testing.T) {
		checker.SetUser("alice") // In neteng
		if err := checker.Check(PermNetCreate, nil); err != nil {
			t.Errorf("alice (neteng) should have net.create: %v", err)
		}
	})

	t.Run("user with 'all' permission", func(t *testing.T) {
		checker.SetUser("bob") // In neteng which has 'all'
		if err := checker.Check(PermSettingsCreate, nil); err != nil {
			t.Errorf("bob (neteng with 'all') should have settings.create: %v", err)
		}
	})

	t.Run("user without permission", func(t *testing.T) {
		checker.SetUser("eve") // In viewer only
		if err := checker.Check(PermNetCreate, nil); err == nil {
			t.Error("eve (viewer) should not have net.create")
		}
	})
}

func TestChecker_NetPermissions(t *testing.T) {
	policy := createTestPolicy()
	checker := NewChecker(policy)

	t.Run("net-specific override", func(t *testing.T) {
		checker.SetUser("charlie") // In netops
		ctx := NewContext().WithNet("customer-l3")

		// charlie should have net.create for customer-l3 (net override)
		if err := checker.Check(PermNetCreate, ctx); err != nil {
			t.Errorf("charlie should have permission via net override: %v", err)
		}
	})

	t.Run("net with 'all' permission", func(t *testing.T) {
		checker.SetUser("alice") // In neteng
		ctx := NewContext().WithNet("transit")

		// alice should have any permission on transit (net has 'all' for neteng)
		if err := checker.Check(PermNetCreate, ctx); err != nil {
			t.Errorf("alice should have permission via net 'all': %v", err)
		}
	})

	t.Run("no net permission falls back to global", func(t *testing.T) {
		checker.SetUser("diana") // In netops
		ctx := NewContext().WithNet("transit")

		// diana is netops, transit has no netops permission, but global does for net.delete
		if err := checker.Check(PermNetDelete, ctx); err != nil {
			t.Errorf("diana should have permission via global fallback: %v", err)
		}
	})
}

func TestChecker_PermissionError(t *testing.T) {
	policy := createTestPolicy()
	checker := NewChecker(policy)
	checker.SetUser("eve")

	ctx := NewContext().WithNet("customer-l3").WithContextName("lab1")
	err := checker.Check(PermNetCreate, ctx)

	if err == nil {
		t.Fatal("Expected error")
	}

	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("Expected PermissionError, got %T", err)
	}

	if permErr.User != "eve" {
		t.Errorf("User = %q", permErr.User)
	}
	if permErr.Permission != PermNetCreate {
		t.Errorf("Permission = %q", permErr.Permission)
	}

	// Check error message
	msg := err.Error()
	if msg == "" {
		t.Error("Error message should not be empty")
	}

	// Check unwrap
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Error("Should unwrap to ErrPermissionDenied")
	}
}

func TestChecker_ListPermissions(t *testing.T) {
	policy := createTestPolicy()
	checker := NewChecker(policy)

	t.Run("superuser", func(t *testing.T) {
		checker.SetUser("admin")
		perms := checker.ListPermissions()
		if len(perms) != 1 || perms[0] != PermAll {
			t.Errorf("Superuser should have PermAll only, got %v", perms)
		}
	})

	t.Run("regular user", func(t *testing.T) {
		checker.SetUser("eve") // In viewer
		perms := checker.ListPermissions()

		// eve should have net.delete and context.commit (via viewer group)
		permMap := make(map[Permission]bool)
		for _, p := range perms {
			permMap[p] = true
		}

		if !permMap[PermNetDelete] {
			t.Error("eve should have net.delete")
		}
		if !permMap[PermCommit] {
			t.Error("eve should have context.commit")
		}
		if permMap[PermNetCreate] {
			t.Error("eve should not have net.create")
		}
	})
}

func TestChecker_GetUserGroups(t *testing.T) {
	policy := createTestPolicy()
	checker := NewChecker(policy)

	groups := checker.GetUserGroups("alice")
	if len(groups) != 1 || groups[0] != "neteng" {
		t.Errorf("alice groups = %v, want [neteng]", groups)
	}

	groups = checker.GetUserGroups("unknown")
	if len(groups) != 0 {
		t.Errorf("unknown user should have no groups, got %v", groups)
	}
}

func TestChecker_DirectUserPermission(t *testing.T) {
	policy := &Policy{
		Permissions: map[string][]string{
			"net.create": {"direct-user"}, // Direct user, not a group
		},
	}
	checker := NewChecker(policy)
	checker.SetUser("direct-user")

	if err := checker.Check(PermNetCreate, nil); err != nil {
		t.Errorf("Direct user permission should work: %v", err)
	}
}

func TestChecker_CurrentUser(t *testing.T) {
	policy := createTestPolicy()
	checker := NewChecker(policy)

	// Initially should have some username (from os/user)
	if checker.CurrentUser() == "" {
		t.Error("CurrentUser should not be empty after NewChecker")
	}

	// After SetUser, should return the set user
	checker.SetUser("test-user")
	if checker.CurrentUser() != "test-user" {
		t.Errorf("CurrentUser() = %q, want %q", checker.CurrentUser(), "test-user")
	}
}

func TestChecker_NetWithNilPermissions(t *testing.T) {
	policy := &Policy{
		SuperUsers: []string{},
		UserGroups: map[string][]string{
			"neteng": {"alice"},
		},
		Permissions: map[string][]string{
			"net.create": {"neteng"},
		},
		NetPolicies: map[string]*NetPolicy{
			"no-perms-net": {
				Permissions: nil, // Explicitly nil
			},
		},
	}
	checker := NewChecker(policy)
	checker.SetUser("alice")

	// Should fall back to global permissions
	ctx := NewContext().WithNet("no-perms-net")
	if err := checker.Check(PermNetCreate, ctx); err != nil {
		t.Errorf("Should fall back to global permission: %v", err)
	}
}

func TestChecker_GlobalPermissionNotFound(t *testing.T) {
	policy := &Policy{
		SuperUsers:  []string{},
		UserGroups:  map[string][]string{},
		Permissions: map[string][]string{}, // No permissions defined
	}
	checker := NewChecker(policy)
	checker.SetUser("anyone")

	err := checker.Check(PermNetCreate, nil)
	if err == nil {
		t.Error("Should be denied when no permissions defined")
	}
}

func TestChecker_GlobalAllPermissionNotGranted(t *testing.T) {
	// Test case where 'all' permission exists but user is not in those groups
	policy := &Policy{
		SuperUsers: []string{},
		UserGroups: map[string][]string{
			"admins": {"admin-user"},
			"users":  {"normal-user"},
		},
		Permissions: map[string][]string{
			"all": {"admins"}, // Only admins have 'all'
		},
	}
	checker := NewChecker(policy)
	checker.SetUser("normal-user")

	// normal-user should be denied (not in admins group)
	err := checker.Check(PermNetCreate, nil)
	if err == nil {
		t.Error("normal-user should not have permission via 'all'")
	}
}

func TestChecker_NetAllPermissionNotGranted(t *testing.T) {
	policy := &Policy{
		SuperUsers: []string{},
		UserGroups: map[string][]string{
			"admins": {"admin-user"},
			"users":  {"normal-user"},
		},
		Permissions: map[string][]string{},
		NetPolicies: map[string]*NetPolicy{
			"restricted": {
				Permissions: map[string][]string{
					"all": {"admins"}, // Only admins have 'all' on this net
				},
			},
		},
	}
	checker := NewChecker(policy)
	checker.SetUser("normal-user")

	ctx := NewContext().WithNet("restricted")
	err := checker.Check(PermNetCreate, ctx)
	if err == nil {
		t.Error("normal-user should not have permission via net 'all'")
	}
}

func TestPermissionError_ContextVariations(t *testing.T) {
	t.Run("nil context", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermNetCreate,
			Context:    nil,
		}
		msg := err.Error()
		if msg == "" {
			t.Error("Error message should not be empty")
		}
		// Should not contain "for net" or "in context" when context is nil
		if contains(msg, "for net") || contains(msg, "in context") {
			t.Error("Should not mention 'for net'/'in context' when context is nil")
		}
	})

	t.Run("context with net only", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermNetCreate,
			Context:    &Context{Net: "test-net"},
		}
		msg := err.Error()
		if !contains(msg, "test-net") {
			t.Error("Should mention net name")
		}
	})

	t.Run("context with context name only", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermNetCreate,
			Context:    &Context{ContextName: "lab1"},
		}
		msg := err.Error()
		if !contains(msg, "lab1") {
			t.Error("Should mention context name")
		}
	})

	t.Run("context with both net and context name", func(t *testing.T) {
		err := &PermissionError{
			User:       "alice",
			Permission: PermNetCreate,
			Context:    &Context{Net: "net1", ContextName: "ctx1"},
		}
		msg := err.Error()
		if !contains(msg, "net1") || !contains(msg, "ctx1") {
			t.Error("Should mention both net and context name")
		}
	})
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
