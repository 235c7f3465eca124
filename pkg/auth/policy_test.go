package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPolicy_NonExistent(t *testing.T) {
	p, err := LoadPolicy("/nonexistent/policy.yaml")
	if err != nil {
		t.Fatalf("LoadPolicy() non-existent should not error: %v", err)
	}
	if p == nil || p.Permissions == nil {
		t.Fatal("LoadPolicy() should return an initialized empty Policy")
	}
}

func TestSaveLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")

	original := &Policy{
		SuperUsers: []string{"admin"},
		Permissions: map[string][]string{
			"net.create": {"neteng"},
		},
		UserGroups: map[string][]string{
			"neteng": {"alice"},
		},
		NetPolicies: map[string]*NetPolicy{
			"transit": {Permissions: map[string][]string{"all": {"neteng"}}},
		},
	}

	if err := SavePolicy(original, path); err != nil {
		t.Fatalf("SavePolicy() failed: %v", err)
	}

	loaded, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() failed: %v", err)
	}

	checker := NewChecker(loaded)
	checker.SetUser("alice")
	if err := checker.Check(PermNetCreate, nil); err != nil {
		t.Errorf("alice should have net.create after reload: %v", err)
	}
	if checker.IsSuperUser() {
		t.Error("alice should not be a superuser")
	}

	checker.SetUser("admin")
	if !checker.IsSuperUser() {
		t.Error("admin should be superuser after reload")
	}

	ctx := NewContext().WithNet("transit")
	checker.SetUser("alice")
	if err := checker.Check(PermNetDelete, ctx); err != nil {
		t.Errorf("alice should have all permissions on transit: %v", err)
	}
}

func TestLoadPolicy_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte("super_users: [unterminated"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Error("LoadPolicy() should error on invalid YAML")
	}
}

func TestSavePolicy_MkdirError(t *testing.T) {
	dir := t.TempDir()
	blockingFile := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blockingFile, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	path := filepath.Join(blockingFile, "subdir", "policy.yaml")
	if err := SavePolicy(NewPolicy(), path); err == nil {
		t.Error("SavePolicy() should fail when directory creation fails")
	}
}
