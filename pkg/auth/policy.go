package auth

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPolicyPath returns the default location of the policy file.
func DefaultPolicyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/lsdn_policy.yaml"
	}
	return filepath.Join(home, ".lsdn", "policy.yaml")
}

// LoadPolicy reads a Policy from path. A missing file yields an empty
// Policy (every check then falls through to "denied") rather than an error,
// matching settings.LoadFrom's not-configured-yet behavior.
func LoadPolicy(path string) (*Policy, error) {
	p := NewPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if p.Permissions == nil {
		p.Permissions = make(map[string][]string)
	}
	if p.NetPolicies == nil {
		p.NetPolicies = make(map[string]*NetPolicy)
	}
	if p.UserGroups == nil {
		p.UserGroups = make(map[string][]string)
	}
	return p, nil
}

// SavePolicy writes p to path, creating parent directories as needed.
func SavePolicy(p *Policy, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
