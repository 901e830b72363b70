package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// Seed is the bootstrap settings file applied at startup.
type Seed struct {
	Managers  SeedManagers   `yaml:"managers"`
	Overrides []SeedOverride `yaml:"overrides"`
}

// SeedManagers lists the initial permission managers.
type SeedManagers struct {
	Emails []string `yaml:"emails"`
	Roles  []string `yaml:"roles"`
}

// SeedOverride is one email's module overrides.
type SeedOverride struct {
	Email   string                        `yaml:"email"`
	Modules map[string]SeedModuleOverride `yaml:"modules"`
}

// SeedModuleOverride mirrors domain.ModuleOverride in YAML form.
type SeedModuleOverride struct {
	Flags              *domain.FlagPatch `yaml:"flags,omitempty"`
	RestrictedFeatures []string          `yaml:"restricted_features,omitempty"`
}

// SeedData is the validated, normalized content of a seed file.
type SeedData struct {
	Managers  domain.ManagerRegistry
	Overrides []SeedOverrideData
}

// SeedOverrideData is a validated override for one module.
type SeedOverrideData struct {
	Email    domain.Email
	Module   domain.Module
	Override domain.ModuleOverride
}

// LoadSeed reads and validates a YAML seed file.
func LoadSeed(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed validates raw YAML seed content.
func ParseSeed(data []byte) (*SeedData, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}

	out := &SeedData{}
	for _, raw := range seed.Managers.Emails {
		email, err := domain.NormalizeEmail(raw)
		if err != nil {
			return nil, fmt.Errorf("seed: manager email %q: %w", raw, err)
		}
		out.Managers.Emails = append(out.Managers.Emails, email)
	}
	for _, raw := range seed.Managers.Roles {
		role, ok := domain.ParseRole(raw)
		if !ok {
			return nil, fmt.Errorf("seed: unknown manager role %q", raw)
		}
		out.Managers.Roles = append(out.Managers.Roles, role)
	}

	for _, entry := range seed.Overrides {
		email, err := domain.NormalizeEmail(entry.Email)
		if err != nil {
			return nil, fmt.Errorf("seed: override email %q: %w", entry.Email, err)
		}
		names := make([]string, 0, len(entry.Modules))
		for name := range entry.Modules {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			module, ok := domain.ParseModule(name)
			if !ok {
				return nil, fmt.Errorf("seed: %s: unknown module %q", email, name)
			}
			rawOverride := entry.Modules[name]
			override := domain.ModuleOverride{Flags: rawOverride.Flags, RestrictedFeatures: []domain.Feature{}}
			for _, rawFeature := range rawOverride.RestrictedFeatures {
				feature, ok := domain.ParseFeature(rawFeature)
				if !ok {
					return nil, fmt.Errorf("seed: %s/%s: unknown feature %q", email, module, rawFeature)
				}
				override.RestrictedFeatures = append(override.RestrictedFeatures, feature)
			}
			out.Overrides = append(out.Overrides, SeedOverrideData{Email: email, Module: module, Override: override})
		}
	}
	return out, nil
}
