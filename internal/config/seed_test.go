package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

const seedYAML = `
managers:
  emails: ["Lead.Nurse@Hospital.org"]
  roles: [hospital_admin]
overrides:
  - email: Nurse@Hospital.org
    modules:
      lab:
        flags:
          can_view: true
          can_create: true
        restricted_features: [Create]
      billing: {}
`

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("parse seed: %v", err)
	}
	if len(seed.Managers.Emails) != 1 || seed.Managers.Emails[0] != "lead.nurse@hospital.org" {
		t.Fatalf("unexpected manager emails %v", seed.Managers.Emails)
	}
	if len(seed.Managers.Roles) != 1 || seed.Managers.Roles[0] != domain.RoleHospitalAdmin {
		t.Fatalf("unexpected manager roles %v", seed.Managers.Roles)
	}
	if len(seed.Overrides) != 2 {
		t.Fatalf("expected 2 module overrides, got %d", len(seed.Overrides))
	}
	billing, lab := seed.Overrides[0], seed.Overrides[1]
	if billing.Module != domain.ModuleBilling || billing.Override.Flags != nil {
		t.Fatalf("unexpected billing override %+v", billing)
	}
	if lab.Email != "nurse@hospital.org" || lab.Module != domain.ModuleLab {
		t.Fatalf("unexpected lab override %+v", lab)
	}
	if !lab.Override.Restricts(domain.FeatureCreate) {
		t.Fatalf("expected create restricted")
	}
	if flags := lab.Override.Flags.Fill(); !flags.CanView || !flags.CanCreate || flags.CanEdit {
		t.Fatalf("unexpected flags %+v", flags)
	}
}

func TestParseSeedRejectsUnknownValues(t *testing.T) {
	cases := map[string]string{
		"role":    "managers:\n  roles: [janitor]\n",
		"email":   "managers:\n  emails: [nobody]\n",
		"module":  "overrides:\n  - email: a@b.org\n    modules:\n      morgue: {}\n",
		"feature": "overrides:\n  - email: a@b.org\n    modules:\n      lab:\n        restricted_features: [export]\n",
	}
	for name, doc := range cases {
		if _, err := ParseSeed([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := LoadSeed(path); err != nil {
		t.Fatalf("load seed: %v", err)
	}
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "seed: read") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTHZ_SNAPSHOT_TTL_SECONDS", "")
	t.Setenv("APP_HOST", "")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_DB", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr %s", cfg.App.Addr())
	}
	if cfg.Authz.SnapshotTTL().Seconds() != 30 {
		t.Fatalf("unexpected ttl %v", cfg.Authz.SnapshotTTL())
	}
}
