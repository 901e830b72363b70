package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

func pendingRequest(id string, email domain.Email, createdAt time.Time) *domain.AccessRequest {
	return &domain.AccessRequest{
		ID:             id,
		RequesterEmail: email,
		RequesterRole:  domain.RoleNurse,
		Module:         domain.ModulePatients,
		Feature:        domain.FeatureEdit,
		Reason:         "shift cover",
		Status:         domain.AccessRequestPending,
		CreatedAt:      createdAt,
	}
}

func TestMemoryAccessRequestRejectsSecondPending(t *testing.T) {
	repo := NewMemoryAccessRequestRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, pendingRequest("a", "n@h.org", now)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	stored, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.AccessRequestPending || stored.ReviewerEmail != nil || stored.ReviewerRole != nil ||
		stored.ReviewedAt != nil || stored.ReviewComment != nil {
		t.Fatalf("new request must carry no review fields: %+v", stored)
	}
	if err := repo.Create(ctx, pendingRequest("b", "n@h.org", now)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := repo.Create(ctx, pendingRequest("c", "other@h.org", now)); err != nil {
		t.Fatalf("other requester: %v", err)
	}
}

func TestMemoryAccessRequestReviewOnlyOnce(t *testing.T) {
	repo := NewMemoryAccessRequestRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, pendingRequest("a", "n@h.org", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Review(ctx, "a", domain.AccessReview{
				Status:        domain.AccessRequestApproved,
				ReviewerEmail: "boss@h.org",
				ReviewerRole:  domain.RoleHospitalAdmin,
				ReviewedAt:    time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrNotPending):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if successes != 1 || conflicts != 7 {
		t.Fatalf("expected 1 success and 7 conflicts, got %d and %d", successes, conflicts)
	}

	if _, err := repo.Review(ctx, "missing", domain.AccessReview{Status: domain.AccessRequestRejected}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAccessRequestListNewestFirst(t *testing.T) {
	repo := NewMemoryAccessRequestRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	older := pendingRequest("old", "a@h.org", base)
	newer := pendingRequest("new", "b@h.org", base.Add(time.Hour))
	for _, req := range []*domain.AccessRequest{older, newer} {
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := repo.List(ctx, AccessRequestFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "new" || all[1].ID != "old" {
		t.Fatalf("unexpected order: %+v", all)
	}

	email := domain.Email("a@h.org")
	mine, err := repo.List(ctx, AccessRequestFilter{RequesterEmail: &email})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "old" {
		t.Fatalf("expected only own request, got %+v", mine)
	}
}

func TestMemoryOverrideRepositoryCopiesValues(t *testing.T) {
	repo := NewMemoryOverrideRepository()
	ctx := context.Background()
	view := true

	override := domain.ModuleOverride{
		Flags:              &domain.FlagPatch{CanView: &view},
		RestrictedFeatures: []domain.Feature{domain.FeatureEdit},
	}
	if _, err := repo.UpsertModule(ctx, "d@h.org", domain.ModulePatients, override); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	override.RestrictedFeatures[0] = domain.FeatureDelete

	entry, err := repo.Get(ctx, "d@h.org")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	stored, ok := entry.Module(domain.ModulePatients)
	if !ok || !stored.Restricts(domain.FeatureEdit) || stored.Restricts(domain.FeatureDelete) {
		t.Fatalf("stored override was aliased: %+v", stored)
	}

	if err := repo.DeleteModule(ctx, "d@h.org", domain.ModulePatients); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "d@h.org"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected entry removed, got %v", err)
	}
	if err := repo.DeleteModule(ctx, "d@h.org", domain.ModulePatients); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryManagerRepository(t *testing.T) {
	repo := NewMemoryManagerRepository()
	ctx := context.Background()

	if err := repo.AddEmail(ctx, "m@h.org"); err != nil {
		t.Fatalf("add email: %v", err)
	}
	if err := repo.AddRole(ctx, domain.RoleHospitalAdmin); err != nil {
		t.Fatalf("add role: %v", err)
	}
	registry, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(registry.Emails) != 1 || len(registry.Roles) != 1 {
		t.Fatalf("unexpected registry: %+v", registry)
	}
	if err := repo.RemoveRole(ctx, domain.RoleDoctor); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
