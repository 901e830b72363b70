package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// In-memory implementations back local runs without POSTGRES_DSN and tests.
// Each guards its state with a RWMutex and copies values across the boundary.

type memoryOverrideRepository struct {
	mu      sync.RWMutex
	entries map[domain.Email]*domain.OverrideEntry
	now     func() time.Time
}

// NewMemoryOverrideRepository returns an in-memory OverrideRepository.
func NewMemoryOverrideRepository() OverrideRepository {
	return &memoryOverrideRepository{entries: map[domain.Email]*domain.OverrideEntry{}, now: time.Now}
}

func (r *memoryOverrideRepository) Get(_ context.Context, email domain.Email) (*domain.OverrideEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[email]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.Clone(), nil
}

func (r *memoryOverrideRepository) List(_ context.Context) ([]domain.OverrideEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.OverrideEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, *entry.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *memoryOverrideRepository) UpsertModule(_ context.Context, email domain.Email, module domain.Module, override domain.ModuleOverride) (*domain.OverrideEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[email]
	if !ok {
		entry = &domain.OverrideEntry{Email: email, Modules: map[domain.Module]domain.ModuleOverride{}}
		r.entries[email] = entry
	}
	now := r.now().UTC()
	override.UpdatedAt = now
	staged := (&domain.OverrideEntry{Modules: map[domain.Module]domain.ModuleOverride{module: override}}).Clone()
	entry.Modules[module] = staged.Modules[module]
	entry.UpdatedAt = now
	return entry.Clone(), nil
}

func (r *memoryOverrideRepository) DeleteModule(_ context.Context, email domain.Email, module domain.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[email]
	if !ok {
		return ErrNotFound
	}
	if _, ok := entry.Modules[module]; !ok {
		return ErrNotFound
	}
	delete(entry.Modules, module)
	if len(entry.Modules) == 0 {
		delete(r.entries, email)
	}
	return nil
}

type memoryManagerRepository struct {
	mu     sync.RWMutex
	emails map[domain.Email]struct{}
	roles  map[domain.Role]struct{}
}

// NewMemoryManagerRepository returns an in-memory ManagerRepository.
func NewMemoryManagerRepository() ManagerRepository {
	return &memoryManagerRepository{emails: map[domain.Email]struct{}{}, roles: map[domain.Role]struct{}{}}
}

func (r *memoryManagerRepository) Get(_ context.Context) (domain.ManagerRegistry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registry := domain.ManagerRegistry{
		Emails: make([]domain.Email, 0, len(r.emails)),
		Roles:  make([]domain.Role, 0, len(r.roles)),
	}
	for email := range r.emails {
		registry.Emails = append(registry.Emails, email)
	}
	for role := range r.roles {
		registry.Roles = append(registry.Roles, role)
	}
	sort.Slice(registry.Emails, func(i, j int) bool { return registry.Emails[i] < registry.Emails[j] })
	sort.Slice(registry.Roles, func(i, j int) bool { return registry.Roles[i] < registry.Roles[j] })
	return registry, nil
}

func (r *memoryManagerRepository) AddEmail(_ context.Context, email domain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails[email] = struct{}{}
	return nil
}

func (r *memoryManagerRepository) RemoveEmail(_ context.Context, email domain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.emails[email]; !ok {
		return ErrNotFound
	}
	delete(r.emails, email)
	return nil
}

func (r *memoryManagerRepository) AddRole(_ context.Context, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role] = struct{}{}
	return nil
}

func (r *memoryManagerRepository) RemoveRole(_ context.Context, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role]; !ok {
		return ErrNotFound
	}
	delete(r.roles, role)
	return nil
}

type memoryAccessRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]domain.AccessRequest
}

// NewMemoryAccessRequestRepository returns an in-memory AccessRequestRepository.
func NewMemoryAccessRequestRepository() AccessRequestRepository {
	return &memoryAccessRequestRepository{requests: map[string]domain.AccessRequest{}}
}

func (r *memoryAccessRequestRepository) Create(_ context.Context, req *domain.AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.ID]; exists {
		return ErrDuplicate
	}
	if req.Status == domain.AccessRequestPending {
		for _, existing := range r.requests {
			if existing.Status == domain.AccessRequestPending &&
				existing.RequesterEmail == req.RequesterEmail &&
				existing.Module == req.Module &&
				existing.Feature == req.Feature {
				return ErrDuplicate
			}
		}
	}
	r.requests[req.ID] = copyAccessRequest(*req)
	return nil
}

func (r *memoryAccessRequestRepository) GetByID(_ context.Context, id string) (*domain.AccessRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyAccessRequest(req)
	return &out, nil
}

func (r *memoryAccessRequestRepository) FindPending(_ context.Context, email domain.Email, module domain.Module, feature domain.Feature) (*domain.AccessRequest, error) {
	status := domain.AccessRequestPending
	matches := r.filter(AccessRequestFilter{RequesterEmail: &email, Module: &module, Feature: &feature, Status: &status})
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	return &matches[0], nil
}

func (r *memoryAccessRequestRepository) List(_ context.Context, filter AccessRequestFilter) ([]domain.AccessRequest, error) {
	matches := r.filter(filter)
	limit, offset := NormalizePage(filter.Limit, filter.Offset)
	if offset >= len(matches) {
		return []domain.AccessRequest{}, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

func (r *memoryAccessRequestRepository) filter(filter AccessRequestFilter) []domain.AccessRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.AccessRequest{}
	for _, req := range r.requests {
		if filter.RequesterEmail != nil && req.RequesterEmail != *filter.RequesterEmail {
			continue
		}
		if filter.Module != nil && req.Module != *filter.Module {
			continue
		}
		if filter.Feature != nil && req.Feature != *filter.Feature {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		out = append(out, copyAccessRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memoryAccessRequestRepository) Review(_ context.Context, id string, review domain.AccessReview) (*domain.AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Status != domain.AccessRequestPending {
		return nil, ErrNotPending
	}
	reviewer := review.ReviewerEmail
	role := review.ReviewerRole
	reviewedAt := review.ReviewedAt.UTC()
	req.Status = review.Status
	req.ReviewerEmail = &reviewer
	req.ReviewerRole = &role
	req.ReviewedAt = &reviewedAt
	if review.Comment != nil {
		comment := *review.Comment
		req.ReviewComment = &comment
	}
	r.requests[id] = req
	out := copyAccessRequest(req)
	return &out, nil
}

func copyAccessRequest(in domain.AccessRequest) domain.AccessRequest {
	out := in
	if in.ReviewerEmail != nil {
		v := *in.ReviewerEmail
		out.ReviewerEmail = &v
	}
	if in.ReviewerRole != nil {
		v := *in.ReviewerRole
		out.ReviewerRole = &v
	}
	if in.ReviewedAt != nil {
		v := *in.ReviewedAt
		out.ReviewedAt = &v
	}
	if in.ReviewComment != nil {
		v := *in.ReviewComment
		out.ReviewComment = &v
	}
	return out
}

type memoryPersonalPermissionRepository struct {
	mu       sync.RWMutex
	profiles map[domain.Email]domain.PersonalPermissionProfile
	now      func() time.Time
}

// NewMemoryPersonalPermissionRepository returns an in-memory PersonalPermissionRepository.
func NewMemoryPersonalPermissionRepository() PersonalPermissionRepository {
	return &memoryPersonalPermissionRepository{profiles: map[domain.Email]domain.PersonalPermissionProfile{}, now: time.Now}
}

func (r *memoryPersonalPermissionRepository) Get(_ context.Context, owner domain.Email) (*domain.PersonalPermissionProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[owner]
	if !ok {
		return nil, ErrNotFound
	}
	profile.Permissions = profile.Permissions.Clone()
	return &profile, nil
}

func (r *memoryPersonalPermissionRepository) Upsert(_ context.Context, profile *domain.PersonalPermissionProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.UpdatedAt = r.now().UTC()
	stored := *profile
	stored.Permissions = profile.Permissions.Clone()
	r.profiles[profile.Owner] = stored
	return nil
}
