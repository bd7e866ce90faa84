package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/garagedesk/internal/domain"
)

// TenantRepo keeps one tenant per owner and enforces GST number uniqueness.
type TenantRepo struct {
	mu      sync.RWMutex
	byOwner map[uuid.UUID]domain.Tenant
	gst     map[string]uuid.UUID
}

func NewTenantRepo() *TenantRepo {
	return &TenantRepo{
		byOwner: make(map[uuid.UUID]domain.Tenant),
		gst:     make(map[string]uuid.UUID),
	}
}

func (r *TenantRepo) Create(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOwner[t.OwnerID]; ok {
		return fmt.Errorf("tenantRepo.Create: owner already has a tenant: %w", domain.ErrConflict)
	}
	gst := normalizeGST(t.Garage.GSTNumber)
	if gst != "" {
		if _, ok := r.gst[gst]; ok {
			return fmt.Errorf("tenantRepo.Create: gst number taken: %w", domain.ErrConflict)
		}
		r.gst[gst] = t.ID
	}

	r.byOwner[t.OwnerID] = clone(t)
	return nil
}

func (r *TenantRepo) GetByOwner(_ context.Context, ownerID uuid.UUID) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byOwner[ownerID]
	if !ok {
		return nil, fmt.Errorf("tenantRepo.GetByOwner: %w", domain.ErrNotFound)
	}
	out := clone(&t)
	return &out, nil
}

// GSTTaken reports whether another tenant already registered gst.
func (r *TenantRepo) GSTTaken(gst string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.gst[normalizeGST(gst)]
	return ok
}

func clone(t *domain.Tenant) domain.Tenant {
	out := *t
	out.PaymentMethods = slices.Clone(t.PaymentMethods)
	out.Staff = slices.Clone(t.Staff)
	return out
}

func normalizeGST(gst string) string {
	return strings.ToUpper(strings.TrimSpace(gst))
}
