package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/garagedesk/internal/domain"
)

// UserRepo indexes users by ID, email (case-insensitive) and mobile number.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.User
	emails  map[string]uuid.UUID
	mobiles map[string]uuid.UUID
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[uuid.UUID]domain.User),
		emails:  make(map[string]uuid.UUID),
		mobiles: make(map[string]uuid.UUID),
	}
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; ok {
		return fmt.Errorf("userRepo.Create: %w", domain.ErrConflict)
	}
	if err := r.checkUnique(u); err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}

	r.byID[u.ID] = *u
	r.index(u)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", domain.ErrNotFound)
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepo) GetByMobile(_ context.Context, mobile string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.mobiles[mobile]
	if !ok || mobile == "" {
		return nil, fmt.Errorf("userRepo.GetByMobile: %w", domain.ErrNotFound)
	}
	u := r.byID[id]
	return &u, nil
}

// Update replaces the stored user. Changing the email or mobile number to one
// held by another user fails with domain.ErrConflict.
func (r *UserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[u.ID]
	if !ok {
		return fmt.Errorf("userRepo.Update: %w", domain.ErrNotFound)
	}
	if err := r.checkUnique(u); err != nil {
		return fmt.Errorf("userRepo.Update: %w", err)
	}

	delete(r.emails, normalizeEmail(old.Email))
	if old.MobileNumber != "" {
		delete(r.mobiles, old.MobileNumber)
	}
	r.byID[u.ID] = *u
	r.index(u)
	return nil
}

// checkUnique must be called with the lock held.
func (r *UserRepo) checkUnique(u *domain.User) error {
	if id, ok := r.emails[normalizeEmail(u.Email)]; ok && id != u.ID {
		return fmt.Errorf("email taken: %w", domain.ErrConflict)
	}
	if u.MobileNumber != "" {
		if id, ok := r.mobiles[u.MobileNumber]; ok && id != u.ID {
			return fmt.Errorf("mobile number taken: %w", domain.ErrConflict)
		}
	}
	return nil
}

func (r *UserRepo) index(u *domain.User) {
	r.emails[normalizeEmail(u.Email)] = u.ID
	if u.MobileNumber != "" {
		r.mobiles[u.MobileNumber] = u.ID
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
