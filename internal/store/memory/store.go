// Package memory holds mutex-guarded in-process repositories for the
// development API server.
package memory

import "github.com/gosuda/garagedesk/internal/domain"

type Store struct {
	users   *UserRepo
	tenants *TenantRepo
}

func New() *Store {
	return &Store{
		users:   NewUserRepo(),
		tenants: NewTenantRepo(),
	}
}

func (s *Store) Users() domain.UserRepository     { return s.users }
func (s *Store) Tenants() domain.TenantRepository { return s.tenants }
