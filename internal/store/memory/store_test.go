package memory_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/garagedesk/internal/domain"
	"github.com/gosuda/garagedesk/internal/store/memory"
)

func newUser(email, mobile string) *domain.User {
	return &domain.User{ID: uuid.New(), FirstName: "Ravi", Email: email, MobileNumber: mobile}
}

func TestUserRepo_CreateAndLookup(t *testing.T) {
	t.Parallel()

	users := memory.New().Users()
	u := newUser("Ravi@Garage.in", "9876543210")
	require.NoError(t, users.Create(t.Context(), u))

	got, err := users.GetByID(t.Context(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	got, err = users.GetByEmail(t.Context(), "  ravi@garage.IN ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = users.GetByMobile(t.Context(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.GetByID(t.Context(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = users.GetByEmail(t.Context(), "nobody@garage.in")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = users.GetByMobile(t.Context(), "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_Conflicts(t *testing.T) {
	t.Parallel()

	users := memory.New().Users()
	require.NoError(t, users.Create(t.Context(), newUser("a@garage.in", "9000000001")))

	err := users.Create(t.Context(), newUser("A@GARAGE.IN", ""))
	require.ErrorIs(t, err, domain.ErrConflict)

	err = users.Create(t.Context(), newUser("b@garage.in", "9000000001"))
	require.ErrorIs(t, err, domain.ErrConflict)

	// Users without a mobile number never collide on it.
	require.NoError(t, users.Create(t.Context(), newUser("c@garage.in", "")))
	require.NoError(t, users.Create(t.Context(), newUser("d@garage.in", "")))
}

func TestUserRepo_ReturnsCopies(t *testing.T) {
	t.Parallel()

	users := memory.New().Users()
	u := newUser("a@garage.in", "")
	require.NoError(t, users.Create(t.Context(), u))

	u.FirstName = "Mutated"
	got, err := users.GetByID(t.Context(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.FirstName)

	got.FirstName = "Again"
	again, err := users.GetByID(t.Context(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", again.FirstName)
}

func TestUserRepo_UpdateReindexes(t *testing.T) {
	t.Parallel()

	users := memory.New().Users()
	a := newUser("a@garage.in", "9000000001")
	b := newUser("b@garage.in", "9000000002")
	require.NoError(t, users.Create(t.Context(), a))
	require.NoError(t, users.Create(t.Context(), b))

	a.Email = "new@garage.in"
	a.MobileNumber = "9000000003"
	require.NoError(t, users.Update(t.Context(), a))

	_, err := users.GetByEmail(t.Context(), "a@garage.in")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = users.GetByMobile(t.Context(), "9000000001")
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := users.GetByEmail(t.Context(), "new@garage.in")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	a.Email = "b@garage.in"
	require.ErrorIs(t, users.Update(t.Context(), a), domain.ErrConflict)

	require.ErrorIs(t, users.Update(t.Context(), newUser("x@garage.in", "")), domain.ErrNotFound)
}

func TestUserRepo_ConcurrentCreate(t *testing.T) {
	t.Parallel()

	users := memory.New().Users()
	const n = 32

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if users.Create(t.Context(), newUser("same@garage.in", "")) == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func newTenant(owner uuid.UUID, gst string) *domain.Tenant {
	return &domain.Tenant{
		ID:             uuid.New(),
		OwnerID:        owner,
		Garage:         domain.Garage{GarageName: "Speedy Motors", GSTNumber: gst},
		PaymentMethods: []domain.PaymentMethod{{PaymentMethod: domain.PaymentMethodCash}},
		Staff:          []domain.Staff{{FirstName: "Arjun", Role: domain.StaffRoleMechanic}},
	}
}

func TestTenantRepo_CreateAndGet(t *testing.T) {
	t.Parallel()

	tenants := memory.NewTenantRepo()
	owner := uuid.New()
	tn := newTenant(owner, "29ABCDE1234F1Z5")
	require.NoError(t, tenants.Create(t.Context(), tn))

	got, err := tenants.GetByOwner(t.Context(), owner)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, got.ID)
	require.Len(t, got.Staff, 1)

	// Slices are not shared with the caller.
	tn.Staff[0].FirstName = "Mutated"
	got.PaymentMethods[0].PaymentMethod = domain.PaymentMethodUPI
	again, err := tenants.GetByOwner(t.Context(), owner)
	require.NoError(t, err)
	assert.Equal(t, "Arjun", again.Staff[0].FirstName)
	assert.Equal(t, domain.PaymentMethodCash, again.PaymentMethods[0].PaymentMethod)

	_, err = tenants.GetByOwner(t.Context(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantRepo_Conflicts(t *testing.T) {
	t.Parallel()

	tenants := memory.NewTenantRepo()
	owner := uuid.New()
	require.NoError(t, tenants.Create(t.Context(), newTenant(owner, "29ABCDE1234F1Z5")))
	assert.True(t, tenants.GSTTaken(" 29abcde1234f1z5"))

	err := tenants.Create(t.Context(), newTenant(owner, ""))
	require.ErrorIs(t, err, domain.ErrConflict, "one tenant per owner")

	err = tenants.Create(t.Context(), newTenant(uuid.New(), "29abcde1234f1z5"))
	require.ErrorIs(t, err, domain.ErrConflict, "gst is unique")

	// Tenants without a GST number never collide on it.
	require.NoError(t, tenants.Create(t.Context(), newTenant(uuid.New(), "")))
	require.NoError(t, tenants.Create(t.Context(), newTenant(uuid.New(), "")))
	assert.False(t, tenants.GSTTaken(""))
}
