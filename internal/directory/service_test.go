package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harilog/internal/logger"
	"harilog/internal/rules"
)

type fakeRepository struct {
	byIDs   []int64
	byRoles []string
	allHit  bool
}

func (f *fakeRepository) GetByIDs(ctx context.Context, ids []int64) ([]Account, error) {
	f.byIDs = ids
	return []Account{{ID: 1}}, nil
}

func (f *fakeRepository) GetByRoles(ctx context.Context, roles []string) ([]Account, error) {
	f.byRoles = roles
	return []Account{{ID: 2}}, nil
}

func (f *fakeRepository) GetAll(ctx context.Context) ([]Account, error) {
	f.allHit = true
	return []Account{{ID: 3}}, nil
}

func TestResolveUsers(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo, logger.NopLogger())

	accounts, err := svc.Resolve(context.Background(), rules.Audience{Type: "users", UserIDs: []int64{4, 9}})

	require.NoError(t, err)
	assert.Equal(t, []int64{4, 9}, repo.byIDs)
	assert.Len(t, accounts, 1)
}

func TestResolveRole(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo, logger.NopLogger())

	_, err := svc.Resolve(context.Background(), rules.Audience{Type: "role", Role: "auditor"})

	require.NoError(t, err)
	assert.Equal(t, []string{"auditor"}, repo.byRoles)
}

func TestResolveRoleDefaultsToAdmin(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo, logger.NopLogger())

	_, err := svc.Resolve(context.Background(), rules.Audience{Type: "role"})

	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, repo.byRoles)
}

func TestResolveAll(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo, logger.NopLogger())

	_, err := svc.Resolve(context.Background(), rules.Audience{Type: "all"})

	require.NoError(t, err)
	assert.True(t, repo.allHit)
}

func TestResolveDefaultsToAdminRoles(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewService(repo, logger.NopLogger())

	_, err := svc.Resolve(context.Background(), rules.Audience{Type: "admins"})

	require.NoError(t, err)
	assert.Equal(t, []string{"super-admin", "admin"}, repo.byRoles)
}
