package customers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

type memoryRepo struct {
	customers []Customer
}

func (m *memoryRepo) GetByID(ctx context.Context, id int64) (Customer, error) {
	for _, c := range m.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return Customer{}, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
}

func (m *memoryRepo) FindAll(ctx context.Context, limit int) ([]Customer, error) {
	if limit > 0 && limit < len(m.customers) {
		return m.customers[:limit], nil
	}
	return m.customers, nil
}

func (m *memoryRepo) Search(ctx context.Context, term string, limit int) ([]Customer, error) {
	var matched []Customer
	for _, c := range m.customers {
		if strings.Contains(strings.ToLower(c.CompanyName), strings.ToLower(term)) {
			matched = append(matched, c)
		}
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func seededRepo() *memoryRepo {
	return &memoryRepo{customers: []Customer{
		{ID: 1, CompanyName: "Teplobud LLC"},
		{ID: 2, CompanyName: "Kyiv Heating Co"},
		{ID: 3, CompanyName: "Warm House"},
	}}
}

func TestServiceGet(t *testing.T) {
	svc := NewService(seededRepo())

	customer, err := svc.Get(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "Kyiv Heating Co", customer.CompanyName)

	_, err = svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceSearchFallsBackToList(t *testing.T) {
	svc := NewService(seededRepo())

	all, err := svc.Search(context.Background(), "   ", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	matched, err := svc.Search(context.Background(), "heating", 0)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, "Kyiv Heating Co", matched[0].CompanyName)
}

func TestServiceListHonorsLimit(t *testing.T) {
	svc := NewService(seededRepo())

	limited, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}
