package service

import (
	"context"
	"strings"
	"testing"

	"tradenet/internal/apperr"
	"tradenet/internal/dto"
	"tradenet/internal/model"
	"tradenet/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory ProductRepository stub ─────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var result []model.Product
	for _, p := range r.products {
		if filter.Node != "" && p.NodeID.String() != filter.Node {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(p.Model), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Tests ────────────────────────────────────────────────────────────────────

func seedOwningNode(t *testing.T, nodeRepo *stubNodeRepo) uuid.UUID {
	t.Helper()
	n := &model.Node{Name: "Owner", Email: "o@example.com", Country: "DE", City: "Berlin",
		Street: "S", HouseNumber: "1"}
	require.NoError(t, nodeRepo.Create(context.Background(), n))
	return n.ID
}

func TestProductCreate(t *testing.T) {
	nodeRepo := newStubNodeRepo()
	svc := NewProductService(newStubProductRepo(), nodeRepo)
	owner := seedOwningNode(t, nodeRepo)

	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Smart TV", Model: "QX-55", ReleaseDate: "2024-03-15", Node: owner.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Smart TV", resp.Name)
	assert.Equal(t, "2024-03-15", resp.ReleaseDate)
	assert.Equal(t, owner.String(), resp.Node)
}

func TestProductCreateUnknownNode(t *testing.T) {
	svc := NewProductService(newStubProductRepo(), newStubNodeRepo())

	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Ghost", Model: "G-1", ReleaseDate: "2024-01-01", Node: uuid.NewString(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestProductCreateBadReleaseDate(t *testing.T) {
	nodeRepo := newStubNodeRepo()
	svc := NewProductService(newStubProductRepo(), nodeRepo)
	owner := seedOwningNode(t, nodeRepo)

	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Bad", Model: "B-1", ReleaseDate: "15.03.2024", Node: owner.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestProductUpdateKeepsOwner(t *testing.T) {
	nodeRepo := newStubNodeRepo()
	svc := NewProductService(newStubProductRepo(), nodeRepo)
	owner := seedOwningNode(t, nodeRepo)

	created, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Radio", Model: "R-1", ReleaseDate: "2023-06-01", Node: owner.String(),
	})
	require.NoError(t, err)

	name := "DAB Radio"
	updated, err := svc.Update(context.Background(), uuid.MustParse(created.ID), dto.UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "DAB Radio", updated.Name)
	assert.Equal(t, owner.String(), updated.Node)
}

func TestProductDelete(t *testing.T) {
	nodeRepo := newStubNodeRepo()
	repo := newStubProductRepo()
	svc := NewProductService(repo, nodeRepo)
	owner := seedOwningNode(t, nodeRepo)

	created, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Old Stock", Model: "OS-1", ReleaseDate: "2020-01-01", Node: owner.String(),
	})
	require.NoError(t, err)

	id := uuid.MustParse(created.ID)
	require.NoError(t, svc.Delete(context.Background(), id))

	_, err = svc.Get(context.Background(), id)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestProductListFiltersByNode(t *testing.T) {
	nodeRepo := newStubNodeRepo()
	svc := NewProductService(newStubProductRepo(), nodeRepo)
	ownerA := seedOwningNode(t, nodeRepo)
	ownerB := seedOwningNode(t, nodeRepo)

	for _, tc := range []struct {
		name, model string
		owner       uuid.UUID
	}{
		{"TV", "T-1", ownerA},
		{"Laptop", "L-1", ownerA},
		{"Phone", "P-1", ownerB},
	} {
		_, err := svc.Create(context.Background(), dto.CreateProductRequest{
			Name: tc.name, Model: tc.model, ReleaseDate: "2024-01-01", Node: tc.owner.String(),
		})
		require.NoError(t, err)
	}

	resp, err := svc.List(context.Background(), dto.ProductFilter{Node: ownerA.String(), Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)

	resp, err = svc.List(context.Background(), dto.ProductFilter{Search: "phone", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
}
