package service

import (
	"context"
	"errors"
	"time"

	"tradenet/internal/apperr"
	"tradenet/internal/dto"
	"tradenet/internal/model"
	"tradenet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo     repository.ProductRepository
	nodeRepo repository.NodeRepository
}

func NewProductService(repo repository.ProductRepository, nodeRepo repository.NodeRepository) ProductService {
	return &productService{repo: repo, nodeRepo: nodeRepo}
}

const releaseDateLayout = "2006-01-02"

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	nodeID, err := uuid.Parse(req.Node)
	if err != nil {
		return nil, apperr.Validation("network_node must be a valid uuid")
	}
	if _, err := s.nodeRepo.FindByID(ctx, nodeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("node %s not found", nodeID)
		}
		return nil, err
	}
	releaseDate, err := time.Parse(releaseDateLayout, req.ReleaseDate)
	if err != nil {
		return nil, apperr.Validation("release_date must be YYYY-MM-DD")
	}

	p := model.Product{
		Name:        req.Name,
		Model:       req.Model,
		ReleaseDate: releaseDate,
		NodeID:      nodeID,
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	resp := productToResponse(&p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", id)
		}
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, productToResponse(&products[i]))
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.ProductListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", id)
		}
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Model != nil {
		p.Model = *req.Model
	}
	if req.ReleaseDate != nil {
		releaseDate, err := time.Parse(releaseDateLayout, *req.ReleaseDate)
		if err != nil {
			return nil, apperr.Validation("release_date must be YYYY-MM-DD")
		}
		p.ReleaseDate = releaseDate
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product %s not found", id)
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Model:       p.Model,
		ReleaseDate: p.ReleaseDate.Format(releaseDateLayout),
		Node:        p.NodeID.String(),
	}
}
