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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChainService is the hierarchy engine: every write that can change the
// supplier relation goes through here, and every such write re-derives the
// level of the target and of its whole descendant subtree atomically.
type ChainService interface {
	CreateNode(ctx context.Context, req dto.CreateNodeRequest) (*dto.NodeResponse, error)
	GetNode(ctx context.Context, id uuid.UUID) (*dto.NodeResponse, error)
	ListNodes(ctx context.Context, filter dto.NodeFilter) (*dto.NodeListResponse, error)
	Factories(ctx context.Context) ([]dto.NodeResponse, error)
	SearchNodes(ctx context.Context, q string) ([]dto.NodeResponse, error)
	UpdateNode(ctx context.Context, id uuid.UUID, req dto.UpdateNodeRequest) (*dto.NodeResponse, error)
	DeleteNode(ctx context.Context, id uuid.UUID) error
	ClearDebt(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type chainService struct {
	repo repository.NodeRepository
}

func NewChainService(repo repository.NodeRepository) ChainService {
	return &chainService{repo: repo}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return asRetryable(db.WithContext(ctx).Transaction(fn))
}

// asRetryable converts Postgres serialization failures and deadlocks into
// conflict errors so callers get a 409 and can retry, instead of a 500.
func asRetryable(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return apperr.Wrap(apperr.KindConflict, err, "concurrent hierarchy change, retry the request")
		}
	}
	return err
}

// ── CreateNode ───────────────────────────────────────────────────────────────

func (s *chainService) CreateNode(ctx context.Context, req dto.CreateNodeRequest) (*dto.NodeResponse, error) {
	n := model.Node{
		Name:        req.Name,
		Email:       req.Email,
		Country:     req.Country,
		City:        req.City,
		Street:      req.Street,
		HouseNumber: req.HouseNumber,
		Debt:        decimal.Zero,
	}

	var supplierID *uuid.UUID
	if req.Supplier != nil {
		id, err := uuid.Parse(*req.Supplier)
		if err != nil {
			return nil, apperr.Validation("supplier must be a valid uuid")
		}
		supplierID = &id
	}

	// The supplier row is locked so a concurrent re-parent of the supplier
	// cannot commit a level change between our read and our insert.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if supplierID != nil {
			supplier, err := s.repo.FindByIDTx(tx, *supplierID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("supplier %s not found", *supplierID)
				}
				return err
			}
			n.SupplierID = supplierID
			n.Level = supplier.Level + 1
		}
		return s.repo.CreateTx(tx, &n)
	})
	if txErr != nil {
		return nil, txErr
	}

	// A new node has no descendants yet, so no cascade is needed.
	return s.GetNode(ctx, n.ID)
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *chainService) GetNode(ctx context.Context, id uuid.UUID) (*dto.NodeResponse, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("node %s not found", id)
		}
		return nil, err
	}
	resp := nodeToResponse(n)
	return &resp, nil
}

func (s *chainService) ListNodes(ctx context.Context, filter dto.NodeFilter) (*dto.NodeListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	nodes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.NodeResponse, 0, len(nodes))
	for i := range nodes {
		data = append(data, nodeToResponse(&nodes[i]))
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.NodeListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Factories lists the level-0 roots of the network.
func (s *chainService) Factories(ctx context.Context) ([]dto.NodeResponse, error) {
	nodes, err := s.repo.ListByLevel(ctx, 0)
	if err != nil {
		return nil, err
	}
	data := make([]dto.NodeResponse, 0, len(nodes))
	for i := range nodes {
		data = append(data, nodeToResponse(&nodes[i]))
	}
	return data, nil
}

// SearchNodes runs a free-text search over name, city, country and email.
// An empty query returns an empty list, not the full table.
func (s *chainService) SearchNodes(ctx context.Context, q string) ([]dto.NodeResponse, error) {
	if q == "" {
		return []dto.NodeResponse{}, nil
	}
	nodes, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	data := make([]dto.NodeResponse, 0, len(nodes))
	for i := range nodes {
		data = append(data, nodeToResponse(&nodes[i]))
	}
	return data, nil
}

// ── UpdateNode ───────────────────────────────────────────────────────────────
// Descriptive fields update in place. A supplier change additionally
// re-derives the target's level and the level of every descendant, all inside
// one transaction: either the whole subtree is consistent afterwards or
// nothing changed.

func (s *chainService) UpdateNode(ctx context.Context, id uuid.UUID, req dto.UpdateNodeRequest) (*dto.NodeResponse, error) {
	// Pre-flight checks that need no row locks.
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("node %s not found", id)
		}
		return nil, err
	}
	if req.Debt != nil && req.Debt.IsNegative() {
		return nil, apperr.Validation("debt must not be negative")
	}
	if req.Supplier.Set && req.Supplier.Value != nil && *req.Supplier.Value == id {
		return nil, apperr.Validation("a node cannot be its own supplier")
	}

	// Upper bound for the ancestor walk; anything longer means the stored
	// hierarchy is already corrupt.
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return apperr.Wrap(apperr.KindConflict, err, "node vanished mid-update")
		}

		if req.Name != nil {
			n.Name = *req.Name
		}
		if req.Email != nil {
			n.Email = *req.Email
		}
		if req.Country != nil {
			n.Country = *req.Country
		}
		if req.City != nil {
			n.City = *req.City
		}
		if req.Street != nil {
			n.Street = *req.Street
		}
		if req.HouseNumber != nil {
			n.HouseNumber = *req.HouseNumber
		}
		if req.Debt != nil {
			n.Debt = *req.Debt
		}

		supplierChanged := false
		if req.Supplier.Set {
			if req.Supplier.Value == nil {
				n.SupplierID = nil
				n.Level = 0
			} else {
				supplier, err := s.repo.FindByIDTx(tx, *req.Supplier.Value)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.NotFound("supplier %s not found", *req.Supplier.Value)
					}
					return err
				}
				if err := s.checkNoCycle(tx, id, supplier, total); err != nil {
					return err
				}
				sid := supplier.ID
				n.SupplierID = &sid
				n.Level = supplier.Level + 1
			}
			supplierChanged = true
		}

		n.Supplier = nil
		n.Products = nil
		if err := s.repo.SaveTx(tx, n); err != nil {
			return err
		}

		if supplierChanged {
			moved, err := s.relevelSubtree(tx, n.ID, n.Level)
			if err != nil {
				return err
			}
			log.Debug().
				Str("node_id", n.ID.String()).
				Int("level", n.Level).
				Int("descendants_releveled", moved).
				Msg("supplier reassigned")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.GetNode(ctx, id)
}

// checkNoCycle walks the supplier chain upward from the proposed supplier.
// Encountering the target id means the assignment would make the node its own
// ancestor. The walk is bounded by the total node count so a pre-existing
// corrupt cycle cannot spin forever.
func (s *chainService) checkNoCycle(tx *gorm.DB, id uuid.UUID, supplier *model.Node, total int64) error {
	cur := supplier
	var steps int64
	for {
		if cur.ID == id {
			return apperr.Cycle("assigning supplier %s would make node %s its own ancestor", supplier.ID, id)
		}
		if cur.SupplierID == nil {
			return nil
		}
		steps++
		if steps > total {
			return apperr.Conflict("supplier chain longer than node count; hierarchy is corrupt")
		}
		next, err := s.repo.FindByIDTx(tx, *cur.SupplierID)
		if err != nil {
			return err
		}
		cur = next
	}
}

// relevelSubtree recomputes level = parent.level+1 breadth-first for every
// descendant of root. Returns the number of rows actually changed.
func (s *chainService) relevelSubtree(tx *gorm.DB, root uuid.UUID, rootLevel int) (int, error) {
	type item struct {
		id    uuid.UUID
		level int
	}
	changed := 0
	queue := []item{{id: root, level: rootLevel}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		children, err := s.repo.ListChildrenTx(tx, cur.id)
		if err != nil {
			return changed, err
		}
		for i := range children {
			want := cur.level + 1
			if children[i].Level != want {
				if err := s.repo.UpdateLevelTx(tx, children[i].ID, want); err != nil {
					return changed, err
				}
				changed++
			}
			queue = append(queue, item{id: children[i].ID, level: want})
		}
	}
	return changed, nil
}

// ── DeleteNode ───────────────────────────────────────────────────────────────
// Products of the node are cascade-deleted. Direct children are detached
// (supplier set to null, level reset to 0) and their subtrees releveled;
// the descendants survive, only the edge to the deleted node goes away.

func (s *chainService) DeleteNode(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("node %s not found", id)
		}
		return err
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.FindByIDTx(tx, id); err != nil {
			return apperr.Wrap(apperr.KindConflict, err, "node vanished mid-delete")
		}

		if err := s.repo.DeleteProductsTx(tx, id); err != nil {
			return err
		}

		children, err := s.repo.ListChildrenTx(tx, id)
		if err != nil {
			return err
		}
		for i := range children {
			if err := s.repo.UpdateSupplierTx(tx, children[i].ID, nil); err != nil {
				return err
			}
			if err := s.repo.UpdateLevelTx(tx, children[i].ID, 0); err != nil {
				return err
			}
			if _, err := s.relevelSubtree(tx, children[i].ID, 0); err != nil {
				return err
			}
		}

		if err := s.repo.DeleteTx(tx, id); err != nil {
			return err
		}

		log.Info().
			Str("node_id", id.String()).
			Int("children_detached", len(children)).
			Msg("node deleted")
		return nil
	})
}

// ── ClearDebt ────────────────────────────────────────────────────────────────

// ClearDebt zeroes the supplier debt for every listed node. Unknown ids are
// skipped silently; the returned count is the number of rows whose debt
// actually changed.
func (s *chainService) ClearDebt(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.ClearDebt(ctx, ids)
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func nodeToResponse(n *model.Node) dto.NodeResponse {
	resp := dto.NodeResponse{
		ID:           n.ID.String(),
		Name:         n.Name,
		Level:        n.Level,
		LevelDisplay: n.LevelDisplay(),
		Email:        n.Email,
		Country:      n.Country,
		City:         n.City,
		Street:       n.Street,
		HouseNumber:  n.HouseNumber,
		Debt:         n.Debt,
		CreatedAt:    n.CreatedAt.UTC().Format(time.RFC3339),
		Products:     make([]dto.ProductResponse, 0, len(n.Products)),
	}
	if n.SupplierID != nil {
		id := n.SupplierID.String()
		resp.Supplier = &id
	}
	if n.Supplier != nil {
		name := n.Supplier.Name
		resp.SupplierName = &name
	}
	for i := range n.Products {
		resp.Products = append(resp.Products, productToResponse(&n.Products[i]))
	}
	return resp
}
