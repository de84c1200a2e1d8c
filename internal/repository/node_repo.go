package repository

import (
	"context"
	"strings"

	"tradenet/internal/dto"
	"tradenet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NodeRepository defines the data access contract for network nodes.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
//
// Methods with a Tx suffix run against a caller-supplied transaction; the
// cascade logic in the chain service relies on them to keep multi-row level
// updates atomic.
type NodeRepository interface {
	Create(ctx context.Context, n *model.Node) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Node, error)
	List(ctx context.Context, filter dto.NodeFilter) ([]model.Node, int64, error)
	ListByLevel(ctx context.Context, level int) ([]model.Node, error)
	Search(ctx context.Context, q string) ([]model.Node, error)
	Count(ctx context.Context) (int64, error)
	Save(ctx context.Context, n *model.Node) error
	ClearDebt(ctx context.Context, ids []uuid.UUID) (int64, error)

	// Used inside transactions; callers must pass the tx instance.
	CreateTx(tx *gorm.DB, n *model.Node) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Node, error)
	SaveTx(tx *gorm.DB, n *model.Node) error
	ListChildrenTx(tx *gorm.DB, supplierID uuid.UUID) ([]model.Node, error)
	UpdateLevelTx(tx *gorm.DB, id uuid.UUID, level int) error
	UpdateSupplierTx(tx *gorm.DB, id uuid.UUID, supplierID *uuid.UUID) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	DeleteProductsTx(tx *gorm.DB, nodeID uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type nodeRepo struct{ db *gorm.DB }

func NewNodeRepository(db *gorm.DB) NodeRepository { return &nodeRepo{db: db} }

func (r *nodeRepo) Create(ctx context.Context, n *model.Node) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *nodeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Node, error) {
	var n model.Node
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Products").
		First(&n, "id = ?", id).Error
	return &n, err
}

// nodeOrderings whitelists the sortable columns exposed by the list endpoint.
var nodeOrderings = map[string]string{
	"name":       "name ASC",
	"-name":      "name DESC",
	"created_at": "created_at ASC",
	"debt":       "debt ASC",
	"-debt":      "debt DESC",
}

// nodeOrdering maps a client ordering key to an ORDER BY clause.
// Anything outside the whitelist falls back to newest-first.
func nodeOrdering(key string) string {
	if order, ok := nodeOrderings[strings.TrimSpace(key)]; ok {
		return order
	}
	return "created_at DESC"
}

func (r *nodeRepo) List(ctx context.Context, filter dto.NodeFilter) ([]model.Node, int64, error) {
	var nodes []model.Node
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Node{})

	if filter.Country != "" {
		q = q.Where("country = ?", filter.Country)
	}
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.Level != nil {
		q = q.Where("level = ?", *filter.Level)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR city ILIKE ? OR country ILIKE ? OR email ILIKE ?",
			like, like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Supplier").Preload("Products").
		Order(nodeOrdering(filter.Ordering)).Limit(filter.Limit).Offset(offset).
		Find(&nodes).Error
	return nodes, total, err
}

func (r *nodeRepo) ListByLevel(ctx context.Context, level int) ([]model.Node, error) {
	var nodes []model.Node
	err := r.db.WithContext(ctx).
		Preload("Supplier").Preload("Products").
		Where("level = ?", level).
		Order("created_at DESC").
		Find(&nodes).Error
	return nodes, err
}

func (r *nodeRepo) Search(ctx context.Context, q string) ([]model.Node, error) {
	var nodes []model.Node
	like := "%" + q + "%"
	err := r.db.WithContext(ctx).
		Preload("Supplier").Preload("Products").
		Where("name ILIKE ? OR city ILIKE ? OR country ILIKE ? OR email ILIKE ?",
			like, like, like, like).
		Order("created_at DESC").
		Find(&nodes).Error
	return nodes, err
}

func (r *nodeRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Node{}).Count(&total).Error
	return total, err
}

func (r *nodeRepo) Save(ctx context.Context, n *model.Node) error {
	return r.db.WithContext(ctx).Save(n).Error
}

// ClearDebt zeroes the debt of every listed node that exists and still owes
// something. Unknown ids simply match no row; the count reflects rows changed.
func (r *nodeRepo) ClearDebt(ctx context.Context, ids []uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Node{}).
		Where("id IN ? AND debt <> 0", ids).
		Update("debt", 0)
	return res.RowsAffected, res.Error
}

func (r *nodeRepo) CreateTx(tx *gorm.DB, n *model.Node) error {
	return tx.Create(n).Error
}

// FindByIDTx re-reads a node inside a transaction with a row lock, so two
// concurrent re-parent cascades touching overlapping subtrees serialize
// instead of interleaving.
func (r *nodeRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Node, error) {
	var n model.Node
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&n, "id = ?", id).Error
	return &n, err
}

func (r *nodeRepo) SaveTx(tx *gorm.DB, n *model.Node) error {
	return tx.Save(n).Error
}

func (r *nodeRepo) ListChildrenTx(tx *gorm.DB, supplierID uuid.UUID) ([]model.Node, error) {
	var children []model.Node
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("supplier_id = ?", supplierID).
		Find(&children).Error
	return children, err
}

func (r *nodeRepo) UpdateLevelTx(tx *gorm.DB, id uuid.UUID, level int) error {
	return tx.Model(&model.Node{}).Where("id = ?", id).Update("level", level).Error
}

func (r *nodeRepo) UpdateSupplierTx(tx *gorm.DB, id uuid.UUID, supplierID *uuid.UUID) error {
	return tx.Model(&model.Node{}).Where("id = ?", id).Update("supplier_id", supplierID).Error
}

func (r *nodeRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Node{}, "id = ?", id).Error
}

func (r *nodeRepo) DeleteProductsTx(tx *gorm.DB, nodeID uuid.UUID) error {
	return tx.Delete(&model.Product{}, "node_id = ?", nodeID).Error
}

func (r *nodeRepo) DB() *gorm.DB { return r.db }
