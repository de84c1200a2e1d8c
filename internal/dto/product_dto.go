package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name        string `json:"name"         validate:"required,min=2,max=255"`
	Model       string `json:"model"        validate:"required,max=255"`
	ReleaseDate string `json:"release_date" validate:"required,datetime=2006-01-02"`
	Node        string `json:"network_node" validate:"required,uuid"`
}

// UpdateProductRequest has no network_node field: a product stays with the
// node it was created under.
type UpdateProductRequest struct {
	Name        *string `json:"name"         validate:"omitempty,min=2,max=255"`
	Model       *string `json:"model"        validate:"omitempty,max=255"`
	ReleaseDate *string `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Node        string `form:"network_node"`
	ReleaseDate string `form:"release_date"`
	Search      string `form:"search"`
	// Ordering accepts name or release_date, optionally "-" prefixed.
	Ordering string `form:"ordering"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	ReleaseDate string `json:"release_date"`
	Node        string `json:"network_node"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
