package orders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying database connection for direct queries.
func (r *Repo) DB() *gorm.DB { return r.db }

func (r *Repo) GetWithItems(ctx context.Context, id string) (Order, []OrderItem, error) {
	var o Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Order{}, nil, ErrNotFound
		}
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

// GetOwned loads an order and enforces ownership. A foreign order is
// reported as not found so existence does not leak.
func (r *Repo) GetOwned(ctx context.Context, id, userID string) (Order, []OrderItem, error) {
	o, items, err := r.GetWithItems(ctx, id)
	if err != nil {
		return Order{}, nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return Order{}, nil, ErrNotFound
	}
	return o, items, nil
}

type ListByUserParams struct {
	UserID   string
	Page     int
	PageSize int
	Status   string // optional filter
}

type ListByUserResult struct {
	Items []Order
	Total int64
}

func (r *Repo) ListByUser(ctx context.Context, in ListByUserParams) (ListByUserResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	status := strings.TrimSpace(in.Status)

	q := r.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", in.UserID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListByUserResult{}, err
	}

	var items []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListByUserResult{}, err
	}

	return ListByUserResult{Items: items, Total: total}, nil
}

type AdminListParams struct {
	Q        string // order number or email substring
	Status   string
	Page     int
	PageSize int
}

type AdminListResult struct {
	Items []Order
	Total int64
}

func (r *Repo) AdminList(ctx context.Context, in AdminListParams) (AdminListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 30
	}

	q := r.db.WithContext(ctx).Model(&Order{})
	if s := strings.TrimSpace(in.Status); s != "" {
		q = q.Where("status = ?", s)
	}
	if term := strings.TrimSpace(in.Q); term != "" {
		like := "%" + term + "%"
		q = q.Where("order_number LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return AdminListResult{}, err
	}

	var items []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return AdminListResult{}, err
	}

	return AdminListResult{Items: items, Total: total}, nil
}

func (r *Repo) ListEvents(ctx context.Context, orderID string) ([]OrderEvent, error) {
	var ev []OrderEvent
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&ev, "order_id = ?", orderID).Error
	return ev, err
}

func (r *Repo) ListFinancial(ctx context.Context, orderID string) ([]FinancialEntry, error) {
	var fin []FinancialEntry
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&fin, "order_id = ?", orderID).Error
	return fin, err
}
