// Package query serves the read path. It only ever touches the view store;
// staleness against the command store is expected, not an error.
package query

import (
	"context"
	"fmt"

	"github.com/viniciusfeitosa/europython2018/pkg/cqrs"
	"github.com/viniciusfeitosa/europython2018/pkg/models"
)

// ViewReader is the read-side store surface the query service needs.
type ViewReader interface {
	GetUser(ctx context.Context, id string) (models.UserView, error)
	ListUsers(ctx context.Context, offset, limit int) ([]models.UserView, error)
	GetGroup(ctx context.Context, permission string) (models.PermissionGroupView, error)
}

// Service answers user queries from the read models.
type Service struct {
	Store ViewReader
}

// NewService creates a query service.
func NewService(store ViewReader) *Service {
	return &Service{Store: store}
}

// GetUser returns the projected view for id. A not-yet-projected user is a
// NotFound, by contract: reads never wait on the write path.
func (s *Service) GetUser(ctx context.Context, id string) (models.UserView, error) {
	return s.Store.GetUser(ctx, id)
}

// GetAllUsers returns one page of user views. Paging is purely offset-based:
// page defaults to 1 when out of range, offset = (page-1)*limit, and there
// is no total count or has-more indicator.
func (s *Service) GetAllUsers(ctx context.Context, page, limit int) ([]models.UserView, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", cqrs.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	return s.Store.ListUsers(ctx, offset, limit)
}

// GetUsersByPermission returns the group view for a permission name.
func (s *Service) GetUsersByPermission(ctx context.Context, permission string) (models.PermissionGroupView, error) {
	return s.Store.GetGroup(ctx, permission)
}
