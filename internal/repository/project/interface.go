package project

import (
	"context"

	"github.com/iyunix/go-converse/internal/domain"
)

// ProjectRepository handles project data operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	FindByIDAndUserID(ctx context.Context, projectID, userID uint) (*domain.Project, error)
	FindByUserIDWithPagination(ctx context.Context, userID uint, limit, offset int) ([]domain.Project, int64, error)
	UpdateFields(ctx context.Context, projectID, userID uint, fields map[string]interface{}) (*domain.Project, error)
	Delete(ctx context.Context, projectID, userID uint) error
}
