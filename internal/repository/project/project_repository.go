// File: internal/repository/project/project_repository.go
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/repository"
)

var ErrProjectNotFound = errors.New("project not found")

type gormProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &gormProjectRepository{db: db}
}

func (r *gormProjectRepository) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if err := validateProject(project); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}

	if err := repository.Conn(ctx, r.db).Create(project).Error; err != nil {
		log.Error().Err(err).Uint("user_id", project.UserID).Msg("[ProjectRepository] database error during project creation")
		return nil, errors.New("database error creating project")
	}
	return project, nil
}

func (r *gormProjectRepository) FindByIDAndUserID(ctx context.Context, projectID, userID uint) (*domain.Project, error) {
	if projectID == 0 || userID == 0 {
		return nil, ErrProjectNotFound
	}

	var project domain.Project
	err := repository.Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", projectID, userID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("[ProjectRepository] FindByIDAndUserID database error")
		return nil, errors.New("database query failed")
	}
	return &project, nil
}

// FindByUserIDWithPagination returns one page of a user's projects, newest first.
func (r *gormProjectRepository) FindByUserIDWithPagination(ctx context.Context, userID uint, limit, offset int) ([]domain.Project, int64, error) {
	if limit <= 0 || limit > 1000 {
		return nil, 0, errors.New("invalid limit: must be between 1 and 1000")
	}
	if offset < 0 {
		return nil, 0, errors.New("invalid offset: must be >= 0")
	}

	var (
		projects []domain.Project
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return repository.Conn(gctx, r.db).Model(&domain.Project{}).Where("user_id = ?", userID).Count(&total).Error
	})
	g.Go(func() error {
		return repository.Conn(gctx, r.db).
			Where("user_id = ?", userID).
			Order("created_at DESC, id DESC").
			Limit(limit).
			Offset(offset).
			Find(&projects).Error
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("[ProjectRepository] database error in paginated query")
		return nil, 0, errors.New("database error retrieving projects")
	}
	return projects, total, nil
}

func (r *gormProjectRepository) UpdateFields(ctx context.Context, projectID, userID uint, fields map[string]interface{}) (*domain.Project, error) {
	project, err := r.FindByIDAndUserID(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return project, nil
	}

	candidate := *project
	if name, ok := fields["name"].(string); ok {
		candidate.Name = name
	}
	if description, ok := fields["description"].(string); ok {
		candidate.Description = description
	}
	if err := validateProject(&candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}

	if err := repository.Conn(ctx, r.db).Model(project).Updates(fields).Error; err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("[ProjectRepository] database error updating project")
		return nil, errors.New("database error updating project")
	}
	return r.FindByIDAndUserID(ctx, projectID, userID)
}

// Delete removes the project row only; chats and interactions are cascaded by the caller.
func (r *gormProjectRepository) Delete(ctx context.Context, projectID, userID uint) error {
	result := repository.Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", projectID, userID).
		Delete(&domain.Project{})
	if result.Error != nil {
		log.Error().Err(result.Error).Uint("project_id", projectID).Msg("[ProjectRepository] database error deleting project")
		return errors.New("database error deleting project")
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func validateProject(project *domain.Project) error {
	if project == nil {
		return errors.New("project cannot be nil")
	}
	if project.UserID == 0 {
		return errors.New("user ID is required")
	}
	name := strings.TrimSpace(project.Name)
	if name == "" {
		return errors.New("project name is required")
	}
	if len(name) > 100 {
		return errors.New("project name must be 100 characters or less")
	}
	if len(project.Description) > 500 {
		return errors.New("description must be 500 characters or less")
	}
	return nil
}
