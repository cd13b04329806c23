package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-converse/internal/domain"
	chatrepo "github.com/iyunix/go-converse/internal/repository/chat"
)

func (e *testEnv) createProjectChat(t *testing.T, userID, projectID uint) *domain.Chat {
	t.Helper()
	c, err := e.chatRepo.Create(context.Background(), &domain.Chat{UserID: userID, ProjectID: &projectID, Title: domain.DefaultChatTitle})
	require.NoError(t, err)
	return c
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	ctx := context.Background()

	p, err := env.projects.CreateProject(ctx, 1, "  Thesis  ", " notes ")
	require.NoError(t, err)
	assert.Equal(t, "Thesis", p.Name)
	assert.Equal(t, "notes", p.Description)

	_, err = env.projects.CreateProject(ctx, 1, " ", "")
	assert.True(t, IsType(err, ErrTypeValidation))

	_, err = env.projects.CreateProject(ctx, 1, strings.Repeat("n", 101), "")
	assert.True(t, IsType(err, ErrTypeValidation))
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		_, err := env.projects.CreateProject(ctx, 1, name, "")
		require.NoError(t, err)
	}

	projects, meta, err := env.projects.ListProjects(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
	assert.Equal(t, PageMeta{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasNext: true}, meta)
}

func TestUpdateProject_AllowList(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	ctx := context.Background()
	p, err := env.projects.CreateProject(ctx, 1, "Old", "")
	require.NoError(t, err)

	updated, err := env.projects.UpdateProject(ctx, 1, p.ID, map[string]any{
		"name":        "New",
		"description": "desc",
		"userId":      float64(9),
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, uint(1), updated.UserID)

	_, err = env.projects.UpdateProject(ctx, 1, p.ID, map[string]any{"name": 3})
	assert.True(t, IsType(err, ErrTypeValidation))

	_, err = env.projects.UpdateProject(ctx, 2, p.ID, map[string]any{"name": "Mine"})
	assert.True(t, IsType(err, ErrTypeNotFound))
}

func TestDeleteProject_TwoLevelCascade(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	ctx := context.Background()

	p, err := env.projects.CreateProject(ctx, 1, "Doomed", "")
	require.NoError(t, err)
	var projectChats []*domain.Chat
	for i := 0; i < 3; i++ {
		c := env.createProjectChat(t, 1, p.ID)
		env.seedInteractions(t, c.ID, 2)
		projectChats = append(projectChats, c)
	}
	loose := env.createChat(t, 1)
	env.seedInteractions(t, loose.ID, 1)

	require.NoError(t, env.projects.DeleteProject(ctx, 1, p.ID))

	_, err = env.projectRepo.FindByIDAndUserID(ctx, p.ID, 1)
	assert.Error(t, err)
	for _, c := range projectChats {
		_, err := env.chatRepo.FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, chatrepo.ErrChatNotFound)
		assert.Zero(t, env.countInteractions(t, c.ID))
	}
	assert.EqualValues(t, 1, env.countInteractions(t, loose.ID))

	err = env.projects.DeleteProject(ctx, 1, p.ID)
	assert.True(t, IsType(err, ErrTypeNotFound))
}

func TestDeleteProject_ForeignProjectUntouched(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	ctx := context.Background()

	p, err := env.projects.CreateProject(ctx, 2, "Theirs", "")
	require.NoError(t, err)
	c := env.createProjectChat(t, 2, p.ID)
	env.seedInteractions(t, c.ID, 2)

	err = env.projects.DeleteProject(ctx, 1, p.ID)
	assert.True(t, IsType(err, ErrTypeNotFound))
	assert.EqualValues(t, 2, env.countInteractions(t, c.ID))
}

func TestListProjectChats(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	ctx := context.Background()

	p, err := env.projects.CreateProject(ctx, 1, "Work", "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		env.createProjectChat(t, 1, p.ID)
	}
	env.createChat(t, 1)

	page, meta, err := env.projects.ListProjectChats(ctx, 1, p.ID, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, p.ID, page.Project.ID)
	assert.Len(t, page.Chats, 1)
	assert.Equal(t, PageMeta{Page: 2, Limit: 3, Total: 4, TotalPages: 2, HasPrev: true}, meta)

	_, _, err = env.projects.ListProjectChats(ctx, 2, p.ID, 1, 10)
	assert.True(t, IsType(err, ErrTypeNotFound))
}
