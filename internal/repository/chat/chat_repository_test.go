package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/repository"
	"github.com/iyunix/go-converse/internal/testutil"
)

func newChat(t *testing.T, repo ChatRepository, userID uint, title string) *domain.Chat {
	t.Helper()
	c, err := repo.Create(context.Background(), &domain.Chat{UserID: userID, Title: title})
	require.NoError(t, err)
	return c
}

func TestFindByUserIDWithPagination_NewestFirst(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	for i := 0; i < 12; i++ {
		newChat(t, repo, 1, fmt.Sprintf("chat %d", i))
	}
	newChat(t, repo, 2, "someone else")

	chats, total, err := repo.FindByUserIDWithPagination(context.Background(), 1, 5, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	require.Len(t, chats, 5)
	assert.Equal(t, "chat 6", chats[0].Title)
	assert.Equal(t, "chat 2", chats[4].Title)
}

func TestFindByIDAndUserID_HidesForeignChats(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	c := newChat(t, repo, 1, domain.DefaultChatTitle)

	_, err := repo.FindByIDAndUserID(context.Background(), c.ID, 2)
	assert.ErrorIs(t, err, ErrChatNotFound)

	found, err := repo.FindByIDAndUserID(context.Background(), c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)
}

func TestSetTitleIfDefault_OnlyOnce(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()
	c := newChat(t, repo, 1, domain.DefaultChatTitle)

	applied, err := repo.SetTitleIfDefault(ctx, c.ID, "Go generics")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.SetTitleIfDefault(ctx, c.ID, "Something else")
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go generics", stored.Title)
}

func TestSetTitleIfDefault_ConcurrentCallersSingleWinner(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	c := newChat(t, repo, 1, domain.DefaultChatTitle)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			applied, err := repo.SetTitleIfDefault(context.Background(), c.ID, fmt.Sprintf("title %d", i))
			assert.NoError(t, err)
			if applied {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestUpdateFields(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()
	c := newChat(t, repo, 1, domain.DefaultChatTitle)

	updated, err := repo.UpdateFields(ctx, c.ID, 1, map[string]interface{}{"title": "Renamed", "is_archived": true})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, updated.IsArchived)

	_, err = repo.UpdateFields(ctx, c.ID, 2, map[string]interface{}{"title": "Hijack"})
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = repo.UpdateFields(ctx, c.ID, 1, map[string]interface{}{"title": "<script>alert(1)</script>"})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()
	c := newChat(t, repo, 1, domain.DefaultChatTitle)

	assert.ErrorIs(t, repo.Delete(ctx, c.ID, 2), ErrChatNotFound)
	require.NoError(t, repo.Delete(ctx, c.ID, 1))

	_, err := repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestProjectScopedQueries(t *testing.T) {
	repo := NewChatRepository(testutil.NewDB(t))
	ctx := context.Background()
	projectID := uint(42)
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &domain.Chat{UserID: 1, ProjectID: &projectID, Title: domain.DefaultChatTitle})
		require.NoError(t, err)
	}
	newChat(t, repo, 1, "loose chat")

	ids, err := repo.FindIDsByProjectID(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	page, total, err := repo.FindByProjectIDWithPagination(ctx, projectID, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)

	n, err := repo.DeleteByProjectID(ctx, projectID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	count, err := repo.CountByUserID(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
