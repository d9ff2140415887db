package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/notemark/noteservice/internal/apperrors"
	"github.com/notemark/noteservice/internal/note"
	"github.com/notemark/noteservice/internal/note/mapper"
	"github.com/notemark/noteservice/internal/note/repository"
)

func newTestService() (*Service, *repository.MemoryRepo) {
	repo := repository.NewMemoryRepo()
	return New(repo, Limits{}), repo
}

func strptr(s string) *string { return &s }

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, note.CreateInput{Title: "Buy milk"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Buy milk", created.Title)
	require.Equal(t, "", created.Content)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestCreate_ValidationBeforeBackend(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	_, err := svc.Create(ctx, note.CreateInput{Title: "   "})
	require.Error(t, err)
	require.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	require.Equal(t, 0, repo.CallCount("InsertOne"), "validation failure must not reach the backend")
}

func TestCreate_DuplicateTitleConflict(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Create(ctx, note.CreateInput{Title: "same"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, note.CreateInput{Title: "same"})
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestGet_MalformedIDNeverReachesBackend(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	_, err := svc.Get(ctx, "not-a-valid-id")
	require.Error(t, err)
	require.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	require.Equal(t, 0, repo.CallCount("FindOne"))
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Get(ctx, primitive.NewObjectID().Hex())
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdate_PartialChangesOnlyNamedFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	svc.now = func() time.Time { return t0 }
	created, err := svc.Create(ctx, note.CreateInput{Title: "Buy milk"})
	require.NoError(t, err)
	require.Equal(t, mapper.Timestamp(t0), created.CreatedAt)

	svc.now = func() time.Time { return t1 }
	updated, err := svc.Update(ctx, created.ID, note.UpdateInput{Content: strptr("2%")})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Buy milk", updated.Title)
	require.Equal(t, "2%", updated.Content)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, mapper.Timestamp(t1), updated.UpdatedAt)
	require.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestUpdate_RefreshesUpdatedAtEvenWhenValuesUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }
	created, err := svc.Create(ctx, note.CreateInput{Title: "same title"})
	require.NoError(t, err)

	t1 := t0.Add(time.Second)
	svc.now = func() time.Time { return t1 }
	updated, err := svc.Update(ctx, created.ID, note.UpdateInput{Title: strptr("same title")})
	require.NoError(t, err)
	require.Equal(t, mapper.Timestamp(t1), updated.UpdatedAt)
}

func TestUpdate_EmptyInputRejectedBeforeBackend(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	created, err := svc.Create(ctx, note.CreateInput{Title: "keep"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, note.UpdateInput{})
	require.Error(t, err)
	require.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	require.Equal(t, 0, repo.CallCount("UpdateOne"))

	// updatedAt untouched by the rejected update
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.UpdatedAt, got.UpdatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Update(ctx, primitive.NewObjectID().Hex(), note.UpdateInput{Title: strptr("x")})
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestDelete_SecondDeleteReportsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, note.CreateInput{Title: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.Get(ctx, created.ID)
	require.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestList_PaginationAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := New(repo, Limits{DefaultPageSize: 3, MaxPageSize: 4})

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		svc.now = func() time.Time { return tick }
		_, err := svc.Create(ctx, note.CreateInput{Title: fmt.Sprintf("note-%d", i+1)})
		require.NoError(t, err)
	}

	// explicit limit, ascending createdAt
	notes, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "note-1", notes[0].Title)
	require.Equal(t, "note-2", notes[1].Title)

	// limit <= 0 falls back to the configured default
	notes, err = svc.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, notes, 3)

	// limits above the configured maximum are clamped
	notes, err = svc.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, notes, 4)

	// offset past the end is an empty, non-error result
	notes, err = svc.List(ctx, 2, 10)
	require.NoError(t, err)
	require.Empty(t, notes)
}

func TestList_EmptyCollection(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	notes, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, notes)
}

func TestBackendFailureClassifiedUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	repo.FailWith = mongo.CommandError{Labels: []string{"NetworkError"}, Message: "connection reset"}

	_, err := svc.List(ctx, 10, 0)
	require.Error(t, err)
	require.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
}

func TestGet_MalformedStoredDocument(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	// a document missing its required title must decode to a classified
	// error, not a crash
	id := primitive.NewObjectID()
	repo.Put(id, bson.M{"createdAt": time.Now().UTC(), "updatedAt": time.Now().UTC()})

	_, err := svc.Get(ctx, id.Hex())
	require.Error(t, err)
	require.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	var de *mapper.DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "title", de.Field)
}
