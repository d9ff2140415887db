// Package service orchestrates the note CRUD operations over a raw
// document store. It validates inputs before any backend call, maps
// documents through the mapper, and returns only classified errors.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/notemark/noteservice/internal/apperrors"
	"github.com/notemark/noteservice/internal/note"
	"github.com/notemark/noteservice/internal/note/mapper"
)

// Repository is the minimal query surface the service needs from the
// backend. The Mongo repository implements it for real; the in-memory
// repository implements it for tests.
type Repository interface {
	Find(ctx context.Context, limit, offset int64) ([]bson.M, error)
	FindOne(ctx context.Context, id primitive.ObjectID) (bson.M, error)
	InsertOne(ctx context.Context, doc bson.D) (primitive.ObjectID, error)
	UpdateOne(ctx context.Context, id primitive.ObjectID, set bson.D) (bson.M, error)
	DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// Limits bounds list pagination. Zero values fall back to the package
// defaults so a zero-configured service still behaves sanely.
type Limits struct {
	DefaultPageSize int64
	MaxPageSize     int64
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Service struct {
	repo   Repository
	limits Limits
	now    func() time.Time
}

func New(repo Repository, limits Limits) *Service {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = defaultPageSize
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = maxPageSize
	}
	return &Service{repo: repo, limits: limits, now: time.Now}
}

// List returns notes ordered by creation time ascending. limit <= 0 uses
// the configured default; limits above the configured maximum are clamped.
// An empty collection is a valid, non-error result.
func (s *Service) List(ctx context.Context, limit, offset int64) ([]note.Note, error) {
	if limit <= 0 {
		limit = s.limits.DefaultPageSize
	}
	if limit > s.limits.MaxPageSize {
		limit = s.limits.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	docs, err := s.repo.Find(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	notes := make([]note.Note, 0, len(docs))
	for _, doc := range docs {
		rec, err := mapper.Record(doc)
		if err != nil {
			return nil, apperrors.Classify(err)
		}
		notes = append(notes, *rec)
	}
	return notes, nil
}

// Create validates the input, inserts the document and reads it back so
// the returned record carries the backend-assigned id and the stored
// timestamps (createdAt == updatedAt).
func (s *Service) Create(ctx context.Context, in note.CreateInput) (*note.Note, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "title is required")
	}
	id, err := s.repo.InsertOne(ctx, mapper.InsertDocument(in, s.now()))
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	doc, err := s.repo.FindOne(ctx, id)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	rec, err := mapper.Record(doc)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*note.Note, error) {
	oid, err := mapper.ParseID(id)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	doc, err := s.repo.FindOne(ctx, oid)
	if err != nil {
		return nil, s.classifyFor(id, err)
	}
	rec, err := mapper.Record(doc)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return rec, nil
}

// Update applies a partial update. Empty updates are rejected before any
// backend call rather than reported as an ambiguous no-op success.
// updatedAt is refreshed even when the new values equal the old ones.
func (s *Service) Update(ctx context.Context, id string, in note.UpdateInput) (*note.Note, error) {
	oid, err := mapper.ParseID(id)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	if in.IsEmpty() {
		return nil, apperrors.New(apperrors.KindInvalidInput, "update must change at least one field")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "title must not be empty")
	}
	doc, err := s.repo.UpdateOne(ctx, oid, mapper.UpdateDocument(in, s.now()))
	if err != nil {
		return nil, s.classifyFor(id, err)
	}
	rec, err := mapper.Record(doc)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return rec, nil
}

// Delete removes the note. A repeat delete of the same id reports
// NotFound, never a second success.
func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := mapper.ParseID(id)
	if err != nil {
		return apperrors.Classify(err)
	}
	n, err := s.repo.DeleteOne(ctx, oid)
	if err != nil {
		return apperrors.Classify(err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// classifyFor keeps not-found messages specific to the requested id while
// leaving every other kind to the classifier.
func (s *Service) classifyFor(id string, err error) error {
	ae := apperrors.Classify(err)
	if ae.Kind == apperrors.KindNotFound {
		return notFound(id)
	}
	return ae
}

func notFound(id string) error {
	return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("note with id %s not found", id))
}
