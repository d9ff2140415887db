// Package mapper translates between MongoDB documents and note records.
// Reads are total: every stored document either yields a Note or a
// DecodeError naming the offending field. Writes are deterministic: the
// same input always produces the same document shape.
package mapper

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/notemark/noteservice/internal/apperrors"
	"github.com/notemark/noteservice/internal/note"
)

// DecodeError reports a persisted document that does not satisfy the
// record shape. It is classified as invalid input, never as a crash.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode field %q: %s", e.Field, e.Reason)
}

func decodeErr(field, reason string) error {
	return apperrors.Wrap(apperrors.KindInvalidInput,
		fmt.Sprintf("stored record has malformed field %q", field),
		&DecodeError{Field: field, Reason: reason})
}

// ParseID validates an opaque string identifier before it reaches the
// backend. Malformed identifiers fail fast as invalid input.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID,
			apperrors.Wrap(apperrors.KindInvalidInput, fmt.Sprintf("invalid note id %q", id), err)
	}
	return oid, nil
}

// Timestamp normalizes a time to what MongoDB can store: UTC with
// millisecond precision. Records returned from Create compare equal to
// the same record read back because both went through this.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// InsertDocument builds the persisted shape for a new note. The backend
// assigns _id, so it is never included here.
func InsertDocument(in note.CreateInput, now time.Time) bson.D {
	ts := Timestamp(now)
	return bson.D{
		{Key: "title", Value: in.Title},
		{Key: "content", Value: in.Content},
		{Key: "createdAt", Value: ts},
		{Key: "updatedAt", Value: ts},
	}
}

// UpdateDocument builds the $set payload for a partial update. Only
// fields present in the input appear; updatedAt is always refreshed.
func UpdateDocument(in note.UpdateInput, now time.Time) bson.D {
	set := bson.D{}
	if in.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *in.Title})
	}
	if in.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *in.Content})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: Timestamp(now)})
	return set
}

// Record decodes a raw document into a Note. Required fields that are
// missing or of the wrong type fail with a DecodeError; they are never
// silently defaulted.
func Record(doc bson.M) (*note.Note, error) {
	oid, err := objectIDField(doc, "_id")
	if err != nil {
		return nil, err
	}
	title, err := stringField(doc, "title")
	if err != nil {
		return nil, err
	}
	content, err := optionalStringField(doc, "content")
	if err != nil {
		return nil, err
	}
	createdAt, err := timeField(doc, "createdAt")
	if err != nil {
		return nil, err
	}
	updatedAt, err := timeField(doc, "updatedAt")
	if err != nil {
		return nil, err
	}
	return &note.Note{
		ID:        oid.Hex(),
		Title:     title,
		Content:   content,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func objectIDField(doc bson.M, key string) (primitive.ObjectID, error) {
	v, ok := doc[key]
	if !ok {
		return primitive.NilObjectID, decodeErr(key, "missing")
	}
	oid, ok := v.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, decodeErr(key, fmt.Sprintf("expected ObjectID, got %T", v))
	}
	return oid, nil
}

func stringField(doc bson.M, key string) (string, error) {
	v, ok := doc[key]
	if !ok {
		return "", decodeErr(key, "missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", decodeErr(key, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

func optionalStringField(doc bson.M, key string) (string, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", decodeErr(key, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

// timeField accepts both representations the driver produces: time.Time
// when a document round-trips through this process, primitive.DateTime
// when decoded straight off the wire into bson.M.
func timeField(doc bson.M, key string) (time.Time, error) {
	v, ok := doc[key]
	if !ok {
		return time.Time{}, decodeErr(key, "missing")
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case primitive.DateTime:
		return t.Time().UTC(), nil
	default:
		return time.Time{}, decodeErr(key, fmt.Sprintf("expected datetime, got %T", v))
	}
}
