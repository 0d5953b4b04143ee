package repository

import (
	"context"
	"errors"
	"time"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type progressRepository struct {
	db *mongo.Database
}

func NewProgressRepository(database *mongo.Database) domain.ProgressRepository {
	return &progressRepository{
		db: database,
	}
}

func (r *progressRepository) FetchOrCreate(ctx context.Context, roomID, userName string) (*domain.Progress, error) {
	if roomID == "" || userName == "" {
		return nil, domain.ErrInvalidInput
	}

	collection := r.db.Collection(db.ProgressCollection)
	filter := bson.M{"roomId": roomID, "userName": userName}

	var progress domain.Progress
	err := collection.FindOne(ctx, filter).Decode(&progress)
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	fresh := domain.NewDefaultProgress(roomID, userName)
	if _, err := collection.InsertOne(ctx, fresh); err != nil {
		// A concurrent join can win the insert race; the unique index
		// rejects the duplicate and the stored record is authoritative.
		if mongo.IsDuplicateKeyError(err) {
			if findErr := collection.FindOne(ctx, filter).Decode(&progress); findErr == nil {
				return &progress, nil
			}
		}
		return nil, err
	}

	return fresh, nil
}

func (r *progressRepository) Upsert(ctx context.Context, roomID, userName string, fields domain.ProgressFields) (*domain.Progress, error) {
	if roomID == "" || userName == "" {
		return nil, domain.ErrInvalidInput
	}

	collection := r.db.Collection(db.ProgressCollection)
	filter := bson.M{"roomId": roomID, "userName": userName}

	set := bson.M{"lastUpdated": time.Now().UTC()}
	if fields.Code != nil {
		set["code"] = *fields.Code
	}
	if fields.WhiteboardContent != nil {
		set["whiteboardContent"] = *fields.WhiteboardContent
	}
	if fields.DrawingData != nil {
		set["drawingData"] = fields.DrawingData
	}
	if fields.CursorPosition != nil {
		set["cursorPosition"] = *fields.CursorPosition
	}

	// Fields absent from the update are seeded with defaults only when the
	// upsert inserts a brand-new record.
	setOnInsert := bson.M{}
	if fields.Code == nil {
		setOnInsert["code"] = domain.DefaultCode
	}
	if fields.WhiteboardContent == nil {
		setOnInsert["whiteboardContent"] = ""
	}
	if fields.DrawingData == nil {
		setOnInsert["drawingData"] = []domain.Stroke{}
	}
	if fields.CursorPosition == nil {
		setOnInsert["cursorPosition"] = domain.CursorPosition{}
	}

	update := bson.M{"$set": set}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var progress domain.Progress
	if err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&progress); err != nil {
		return nil, err
	}

	return &progress, nil
}

// EnsureProgressIndexes creates the unique (roomId, userName) compound index
// the fetch-or-create race resolution depends on.
func EnsureProgressIndexes(ctx context.Context, database *mongo.Database) error {
	collection := database.Collection(db.ProgressCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "roomId", Value: 1},
				{Key: "userName", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "lastUpdated", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
