package mongo

import (
	"context"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ObservationRepository interface {
	Insert(ctx context.Context, o *models.FrameObservation) error
	MarkDetection(ctx context.Context, sessionID string, tickIndex int64, status string, faces int, topEmotion string, topConfidence float64, processingMS int64) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.FrameObservation, error)
}

type observationRepo struct {
	col *mongo.Collection
}

func NewObservationRepo(db *mongo.Database) ObservationRepository {
	return &observationRepo{col: db.Collection("frame_observations")}
}

func (r *observationRepo) Insert(ctx context.Context, o *models.FrameObservation) error {
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, o)
	return err
}

func (r *observationRepo) MarkDetection(ctx context.Context, sessionID string, tickIndex int64, status string, faces int, topEmotion string, topConfidence float64, processingMS int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "tick_index": tickIndex},
		bson.M{"$set": bson.M{
			"detect_status":      status,
			"faces_detected":     faces,
			"top_emotion":        topEmotion,
			"top_confidence":     topConfidence,
			"processing_time_ms": processingMS,
		}},
	)
	return err
}

func (r *observationRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.FrameObservation, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "tick_index", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FrameObservation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
