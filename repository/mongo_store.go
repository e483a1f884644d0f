package repository

import (
	"context"
	"errors"
	"time"

	"nutrilog/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colUsers     = "users"
	colFoods     = "foodEntries"
	colGoals     = "dailyGoals"
	colBMI       = "bmiRecords"
	colDevices   = "userDevices"
	colReminders = "reminders"
)

// NewMongoStore wraps a database handle. The client is disconnected on Close.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:     &mongoUsers{c: db.Collection(colUsers)},
		Foods:     &mongoFoods{c: db.Collection(colFoods)},
		Goals:     &mongoGoals{c: db.Collection(colGoals)},
		BMI:       &mongoBMI{c: db.Collection(colBMI)},
		Devices:   &mongoDevices{c: db.Collection(colDevices)},
		Reminders: &mongoReminders{c: db.Collection(colReminders)},
		migrate: func(ctx context.Context) error {
			return ensureMongoIndexes(ctx, db)
		},
		close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}
}

func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	idx := map[string][]mongo.IndexModel{
		colFoods: {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}}},
		colGoals: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		colBMI: {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}}},
		colDevices: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		colReminders: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "day", Value: 1}, {Key: "meal_type", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for col, ims := range idx {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, ims); err != nil {
			return err
		}
	}
	return nil
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

type mongoUsers struct{ c *mongo.Collection }

func (r *mongoUsers) Upsert(ctx context.Context, u *models.User) error {
	now := time.Now()
	u.UpdatedAt = now
	_, err := r.c.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{
			"$set": bson.M{
				"email":         u.Email,
				"name":          u.Name,
				"date_of_birth": u.DateOfBirth,
				"timezone":      u.Timezone,
				"updated_at":    now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *mongoUsers) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mongoNotFound(err)
	}
	return &u, nil
}

func (r *mongoUsers) List(ctx context.Context) ([]models.User, error) {
	cur, err := r.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type mongoFoods struct{ c *mongo.Collection }

func (r *mongoFoods) Create(ctx context.Context, e *models.FoodEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.c.InsertOne(ctx, e)
	return err
}

func (r *mongoFoods) List(ctx context.Context, userID string, from, to time.Time) ([]models.FoodEntry, error) {
	filter := bson.M{"user_id": userID}
	ts := bson.M{}
	if !from.IsZero() {
		ts["$gte"] = from
	}
	if !to.IsZero() {
		ts["$lt"] = to
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	cur, err := r.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FoodEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoFoods) Timestamps(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	filter := bson.M{"user_id": userID}
	if !since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": since}
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "timestamp": 1}).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := r.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Timestamp time.Time `bson:"timestamp"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Timestamp)
	}
	return out, nil
}

func (r *mongoFoods) Delete(ctx context.Context, userID, id string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoGoals struct{ c *mongo.Collection }

func (r *mongoGoals) Upsert(ctx context.Context, g *models.DailyGoal) error {
	g.UpdatedAt = time.Now()
	_, err := r.c.ReplaceOne(ctx,
		bson.M{"user_id": g.UserID, "day": g.Day},
		g,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *mongoGoals) Get(ctx context.Context, userID, day string) (*models.DailyGoal, error) {
	var g models.DailyGoal
	if err := r.c.FindOne(ctx, bson.M{"user_id": userID, "day": day}).Decode(&g); err != nil {
		return nil, mongoNotFound(err)
	}
	return &g, nil
}

type mongoBMI struct{ c *mongo.Collection }

func (r *mongoBMI) Append(ctx context.Context, rec *models.BMIRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.c.InsertOne(ctx, rec)
	return err
}

func (r *mongoBMI) List(ctx context.Context, userID string) ([]models.BMIRecord, error) {
	cur, err := r.c.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BMIRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type mongoDevices struct{ c *mongo.Collection }

func (r *mongoDevices) Upsert(ctx context.Context, d *models.UserDevice) (*models.UserDevice, error) {
	now := time.Now()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var out models.UserDevice
	err := r.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": d.UserID, "token_hash": d.TokenHash},
		bson.M{
			"$set": bson.M{
				"platform":     d.Platform,
				"endpoint_arn": d.EndpointARN,
				"updated_at":   now,
			},
			"$setOnInsert": bson.M{
				"_id":        uuid.NewString(),
				"enabled":    true,
				"created_at": now,
			},
		},
		opts,
	).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *mongoDevices) ListEnabled(ctx context.Context, userID string) ([]models.UserDevice, error) {
	cur, err := r.c.Find(ctx, bson.M{"user_id": userID, "enabled": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserDevice
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoDevices) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := r.c.UpdateMany(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"enabled": enabled, "updated_at": time.Now()}},
	)
	return err
}

type mongoReminders struct{ c *mongo.Collection }

func (r *mongoReminders) MarkSent(ctx context.Context, rem *models.Reminder) (bool, error) {
	if rem.SentAt.IsZero() {
		rem.SentAt = time.Now()
	}
	res, err := r.c.UpdateOne(ctx,
		bson.M{"user_id": rem.UserID, "day": rem.Day, "meal_type": rem.MealType},
		bson.M{"$setOnInsert": bson.M{"channel": rem.Channel, "sent_at": rem.SentAt}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent upsert won the insert
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
