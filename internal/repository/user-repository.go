package repository

import (
	"context"
	"errors"
	"time"

	"kidoai-service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// EnsureIndexes creates the unique email index, the sparse googleId index
// and the score index backing the leaderboard sort.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "score", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Answers == nil {
		user.Answers = []models.Answer{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmailOrGoogleID(ctx context.Context, email, googleID string) (*models.User, error) {
	var user models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"googleId": googleID},
	}}
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile sets only the provided fields; zero values mean "leave as is".
func (r *UserRepository) UpdateProfile(ctx context.Context, id bson.ObjectID, name string, difficulty models.Difficulty, passwordHash string) error {
	set := bson.M{"updatedAt": time.Now()}
	if name != "" {
		set["name"] = name
	}
	if difficulty != "" {
		set["difficulty"] = difficulty
	}
	if passwordHash != "" {
		set["passwordHash"] = passwordHash
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (r *UserRepository) SetLastLogin(ctx context.Context, id bson.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"lastLogin": at, "updatedAt": at},
	})
	return err
}

// LinkGoogleID attaches a Google identity to an existing account and stamps
// the login in the same update, so linking on sign-in is a single write.
func (r *UserRepository) LinkGoogleID(ctx context.Context, id bson.ObjectID, googleID string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"googleId": googleID, "lastLogin": at, "updatedAt": at},
	})
	return err
}

// PushAnswer appends one answer and bumps the score in a single update, so
// concurrent submissions for the same user never lose an increment.
func (r *UserRepository) PushAnswer(ctx context.Context, id bson.ObjectID, answer models.Answer, scoreDelta int) (*models.User, error) {
	update := bson.M{
		"$push": bson.M{"answers": answer},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if scoreDelta != 0 {
		update["$inc"] = bson.M{"score": scoreDelta}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindActiveByScore returns active users sorted by score descending. The
// sort is stable for ties because Mongo keeps insertion order for equal keys
// within a single query plan, which is all the leaderboard promises.
func (r *UserRepository) FindActiveByScore(ctx context.Context, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// IsDuplicateKey reports whether err is a unique-index violation, which the
// error middleware maps to 409.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
