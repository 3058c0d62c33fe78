package users

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "users"

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Name     string             `bson:"name"`
}

func (d userDocument) toUser() User {
	return User{ID: d.ID.Hex(), Username: d.Username, Name: d.Name}
}

type MongoRepository struct {
	Collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{Collection: db.Collection(CollectionName)}
}

func (r *MongoRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepository) List(ctx context.Context) ([]User, error) {
	cur, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cur)
}

// FindByIDs skips ids that are not valid ObjectIDs; they cannot match a
// stored user.
func (r *MongoRepository) FindByIDs(ctx context.Context, ids []string) ([]User, error) {
	oids := ObjectIDs(ids)
	if len(oids) == 0 {
		return []User{}, nil
	}
	cur, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cur)
}

func (r *MongoRepository) Insert(ctx context.Context, user User) (User, error) {
	doc := userDocument{Username: user.Username, Name: user.Name}
	if user.ID != "" {
		oid, err := primitive.ObjectIDFromHex(user.ID)
		if err != nil {
			return User{}, err
		}
		doc.ID = oid
	} else {
		doc.ID = primitive.NewObjectID()
	}
	if _, err := r.Collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrDuplicateUsername
		}
		return User{}, err
	}
	return doc.toUser(), nil
}

// ObjectIDs converts hex ids, dropping the ones that do not parse.
func ObjectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}

func decodeUsers(ctx context.Context, cur *mongo.Cursor) ([]User, error) {
	defer cur.Close(ctx)
	result := []User{}
	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toUser())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
