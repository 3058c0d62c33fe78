package todos

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"time"

	"github.com/todo-1m/todo-api/internal/app/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "todos"

// todoDocument keeps the field names and reference types of the existing
// todos collection: user references are ObjectIDs.
type todoDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Title         string               `bson:"title"`
	Description   string               `bson:"description"`
	Priority      string               `bson:"priority"`
	Completed     bool                 `bson:"completed"`
	UserID        primitive.ObjectID   `bson:"userId"`
	Tags          []string             `bson:"tags"`
	AssignedUsers []primitive.ObjectID `bson:"assignedUsers"`
	Notes         []noteDocument       `bson:"notes"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

type noteDocument struct {
	ID        primitive.ObjectID  `bson:"_id"`
	Content   string              `bson:"content"`
	User      *primitive.ObjectID `bson:"user,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"`
}

func (d todoDocument) toTodo() Todo {
	t := Todo{
		ID:              d.ID.Hex(),
		OwnerID:         d.UserID.Hex(),
		Title:           d.Title,
		Description:     d.Description,
		Priority:        Priority(d.Priority),
		Completed:       d.Completed,
		Tags:            nonNil(d.Tags),
		AssignedUserIDs: make([]string, len(d.AssignedUsers)),
		Notes:           make([]Note, len(d.Notes)),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	for i, oid := range d.AssignedUsers {
		t.AssignedUserIDs[i] = oid.Hex()
	}
	for i, n := range d.Notes {
		t.Notes[i] = n.toNote()
	}
	return t
}

func (n noteDocument) toNote() Note {
	note := Note{ID: n.ID.Hex(), Content: n.Content, CreatedAt: n.CreatedAt}
	if n.User != nil {
		note.AuthorID = n.User.Hex()
	}
	return note
}

func newNoteDocument(n Note) noteDocument {
	doc := noteDocument{ID: primitive.NewObjectID(), Content: n.Content, CreatedAt: n.CreatedAt}
	if oid, err := primitive.ObjectIDFromHex(n.AuthorID); err == nil {
		doc.User = &oid
	}
	return doc
}

type MongoRepository struct {
	Collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{Collection: db.Collection(CollectionName)}
}

func (r *MongoRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "completed", Value: 1}}},
	})
	return err
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *MongoRepository) Find(ctx context.Context, f Filter, w Window) ([]Todo, error) {
	query, ok := buildFilter(f)
	if !ok {
		return []Todo{}, nil
	}
	opts := options.Find().SetSort(newestFirst).SetSkip(int64(w.Offset))
	if w.Limit > 0 {
		opts.SetLimit(int64(w.Limit))
	}
	cur, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	result := make([]Todo, 0, w.Limit)
	for cur.Next(ctx) {
		var doc todoDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toTodo())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *MongoRepository) Count(ctx context.Context, f Filter) (int64, error) {
	query, ok := buildFilter(f)
	if !ok {
		return 0, nil
	}
	return r.Collection.CountDocuments(ctx, query)
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Todo{}, ErrTodoNotFound
	}
	var doc todoDocument
	if err := r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Todo{}, notFound(err)
	}
	return doc.toTodo(), nil
}

func (r *MongoRepository) Insert(ctx context.Context, t Todo) (Todo, error) {
	owner, err := primitive.ObjectIDFromHex(t.OwnerID)
	if err != nil {
		return Todo{}, &users.MissingError{IDs: []string{t.OwnerID}}
	}
	assigned := users.ObjectIDs(t.AssignedUserIDs)
	if len(assigned) != len(t.AssignedUserIDs) {
		return Todo{}, &users.MissingError{IDs: invalidHex(t.AssignedUserIDs)}
	}
	doc := todoDocument{
		ID:            primitive.NewObjectID(),
		Title:         t.Title,
		Description:   t.Description,
		Priority:      string(t.Priority),
		Completed:     t.Completed,
		UserID:        owner,
		Tags:          nonNil(t.Tags),
		AssignedUsers: assigned,
		Notes:         make([]noteDocument, 0, len(t.Notes)),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	for _, n := range t.Notes {
		doc.Notes = append(doc.Notes, newNoteDocument(n))
	}
	if _, err := r.Collection.InsertOne(ctx, doc); err != nil {
		return Todo{}, err
	}
	return doc.toTodo(), nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, p Patch) (Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Todo{}, ErrTodoNotFound
	}
	set, err := buildSetDocument(p)
	if err != nil {
		return Todo{}, err
	}
	return r.findOneAndUpdate(ctx, oid, bson.M{"$set": set})
}

func (r *MongoRepository) Delete(ctx context.Context, id string) (Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Todo{}, ErrTodoNotFound
	}
	var doc todoDocument
	if err := r.Collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return Todo{}, notFound(err)
	}
	return doc.toTodo(), nil
}

func (r *MongoRepository) AppendNote(ctx context.Context, id string, n Note, at time.Time) (Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Todo{}, ErrTodoNotFound
	}
	return r.findOneAndUpdate(ctx, oid, bson.M{
		"$push": bson.M{"notes": newNoteDocument(n)},
		"$set":  bson.M{"updatedAt": at},
	})
}

func (r *MongoRepository) DistinctTags(ctx context.Context, ownerID string) ([]string, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []string{}, nil
	}
	values, err := r.Collection.Distinct(ctx, "tags", bson.M{"userId": owner})
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(values))
	for _, v := range values {
		if tag, ok := v.(string); ok {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (r *MongoRepository) findOneAndUpdate(ctx context.Context, oid primitive.ObjectID, update bson.M) (Todo, error) {
	var doc todoDocument
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return Todo{}, notFound(err)
	}
	return doc.toTodo(), nil
}

// buildFilter translates f into a query document. ok is false when the owner
// id cannot be an ObjectID, in which case nothing can match.
func buildFilter(f Filter) (bson.M, bool) {
	owner, err := primitive.ObjectIDFromHex(f.OwnerID)
	if err != nil {
		return nil, false
	}
	query := bson.M{"userId": owner}
	if len(f.Priorities) > 0 {
		values := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			values[i] = string(p)
		}
		query["priority"] = bson.M{"$in": values}
	}
	if len(f.Tags) > 0 {
		query["tags"] = bson.M{"$in": f.Tags}
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return query, true
}

func buildSetDocument(p Patch) (bson.M, error) {
	set := bson.M{"updatedAt": p.UpdatedAt}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Priority != nil {
		set["priority"] = string(*p.Priority)
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	if p.Tags != nil {
		set["tags"] = nonNil(*p.Tags)
	}
	if p.AssignedUserIDs != nil {
		assigned := users.ObjectIDs(*p.AssignedUserIDs)
		if len(assigned) != len(*p.AssignedUserIDs) {
			return nil, &users.MissingError{IDs: invalidHex(*p.AssignedUserIDs)}
		}
		set["assignedUsers"] = assigned
	}
	return set, nil
}

func invalidHex(ids []string) []string {
	var out []string
	for _, id := range ids {
		if !primitive.IsValidObjectID(id) {
			out = append(out, id)
		}
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrTodoNotFound
	}
	return err
}
