// Package mongostore keeps users and travel stories in MongoDB. Documents use
// camelCase field names in the "users" and "travelstories" collections.
package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/travelstory-backend/internal/models"
	"github.com/AnshRaj112/travelstory-backend/internal/store"
)

const (
	usersCollection   = "users"
	storiesCollection = "travelstories"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FullName  string             `bson:"fullName"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedOn time.Time          `bson:"createdOn"`
}

type storyDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Story           string             `bson:"story"`
	VisitedLocation []string           `bson:"visitedLocation"`
	IsFavourite     bool               `bson:"isFavourite"`
	UserID          primitive.ObjectID `bson:"userId"`
	CreatedOn       time.Time          `bson:"createdOn"`
	ImageURL        string             `bson:"imageUrl"`
	VisitedDate     time.Time          `bson:"visitedDate"`
}

type Store struct {
	db      *mongo.Database
	users   *mongo.Collection
	stories *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:      db,
		users:   db.Collection(usersCollection),
		stories: db.Collection(storiesCollection),
	}
}

// Close disconnects the client that owns the database handle.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// EnsureIndexes configures the unique email index and the owner-scoped story indexes.
// Called on startup from main after Mongo has connected.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("idx_email_unique").SetUnique(true),
	}); err != nil {
		return err
	}

	storyIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "isFavourite", Value: -1},
			},
			Options: options.Index().SetName("idx_user_favourite"),
		},
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "visitedDate", Value: 1},
			},
			Options: options.Index().SetName("idx_user_visited_date"),
		},
	}
	_, err := s.stories.Indexes().CreateMany(ctx, storyIndexes)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedOn.IsZero() {
		user.CreatedOn = time.Now().UTC()
	}
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		FullName:  user.FullName,
		Email:     user.Email,
		Password:  user.Password,
		CreatedOn: user.CreatedOn,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return doc.model(), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, store.ErrNotFound
	}
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return models.User{}, notFound(err)
	}
	return doc.model(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdOn", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}

func (s *Store) CreateStory(ctx context.Context, story *models.TravelStory) error {
	owner, err := primitive.ObjectIDFromHex(story.UserID)
	if err != nil {
		return errors.New("invalid owner id")
	}
	if story.CreatedOn.IsZero() {
		story.CreatedOn = time.Now().UTC()
	}
	if story.VisitedLocation == nil {
		story.VisitedLocation = []string{}
	}
	doc := storyDoc{
		ID:              primitive.NewObjectID(),
		Title:           story.Title,
		Story:           story.Story,
		VisitedLocation: story.VisitedLocation,
		IsFavourite:     story.IsFavourite,
		UserID:          owner,
		CreatedOn:       story.CreatedOn,
		ImageURL:        story.ImageURL,
		VisitedDate:     story.VisitedDate,
	}
	if _, err := s.stories.InsertOne(ctx, doc); err != nil {
		return err
	}
	story.ID = doc.ID.Hex()
	return nil
}

func (s *Store) ListStories(ctx context.Context, owner string) ([]models.TravelStory, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return []models.TravelStory{}, nil
	}
	return s.findStories(ctx, bson.M{"userId": oid})
}

func (s *Store) UpdateStory(ctx context.Context, owner, id string, fields models.StoryFields) (models.TravelStory, error) {
	locations := fields.VisitedLocation
	if locations == nil {
		locations = []string{}
	}
	return s.updateOwned(ctx, owner, id, bson.M{
		"title":           fields.Title,
		"story":           fields.Story,
		"visitedLocation": locations,
		"imageUrl":        fields.ImageURL,
		"visitedDate":     fields.VisitedDate,
	})
}

func (s *Store) SetFavourite(ctx context.Context, owner, id string, favourite bool) (models.TravelStory, error) {
	return s.updateOwned(ctx, owner, id, bson.M{"isFavourite": favourite})
}

func (s *Store) DeleteStory(ctx context.Context, owner, id string) (models.TravelStory, error) {
	filter, ok := ownedFilter(owner, id)
	if !ok {
		return models.TravelStory{}, store.ErrNotFound
	}
	var doc storyDoc
	if err := s.stories.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return models.TravelStory{}, notFound(err)
	}
	return doc.model(), nil
}

// SearchStories matches query literally; regex metacharacters are quoted.
func (s *Store) SearchStories(ctx context.Context, owner, query string) ([]models.TravelStory, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return []models.TravelStory{}, nil
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return s.findStories(ctx, bson.M{
		"userId": oid,
		"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"story": pattern},
			bson.M{"visitedLocation": pattern},
		},
	})
}

func (s *Store) FilterStoriesByDate(ctx context.Context, owner string, r store.DateRange) ([]models.TravelStory, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return []models.TravelStory{}, nil
	}
	return s.findStories(ctx, bson.M{
		"userId":      oid,
		"visitedDate": bson.M{"$gte": r.Start.UTC(), "$lte": r.End.UTC()},
	})
}

func (s *Store) updateOwned(ctx context.Context, owner, id string, set bson.M) (models.TravelStory, error) {
	filter, ok := ownedFilter(owner, id)
	if !ok {
		return models.TravelStory{}, store.ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc storyDoc
	if err := s.stories.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return models.TravelStory{}, notFound(err)
	}
	return doc.model(), nil
}

func (s *Store) findStories(ctx context.Context, filter bson.M) ([]models.TravelStory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "isFavourite", Value: -1}})
	cur, err := s.stories.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stories := []models.TravelStory{}
	for cur.Next(ctx) {
		var doc storyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		stories = append(stories, doc.model())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return stories, nil
}

func ownedFilter(owner, id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	ownerID, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": ownerID}, true
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (d userDoc) model() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		FullName:  d.FullName,
		Email:     d.Email,
		Password:  d.Password,
		CreatedOn: d.CreatedOn,
	}
}

func (d storyDoc) model() models.TravelStory {
	locations := d.VisitedLocation
	if locations == nil {
		locations = []string{}
	}
	return models.TravelStory{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		Story:           d.Story,
		VisitedLocation: locations,
		IsFavourite:     d.IsFavourite,
		UserID:          d.UserID.Hex(),
		CreatedOn:       d.CreatedOn,
		ImageURL:        d.ImageURL,
		VisitedDate:     d.VisitedDate,
	}
}
