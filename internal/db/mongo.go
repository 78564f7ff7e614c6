package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/BorisDmv/blog-api/internal/models"
)

const defaultMongoDatabase = "blog"

// MongoStore keeps users and posts as documents; comments are embedded in
// their post and appended with $push.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection
}

type userDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Email       string             `bson:"email"`
	Password    string             `bson:"password"`
	DisplayName string             `bson:"displayName"`
	Role        string             `bson:"role"`
	Token       string             `bson:"token,omitempty"`
}

type commentDoc struct {
	Comment   string    `bson:"comment"`
	Date      time.Time `bson:"date"`
	CreatedBy string    `bson:"createdBy"`
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Author    string             `bson:"author"`
	CreatedAt time.Time          `bson:"createdAt"`
	Category  string             `bson:"category"`
	Body      string             `bson:"body"`
	MainImage string             `bson:"mainImage"`
	Thumbnail string             `bson:"thumbnail"`
	Comments  []commentDoc       `bson:"comments"`
}

// NewMongoStore connects to uri and ensures the unique indexes exist. The
// database name comes from the uri path, defaulting to "blog".
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongo uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	database := client.Database(dbName)
	store := &MongoStore{
		client: client,
		users:  database.Collection("users"),
		posts:  database.Collection("posts"),
	}
	_, err = store.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "displayName", Value: 1}}, Options: options.Index().SetUnique(true).SetName("displayName_unique")},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create user indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	doc := userDoc{
		ID:          primitive.NewObjectID(),
		Email:       u.Email,
		Password:    u.PasswordHash,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "displayName_unique") {
				return &DuplicateError{Field: "displayName", Value: u.DisplayName}
			}
			return &DuplicateError{Field: "email", Value: u.Email}
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) GetUserByToken(ctx context.Context, id, token string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid, "token": token})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &models.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		PasswordHash: doc.Password,
		DisplayName:  doc.DisplayName,
		Role:         models.Role(doc.Role),
		CurrentToken: doc.Token,
	}, nil
}

func (s *MongoStore) SetUserToken(ctx context.Context, id, token string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"token": token}})
	if err != nil {
		return fmt.Errorf("set user token: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set user token: %w", ErrNotFound)
	}
	return nil
}

func (s *MongoStore) ClearUserToken(ctx context.Context, id, token string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": oid, "token": token}, bson.M{"$unset": bson.M{"token": ""}})
	if err != nil {
		return fmt.Errorf("clear user token: %w", err)
	}
	return nil
}

func (s *MongoStore) HasUserWithRole(ctx context.Context, role models.Role) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"role": string(role)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users by role: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	cur, err := s.posts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, *docs[i].model())
	}
	return posts, nil
}

func (s *MongoStore) CreatePost(ctx context.Context, p *models.Post) error {
	doc := postDoc{
		ID:        primitive.NewObjectID(),
		Title:     p.Title,
		Author:    p.Author,
		CreatedAt: p.CreatedAt,
		Category:  p.Category,
		Body:      p.Body,
		MainImage: p.MainImage,
		Thumbnail: p.Thumbnail,
		Comments:  []commentDoc{},
	}
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	p.ID = doc.ID.Hex()
	p.Comments = []models.Comment{}
	return nil
}

func (s *MongoStore) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	set := bson.M{}
	for field, value := range map[string]*string{
		"title":     patch.Title,
		"category":  patch.Category,
		"body":      patch.Body,
		"mainImage": patch.MainImage,
		"thumbnail": patch.Thumbnail,
	} {
		if value != nil {
			set[field] = *value
		}
	}

	var doc postDoc
	if len(set) == 0 {
		err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = s.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("update post: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete post: %w", ErrNotFound)
	}
	return nil
}

func (s *MongoStore) AppendComment(ctx context.Context, id string, c models.Comment) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	push := bson.M{"$push": bson.M{"comments": commentDoc{Comment: c.Comment, Date: c.Date, CreatedBy: c.CreatedBy}}}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, push)
	if err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("append comment: %w", ErrNotFound)
	}
	return nil
}

func (d *postDoc) model() *models.Post {
	post := &models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Author:    d.Author,
		CreatedAt: d.CreatedAt,
		Category:  d.Category,
		Body:      d.Body,
		MainImage: d.MainImage,
		Thumbnail: d.Thumbnail,
		Comments:  make([]models.Comment, 0, len(d.Comments)),
	}
	for _, c := range d.Comments {
		post.Comments = append(post.Comments, models.Comment{Comment: c.Comment, Date: c.Date, CreatedBy: c.CreatedBy})
	}
	return post
}
