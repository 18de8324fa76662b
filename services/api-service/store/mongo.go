package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"desa-feedback-system/services/api-service/models"
)

const (
	adminCollection      = "admins"
	laporanCollection    = "laporan"
	pengumumanCollection = "pengumuman"
)

// newestFirst sorts list results by creation time, descending.
var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

func objectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// An unparseable id cannot match any record.
		return primitive.NilObjectID, ErrNotFound
	}
	return objID, nil
}

// MongoAdmins implements AdminStore over the admins collection.
type MongoAdmins struct {
	col *mongo.Collection
}

func NewMongoAdmins(db *mongo.Database) *MongoAdmins {
	return &MongoAdmins{col: db.Collection(adminCollection)}
}

// EnsureIndexes creates the unique username index. It has to exist before
// the first registration so duplicates surface as conflicts, never as a
// second record.
func (s *MongoAdmins) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoAdmins) Insert(ctx context.Context, admin models.Admin) (string, error) {
	admin.ID = primitive.NewObjectID()
	admin.CreatedAt = time.Now()

	if _, err := s.col.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	return admin.ID.Hex(), nil
}

func (s *MongoAdmins) FindByUsername(ctx context.Context, username string) (models.Admin, error) {
	var admin models.Admin
	err := s.col.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Admin{}, ErrNotFound
	}
	return admin, err
}

// MongoLaporan implements LaporanStore over the laporan collection.
type MongoLaporan struct {
	col *mongo.Collection
}

func NewMongoLaporan(db *mongo.Database) *MongoLaporan {
	return &MongoLaporan{col: db.Collection(laporanCollection)}
}

func (s *MongoLaporan) Insert(ctx context.Context, l models.Laporan) (models.Laporan, error) {
	l.ID = primitive.NewObjectID()
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if l.Status == "" {
		l.Status = models.StatusPending
	}
	if l.Priority == "" {
		l.Priority = models.PriorityLow
	}
	if l.Attachments == nil {
		l.Attachments = []models.Attachment{}
	}

	if _, err := s.col.InsertOne(ctx, l); err != nil {
		return models.Laporan{}, err
	}
	return l, nil
}

func (s *MongoLaporan) All(ctx context.Context) ([]models.Laporan, error) {
	cursor, err := s.col.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	laporan := []models.Laporan{}
	if err := cursor.All(ctx, &laporan); err != nil {
		return nil, err
	}
	return laporan, nil
}

func (s *MongoLaporan) UpdateTriage(ctx context.Context, id, status, priority string) (models.Laporan, error) {
	objID, err := objectID(id)
	if err != nil {
		return models.Laporan{}, err
	}

	set := bson.M{"updated_at": time.Now()}
	if status != "" {
		set["status"] = status
	}
	if priority != "" {
		set["priority"] = priority
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Laporan
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Laporan{}, ErrNotFound
	}
	return updated, err
}

func (s *MongoLaporan) Delete(ctx context.Context, id string) (models.Laporan, error) {
	objID, err := objectID(id)
	if err != nil {
		return models.Laporan{}, err
	}

	// FindOneAndDelete hands back the document as it was at deletion time,
	// attachments included, in one store round trip.
	var deleted models.Laporan
	err = s.col.FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Laporan{}, ErrNotFound
	}
	return deleted, err
}

// MongoPengumuman implements PengumumanStore over the pengumuman collection.
type MongoPengumuman struct {
	col *mongo.Collection
}

func NewMongoPengumuman(db *mongo.Database) *MongoPengumuman {
	return &MongoPengumuman{col: db.Collection(pengumumanCollection)}
}

func (s *MongoPengumuman) Insert(ctx context.Context, p models.Pengumuman) (models.Pengumuman, error) {
	p.ID = primitive.NewObjectID()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Attachments == nil {
		p.Attachments = []models.Attachment{}
	}

	if _, err := s.col.InsertOne(ctx, p); err != nil {
		return models.Pengumuman{}, err
	}
	return p, nil
}

func (s *MongoPengumuman) All(ctx context.Context) ([]models.Pengumuman, error) {
	cursor, err := s.col.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	pengumuman := []models.Pengumuman{}
	if err := cursor.All(ctx, &pengumuman); err != nil {
		return nil, err
	}
	return pengumuman, nil
}

func (s *MongoPengumuman) Get(ctx context.Context, id string) (models.Pengumuman, error) {
	objID, err := objectID(id)
	if err != nil {
		return models.Pengumuman{}, err
	}

	var p models.Pengumuman
	err = s.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Pengumuman{}, ErrNotFound
	}
	return p, err
}

func (s *MongoPengumuman) Replace(ctx context.Context, id, title, body string, attachments []models.Attachment) (models.Pengumuman, error) {
	objID, err := objectID(id)
	if err != nil {
		return models.Pengumuman{}, err
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	update := bson.M{"$set": bson.M{
		"title":       title,
		"body":        body,
		"attachments": attachments,
		"updated_at":  time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Pengumuman
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Pengumuman{}, ErrNotFound
	}
	return updated, err
}

func (s *MongoPengumuman) Delete(ctx context.Context, id string) (models.Pengumuman, error) {
	objID, err := objectID(id)
	if err != nil {
		return models.Pengumuman{}, err
	}

	var deleted models.Pengumuman
	err = s.col.FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Pengumuman{}, ErrNotFound
	}
	return deleted, err
}
