package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/repository"
)

const studentLinkCollectionName = "student_links"

// mongoStudentLinkRepository implements repository.StudentLinkRepository
type mongoStudentLinkRepository struct {
	collection *mongo.Collection
}

// NewMongoStudentLinkRepository creates a new StudentLink repository backed by MongoDB.
func NewMongoStudentLinkRepository(db *mongo.Database) repository.StudentLinkRepository {
	return &mongoStudentLinkRepository{
		collection: db.Collection(studentLinkCollectionName),
	}
}

// AddProject upserts the student's link and adds projectID to its set of projects.
func (r *mongoStudentLinkRepository) AddProject(ctx context.Context, studentID, projectID primitive.ObjectID) error {
	filter := bson.M{"studentId": studentID}
	update := bson.M{
		"$addToSet": bson.M{"projects": projectID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// AssignMentor upserts the student's link, overwriting any previous mentor.
func (r *mongoStudentLinkRepository) AssignMentor(ctx context.Context, studentID, mentorID primitive.ObjectID) (*domain.StudentLink, error) {
	filter := bson.M{"studentId": studentID}
	update := bson.M{
		"$set": bson.M{
			"mentorId":  mentorID,
			"updatedAt": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"projects": bson.A{}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var link domain.StudentLink
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&link); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Only reachable with the unique mentor index enabled.
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	normalizeLink(&link)
	return &link, nil
}

// GetByStudentID retrieves the link owned by a student.
func (r *mongoStudentLinkRepository) GetByStudentID(ctx context.Context, studentID primitive.ObjectID) (*domain.StudentLink, error) {
	return r.findOne(ctx, bson.M{"studentId": studentID})
}

// ListByMentorID returns the links of every student assigned to the mentor.
func (r *mongoStudentLinkRepository) ListByMentorID(ctx context.Context, mentorID primitive.ObjectID) ([]domain.StudentLink, error) {
	return r.find(ctx, bson.M{"mentorId": mentorID})
}

// ListAssigned returns every link that has a mentor.
func (r *mongoStudentLinkRepository) ListAssigned(ctx context.Context) ([]domain.StudentLink, error) {
	return r.find(ctx, bson.M{"mentorId": bson.M{"$exists": true, "$ne": nil}})
}

// ListWithProjects returns every link with at least one project.
func (r *mongoStudentLinkRepository) ListWithProjects(ctx context.Context) ([]domain.StudentLink, error) {
	return r.find(ctx, bson.M{"projects.0": bson.M{"$exists": true}})
}

// HasMentorForProject reports whether projectID belongs to a student assigned to mentorID.
func (r *mongoStudentLinkRepository) HasMentorForProject(ctx context.Context, mentorID, projectID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"mentorId": mentorID, "projects": projectID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByProjectID returns the link whose project set contains projectID.
func (r *mongoStudentLinkRepository) FindByProjectID(ctx context.Context, projectID primitive.ObjectID) (*domain.StudentLink, error) {
	return r.findOne(ctx, bson.M{"projects": projectID})
}

func (r *mongoStudentLinkRepository) findOne(ctx context.Context, filter bson.M) (*domain.StudentLink, error) {
	var link domain.StudentLink
	if err := r.collection.FindOne(ctx, filter).Decode(&link); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	normalizeLink(&link)
	return &link, nil
}

func (r *mongoStudentLinkRepository) find(ctx context.Context, filter bson.M) ([]domain.StudentLink, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	links := []domain.StudentLink{}
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	for i := range links {
		normalizeLink(&links[i])
	}
	return links, nil
}

func normalizeLink(l *domain.StudentLink) {
	if l.Projects == nil {
		l.Projects = []primitive.ObjectID{}
	}
}

// EnsureStudentLinkIndexes creates necessary indexes for the student_links collection.
// With uniqueMentor set, a mentor can be linked to at most one student.
func EnsureStudentLinkIndexes(ctx context.Context, collection *mongo.Collection, uniqueMentor bool) {
	mentorIndex := options.Index()
	if uniqueMentor {
		mentorIndex.SetUnique(true).
			SetPartialFilterExpression(bson.M{"mentorId": bson.M{"$type": "objectId"}})
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "mentorId", Value: 1}},
			Options: mentorIndex,
		},
		{
			Keys:    bson.D{{Key: "projects", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Str("collection", collection.Name()).Msg("failed to create indexes")
	}
}
