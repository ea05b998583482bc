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

const projectCollectionName = "projects"

// mongoProjectRepository implements repository.ProjectRepository
type mongoProjectRepository struct {
	collection *mongo.Collection
}

// NewMongoProjectRepository creates a new Project repository backed by MongoDB.
func NewMongoProjectRepository(db *mongo.Database) repository.ProjectRepository {
	return &mongoProjectRepository{
		collection: db.Collection(projectCollectionName),
	}
}

// Create inserts a new project. Document and slice fields are stored as empty
// values rather than null so later $set/$push on nested paths succeed.
func (r *mongoProjectRepository) Create(ctx context.Context, project *domain.Project) (primitive.ObjectID, error) {
	if project.Title == "" {
		return primitive.NilObjectID, errors.New("project requires a title")
	}

	project.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	normalizeProject(project)

	result, err := r.collection.InsertOne(ctx, project)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a project by its ID.
func (r *mongoProjectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByIDs retrieves every project whose ID is in ids, oldest first.
func (r *mongoProjectRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Project, error) {
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	projects := []domain.Project{}
	if err = cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	for i := range projects {
		normalizeProject(&projects[i])
	}
	return projects, nil
}

// SetAnalysisIfEmpty writes the analysis document only while the stored one is absent or empty.
func (r *mongoProjectRepository) SetAnalysisIfEmpty(ctx context.Context, id primitive.ObjectID, analysis domain.Document) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"analysis": bson.M{"$exists": false}},
			bson.M{"analysis": nil},
			bson.M{"analysis": bson.M{}},
		},
	}
	update := bson.M{"$set": bson.M{
		"analysis":  analysis,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the project is gone or its analysis is already set.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrPreconditionFailed
	}
	return nil
}

// SetFeedback overwrites the feedback document and returns the updated project.
func (r *mongoProjectRepository) SetFeedback(ctx context.Context, id primitive.ObjectID, feedback domain.Document) (*domain.Project, error) {
	update := bson.M{"$set": bson.M{
		"feedback":  feedback,
		"updatedAt": time.Now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

// AddComment appends a comment to the project.
func (r *mongoProjectRepository) AddComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) error {
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateComment replaces the text of one comment.
func (r *mongoProjectRepository) UpdateComment(ctx context.Context, id, commentID primitive.ObjectID, text string) (*domain.Comment, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "comments._id": commentID}
	update := bson.M{"$set": bson.M{
		"comments.$.text":      text,
		"comments.$.updatedAt": now,
		"updatedAt":            now,
	}}

	project, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	for i := range project.Comments {
		if project.Comments[i].ID == commentID {
			return &project.Comments[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// DeleteComment removes one comment from the project.
func (r *mongoProjectRepository) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "comments._id": commentID}
	update := bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MergeMentorRemarks sets each key of remarks inside mentorRemarks, keeping other keys.
// Keys must not contain '.' or start with '$'; the service validates them.
func (r *mongoProjectRepository) MergeMentorRemarks(ctx context.Context, id primitive.ObjectID, remarks domain.Document) (*domain.Project, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for key, value := range remarks {
		set["mentorRemarks."+key] = value
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// FindByStorageID returns a project that references the stored file.
func (r *mongoProjectRepository) FindByStorageID(ctx context.Context, storageID string) (*domain.Project, error) {
	return r.findOne(ctx, bson.M{"rawFiles.storageId": storageID})
}

// PullFileByStorageID removes the file record from all projects referencing it.
func (r *mongoProjectRepository) PullFileByStorageID(ctx context.Context, storageID string) (int64, error) {
	filter := bson.M{"rawFiles.storageId": storageID}
	update := bson.M{
		"$pull": bson.M{"rawFiles": bson.M{"storageId": storageID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoProjectRepository) findOne(ctx context.Context, filter bson.M) (*domain.Project, error) {
	var project domain.Project
	err := r.collection.FindOne(ctx, filter).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	normalizeProject(&project)
	return &project, nil
}

func (r *mongoProjectRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*domain.Project, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var project domain.Project
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	normalizeProject(&project)
	return &project, nil
}

func normalizeProject(p *domain.Project) {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.RawFiles == nil {
		p.RawFiles = []domain.FileRecord{}
	}
	if p.Transcript == nil {
		p.Transcript = []domain.Document{}
	}
	if p.FormattedFile == nil {
		p.FormattedFile = domain.Document{}
	}
	if p.Analysis == nil {
		p.Analysis = domain.Document{}
	}
	if p.Feedback == nil {
		p.Feedback = domain.Document{}
	}
	if p.Comments == nil {
		p.Comments = []domain.Comment{}
	}
	if p.MentorRemarks == nil {
		p.MentorRemarks = domain.Document{}
	}
}

// EnsureProjectIndexes creates necessary indexes for the projects collection.
func EnsureProjectIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// File deletion looks projects up by the stored object key.
			Keys:    bson.D{{Key: "rawFiles.storageId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Str("collection", collection.Name()).Msg("failed to create indexes")
	}
}
