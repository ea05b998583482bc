package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a schema-less structured value produced by an external service
// (transcript entries, structured file, analysis, feedback) or by mentors (remarks).
type Document map[string]any

// IsEmpty reports whether d carries no fields. An empty analysis means "not analyzed yet".
func (d Document) IsEmpty() bool {
	return len(d) == 0
}

// Comment is a mentor's note on a project.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Text      string             `bson:"text" json:"text"`
	AuthorID  primitive.ObjectID `bson:"authorId" json:"authorId"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Project is a student's submitted body of work and everything derived from it.
type Project struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Tags          []string           `bson:"tags" json:"tags"`
	RawFiles      []FileRecord       `bson:"rawFiles" json:"rawFiles"`
	Transcript    []Document         `bson:"transcript" json:"transcript"`
	FormattedFile Document           `bson:"formattedFile" json:"formattedFile"`
	Analysis      Document           `bson:"analysis" json:"analysis"`
	Feedback      Document           `bson:"feedback" json:"feedback"`
	Comments      []Comment          `bson:"comments" json:"comments"`
	MentorRemarks Document           `bson:"mentorRemarks" json:"mentorRemarks"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsAnalyzed reports whether the analysis pipeline already wrote a result.
func (p *Project) IsAnalyzed() bool {
	return !p.Analysis.IsEmpty()
}

// ProjectSummary is the populated view used in student listings.
type ProjectSummary struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Tags        []string           `json:"tags"`
}

func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{ID: p.ID, Title: p.Title, Description: p.Description, Tags: p.Tags}
}
