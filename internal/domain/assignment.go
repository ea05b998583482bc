package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudentLink connects a student to their mentor and to the projects they submitted.
// Created on the student's first project or on mentor assignment, whichever comes first.
type StudentLink struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	StudentID primitive.ObjectID   `bson:"studentId" json:"studentId"`
	MentorID  *primitive.ObjectID  `bson:"mentorId,omitempty" json:"mentorId,omitempty"` // nil until an admin assigns one
	Projects  []primitive.ObjectID `bson:"projects" json:"projects"`                     // unordered set
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasProject reports whether projectID is in the link's project set.
func (l *StudentLink) HasProject(projectID primitive.ObjectID) bool {
	for _, id := range l.Projects {
		if id == projectID {
			return true
		}
	}
	return false
}
