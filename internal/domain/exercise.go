// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty levels accepted for exercises.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Exercise represents a single exercise definition in the public library.
type Exercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	MuscleGroup  string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs", "Back"
	Equipment    string             `bson:"equipment,omitempty" json:"equipment,omitempty"`     // e.g., "Dumbbell", "None"
	Difficulty   string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Instructions []string           `bson:"instructions,omitempty" json:"instructions,omitempty"` // ordered steps
	VideoURL     string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	CreatedBy    primitive.ObjectID `bson:"createdBy" json:"createdBy"` // admin who added it

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseFilter narrows exercise listings. Empty fields match everything.
type ExerciseFilter struct {
	MuscleGroup string
	Difficulty  string
}
