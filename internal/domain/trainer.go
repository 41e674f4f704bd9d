package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trainer is a marketplace trainer profile.
//
// Rating and ReviewsCount are derived from the trainer's reviews and are only
// written by the rating aggregator.
type Trainer struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty"`
	Specialization  string             `bson:"specialization" json:"specialization"`
	Bio             string             `bson:"bio,omitempty" json:"bio,omitempty"`
	ExperienceYears int                `bson:"experienceYears" json:"experienceYears"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	HourlyRate      float64            `bson:"hourlyRate" json:"hourlyRate"`
	Certifications  []string           `bson:"certifications,omitempty" json:"certifications,omitempty"`
	ImageKey        string             `bson:"imageKey,omitempty" json:"-"` // object key in S3, internal use
	IsActive        bool               `bson:"isActive" json:"isActive"`

	Rating       float64 `bson:"rating" json:"rating"`
	ReviewsCount int     `bson:"reviewsCount" json:"reviewsCount"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TrainerUpdate holds the editable trainer fields. It has no rating fields on purpose.
type TrainerUpdate struct {
	Name            *string
	Email           *string
	Specialization  *string
	Bio             *string
	ExperienceYears *int
	Location        *string
	HourlyRate      *float64
	Certifications  []string
	IsActive        *bool
}
