package service

import (
	"context"
	"fmt"
	"strings"

	"trackify/api/internal/domain"
	"trackify/api/internal/repository"
)

// ExerciseInput holds the editable fields of an exercise.
type ExerciseInput struct {
	Name         string
	Description  string
	MuscleGroup  string
	Equipment    string
	Difficulty   string
	Instructions []string
	VideoURL     string
}

type ExerciseService interface {
	CreateExercise(ctx context.Context, creator *domain.Principal, in ExerciseInput) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, id string) (*domain.Exercise, error)
	ListExercises(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, editor *domain.Principal, id string, in ExerciseInput) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, editor *domain.Principal, id string) error
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
	}
}

// CreateExercise adds an exercise to the public library. Requires manageExercises.
func (s *exerciseService) CreateExercise(ctx context.Context, creator *domain.Principal, in ExerciseInput) (*domain.Exercise, error) {
	if err := requirePermission(creator, domain.PermManageExercises); err != nil {
		return nil, err
	}
	if err := validateExercise(&in); err != nil {
		return nil, err
	}

	exercise := &domain.Exercise{CreatedBy: creator.ID()}
	applyExercise(exercise, in)

	if _, err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	return exercise, nil
}

// GetExerciseByID retrieves a single exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, id string) (*domain.Exercise, error) {
	exerciseID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, notFoundOr(err, "Exercise", "get exercise")
	}
	return exercise, nil
}

func (s *exerciseService) ListExercises(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error) {
	if filter.Difficulty != "" && !validDifficulty(filter.Difficulty) {
		return nil, InvalidInput("difficulty", "must be beginner, intermediate or advanced")
	}
	exercises, err := s.exerciseRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// UpdateExercise replaces the editable fields. The creator is kept.
func (s *exerciseService) UpdateExercise(ctx context.Context, editor *domain.Principal, id string, in ExerciseInput) (*domain.Exercise, error) {
	if err := requirePermission(editor, domain.PermManageExercises); err != nil {
		return nil, err
	}
	exerciseID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	if err := validateExercise(&in); err != nil {
		return nil, err
	}

	existing, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, notFoundOr(err, "Exercise", "update exercise")
	}
	applyExercise(existing, in)

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		return nil, notFoundOr(err, "Exercise", "update exercise")
	}
	return existing, nil
}

func (s *exerciseService) DeleteExercise(ctx context.Context, editor *domain.Principal, id string) error {
	if err := requirePermission(editor, domain.PermManageExercises); err != nil {
		return err
	}
	exerciseID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if err := s.exerciseRepo.Delete(ctx, exerciseID); err != nil {
		return notFoundOr(err, "Exercise", "delete exercise")
	}
	return nil
}

func validateExercise(in *ExerciseInput) error {
	fields := map[string]string{}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fields["name"] = "is required"
	}
	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
	if in.Difficulty != "" && !validDifficulty(in.Difficulty) {
		fields["difficulty"] = "must be beginner, intermediate or advanced"
	}
	if len(fields) > 0 {
		return ValidationError(fields)
	}
	return nil
}

func validDifficulty(d string) bool {
	switch d {
	case domain.DifficultyBeginner, domain.DifficultyIntermediate, domain.DifficultyAdvanced:
		return true
	}
	return false
}

func applyExercise(e *domain.Exercise, in ExerciseInput) {
	e.Name = in.Name
	e.Description = in.Description
	e.MuscleGroup = in.MuscleGroup
	e.Equipment = in.Equipment
	e.Difficulty = in.Difficulty
	e.Instructions = in.Instructions
	e.VideoURL = in.VideoURL
}
