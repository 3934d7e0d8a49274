package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

type TutorService struct {
	tutors TutorStore
	logger *zap.Logger
}

func NewTutorService(tutors TutorStore, logger *zap.Logger) *TutorService {
	return &TutorService{tutors: tutors, logger: logger}
}

func (s *TutorService) List(ctx context.Context) ([]*model.Tutor, error) {
	tutors, err := s.tutors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tutors: %w", err)
	}
	if tutors == nil {
		tutors = []*model.Tutor{}
	}
	return tutors, nil
}

func (s *TutorService) Get(ctx context.Context, id int64) (*model.Tutor, error) {
	tutor, err := s.tutors.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil {
		return nil, model.ErrTutorNotFound
	}
	return tutor, nil
}

// Create добавляет тьютора; новый тьютор сразу активен
func (s *TutorService) Create(ctx context.Context, tutor *model.Tutor) (*model.Tutor, error) {
	tutor.Name = strings.TrimSpace(tutor.Name)
	tutor.Email = strings.TrimSpace(tutor.Email)

	var fields []model.FieldError
	if tutor.Name == "" {
		fields = append(fields, model.FieldError{Field: "name", Error: "is required"})
	}
	if tutor.Email != "" {
		if err := validate.Var(tutor.Email, "email"); err != nil {
			fields = append(fields, model.FieldError{Field: "email", Error: "must be a valid email address"})
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(nil, fields...)
	}

	tutor.IsActive = true
	if err := s.tutors.Create(ctx, tutor); err != nil {
		return nil, fmt.Errorf("create tutor: %w", err)
	}

	s.logger.Info("Tutor created", zap.Int64("tutor_id", tutor.ID), zap.String("name", tutor.Name))
	return tutor, nil
}
