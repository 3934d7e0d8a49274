package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"go.uber.org/zap"
)

type ScheduleService struct {
	schedules     ScheduleStore
	registrations RegistrationStore
	tutors        TutorStore
	notifications *NotificationService
	logger        *zap.Logger
}

func NewScheduleService(
	schedules ScheduleStore,
	registrations RegistrationStore,
	tutors TutorStore,
	notifications *NotificationService,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		schedules:     schedules,
		registrations: registrations,
		tutors:        tutors,
		notifications: notifications,
		logger:        logger,
	}
}

// SchedulePage - страница списка расписаний
type SchedulePage struct {
	Schedules  []*model.Schedule `json:"schedules"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// DeleteResult - итог удаления расписания
type DeleteResult struct {
	NotifiedUsers int `json:"notifiedUsers"`
}

// Create проверяет и сохраняет новое расписание, slug генерируется из заголовка
func (s *ScheduleService) Create(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error) {
	normalizeSchedule(schedule)

	if err := model.ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	if err := s.checkTutors(ctx, schedule); err != nil {
		return nil, err
	}

	key := textKey(schedule.Text)
	dup, err := s.schedules.FindByTextKey(ctx, key, "")
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateSchedule, dup.Slug)
	}

	schedule.Slug, err = uniqueSlug(ctx, s.schedules, schedule.Title)
	if err != nil {
		return nil, err
	}

	// Идентификаторы новых сессий назначает хранилище
	for i := range schedule.Sessions {
		schedule.Sessions[i].ID = ""
	}

	if err := s.schedules.Create(ctx, schedule, key); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.logger.Info("Schedule created",
		zap.Int64("schedule_id", schedule.ID),
		zap.String("slug", schedule.Slug),
		zap.Int("sessions", len(schedule.Sessions)))

	return s.withDetails(ctx, schedule)
}

// Update заменяет содержимое расписания. Slug не меняется.
// Нельзя удалить сессию, на которую есть активные записи.
func (s *ScheduleService) Update(ctx context.Context, slug string, schedule *model.Schedule, expectedVersion int) (*model.Schedule, error) {
	existing, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	normalizeSchedule(schedule)
	if err := model.ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	if err := s.checkTutors(ctx, schedule); err != nil {
		return nil, err
	}

	// Сессии с неизвестным id считаются новыми
	for i := range schedule.Sessions {
		if existing.FindSession(schedule.Sessions[i].ID) == nil {
			schedule.Sessions[i].ID = ""
		}
	}

	if err := s.checkRemovedSessions(ctx, existing, schedule); err != nil {
		return nil, err
	}

	key := textKey(schedule.Text)
	dup, err := s.schedules.FindByTextKey(ctx, key, existing.Slug)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateSchedule, dup.Slug)
	}

	schedule.ID = existing.ID
	schedule.Slug = existing.Slug
	if err := s.schedules.Update(ctx, schedule, key, expectedVersion); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	s.logger.Info("Schedule updated",
		zap.Int64("schedule_id", schedule.ID),
		zap.String("slug", schedule.Slug),
		zap.Int("version", schedule.Version))

	return s.withDetails(ctx, schedule)
}

func (s *ScheduleService) checkRemovedSessions(ctx context.Context, existing, updated *model.Schedule) error {
	kept := make(map[string]struct{}, len(updated.Sessions))
	for _, sess := range updated.Sessions {
		if sess.ID != "" {
			kept[sess.ID] = struct{}{}
		}
	}

	regs, err := s.registrations.ListBySchedule(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("list registrations: %w", err)
	}

	for _, reg := range regs {
		if reg.Status == model.RegistrationStatusRejected {
			continue
		}
		if _, ok := kept[reg.SessionID]; !ok {
			return fmt.Errorf("%w: %s", model.ErrSessionInUse, reg.SessionID)
		}
	}
	return nil
}

// checkTutors проверяет, что все тьюторы сессий существуют
func (s *ScheduleService) checkTutors(ctx context.Context, schedule *model.Schedule) error {
	ids := schedule.TutorIDs()
	tutors, err := s.tutors.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("get tutors: %w", err)
	}

	found := make(map[int64]struct{}, len(tutors))
	for _, t := range tutors {
		found[t.ID] = struct{}{}
	}

	var fields []model.FieldError
	for i, sess := range schedule.Sessions {
		if _, ok := found[sess.TutorID]; !ok {
			fields = append(fields, model.FieldError{Field: fmt.Sprintf("sessions[%d].tutor", i), Error: model.ErrTutorNotFound.Error()})
		}
	}
	if len(fields) > 0 {
		return model.NewValidationError(model.ErrTutorNotFound, fields...)
	}
	return nil
}

// Get получает расписание с тьюторами и заполненностью
func (s *ScheduleService) Get(ctx context.Context, slug string) (*model.Schedule, error) {
	schedule, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.withDetails(ctx, schedule)
}

func (s *ScheduleService) getBySlug(ctx context.Context, slug string) (*model.Schedule, error) {
	schedule, err := s.schedules.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if schedule == nil {
		return nil, model.ErrScheduleNotFound
	}
	return schedule, nil
}

// List возвращает страницу расписаний; заполненность считается одним агрегатом на страницу
func (s *ScheduleService) List(ctx context.Context, q model.ScheduleQuery) (*SchedulePage, error) {
	if q.Status != "" && q.Status != model.ScheduleStatusDraft && q.Status != model.ScheduleStatusPublished {
		return nil, model.NewValidationError(fmt.Errorf("invalid schedule status %q", q.Status),
			model.FieldError{Field: "status", Error: "must be one of draft, published"})
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Page = q.Page.Normalize()

	schedules, total, err := s.schedules.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if err := s.decorate(ctx, schedules); err != nil {
		return nil, err
	}

	if schedules == nil {
		schedules = []*model.Schedule{}
	}
	return &SchedulePage{
		Schedules:  schedules,
		Total:      total,
		Page:       q.Page.Page,
		Limit:      q.Page.Limit,
		TotalPages: q.Page.TotalPages(total),
	}, nil
}

// ListForTutor возвращает расписания, где тьютор ведёт хотя бы одну сессию
func (s *ScheduleService) ListForTutor(ctx context.Context, tutorID int64) ([]*model.Schedule, error) {
	schedules, err := s.schedules.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list tutor schedules: %w", err)
	}
	if err := s.decorate(ctx, schedules); err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []*model.Schedule{}
	}
	return schedules, nil
}

// CheckDuplicate сообщает, есть ли другое расписание с тем же текстом
func (s *ScheduleService) CheckDuplicate(ctx context.Context, text, excludeSlug string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, model.NewValidationError(model.ErrTextRequired,
			model.FieldError{Field: "text", Error: model.ErrTextRequired.Error()})
	}

	dup, err := s.schedules.FindByTextKey(ctx, textKey(text), excludeSlug)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return dup != nil, nil
}

// Delete удаляет расписание. Если есть активные записи и force = false,
// возвращает *model.RegistrationsConflictError. С force записи удаляются,
// а их владельцы получают уведомление.
func (s *ScheduleService) Delete(ctx context.Context, slug string, force bool) (*DeleteResult, error) {
	schedule, err := s.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	userIDs, err := s.schedules.DeleteCascade(ctx, schedule.ID, force)
	var conflict *model.RegistrationsConflictError
	if errors.As(err, &conflict) {
		return nil, conflict
	}
	if err != nil {
		return nil, fmt.Errorf("delete schedule: %w", err)
	}

	s.logger.Info("Schedule deleted",
		zap.Int64("schedule_id", schedule.ID),
		zap.String("slug", schedule.Slug),
		zap.Bool("force", force),
		zap.Int("affected_users", len(userIDs)))

	subject, body := scheduleDeletedMessage(schedule)
	if err := s.notifications.Enqueue(ctx, userIDs, model.NotificationScheduleDeleted, subject, body); err != nil {
		// Расписание уже удалено, откатывать нечего
		s.logger.Error("Failed to enqueue deletion notices",
			zap.Int64("schedule_id", schedule.ID),
			zap.Error(err))
	}

	return &DeleteResult{NotifiedUsers: len(userIDs)}, nil
}

func (s *ScheduleService) withDetails(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error) {
	if err := s.decorate(ctx, []*model.Schedule{schedule}); err != nil {
		return nil, err
	}
	return schedule, nil
}

// decorate заполняет тьюторов и заполненность
func (s *ScheduleService) decorate(ctx context.Context, schedules []*model.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(schedules))
	for _, schedule := range schedules {
		ids = append(ids, schedule.ID)
	}

	counts, err := s.registrations.ApprovedCounts(ctx, ids)
	if err != nil {
		return fmt.Errorf("count approved: %w", err)
	}
	for _, schedule := range schedules {
		model.ApplyCapacity(schedule, counts[schedule.ID])
	}

	return attachTutors(ctx, s.tutors, schedules)
}

func normalizeSchedule(schedule *model.Schedule) {
	schedule.Title = strings.TrimSpace(schedule.Title)
	schedule.Text = strings.TrimSpace(schedule.Text)
	if schedule.Status == "" {
		schedule.Status = model.ScheduleStatusDraft
	}
	images := schedule.Images[:0]
	for _, img := range schedule.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	schedule.Images = images
}
