package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/payment"
	"go.uber.org/zap"
)

type RegistrationService struct {
	registrations RegistrationStore
	schedules     ScheduleStore
	users         UserStore
	tutors        TutorStore
	notifications *NotificationService
	links         payment.LinkGenerator // nil - ссылку передаёт оператор
	logger        *zap.Logger
}

func NewRegistrationService(
	registrations RegistrationStore,
	schedules ScheduleStore,
	users UserStore,
	tutors TutorStore,
	notifications *NotificationService,
	links payment.LinkGenerator,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		schedules:     schedules,
		users:         users,
		tutors:        tutors,
		notifications: notifications,
		links:         links,
		logger:        logger,
	}
}

// RegistrationPage - страница общего списка записей
type RegistrationPage struct {
	Registrations []*model.Registration `json:"registrations"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	TotalPages    int                   `json:"totalPages"`
}

// ScheduleRegistrations - записи одного расписания со статистикой и заполненностью
type ScheduleRegistrations struct {
	Schedule      *model.Schedule         `json:"schedule"`
	Registrations []*model.Registration   `json:"registrations"`
	Stats         model.RegistrationStats `json:"stats"`
	Capacity      model.Capacity          `json:"capacity"`
}

// Get получает запись со студентом, расписанием и сессией
func (s *RegistrationService) Get(ctx context.Context, id int64) (*model.Registration, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, []*model.Registration{reg}); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *RegistrationService) load(ctx context.Context, id int64) (*model.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg == nil {
		return nil, model.ErrRegistrationNotFound
	}
	return reg, nil
}

// List возвращает страницу всех записей
func (s *RegistrationService) List(ctx context.Context, q model.RegistrationQuery) (*RegistrationPage, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, model.NewValidationError(fmt.Errorf("%w: %q", model.ErrInvalidStatus, q.Status),
			model.FieldError{Field: "status", Error: "must be one of pending, approved, rejected"})
	}
	q.Page = q.Page.Normalize()

	regs, total, err := s.registrations.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if err := s.populate(ctx, regs); err != nil {
		return nil, err
	}

	return &RegistrationPage{
		Registrations: nonNilRegistrations(regs),
		Total:         total,
		Page:          q.Page.Page,
		Limit:         q.Page.Limit,
		TotalPages:    q.Page.TotalPages(total),
	}, nil
}

// ListBySchedule возвращает записи расписания, отфильтрованные filter.
// Статистика и заполненность считаются по всем записям.
func (s *RegistrationService) ListBySchedule(ctx context.Context, scheduleID int64, filter model.RegistrationFilter) (*ScheduleRegistrations, error) {
	schedule, err := s.schedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	regs, err := s.registrations.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list schedule registrations: %w", err)
	}

	return s.scheduleRegistrations(ctx, schedule, regs, filter)
}

// ListForTutor - то же, что ListBySchedule, но только по сессиям тьютора
func (s *RegistrationService) ListForTutor(ctx context.Context, principal *model.Principal, scheduleID int64, filter model.RegistrationFilter) (*ScheduleRegistrations, error) {
	schedule, err := s.schedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !principal.CanManageSchedule(schedule) {
		return nil, model.ErrForbidden
	}

	regs, err := s.registrations.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list schedule registrations: %w", err)
	}

	if principal.IsTutor() {
		own := make(map[string]struct{})
		sessions := make([]model.Session, 0, len(schedule.Sessions))
		for _, sess := range schedule.Sessions {
			if sess.TutorID == *principal.TutorID {
				own[sess.ID] = struct{}{}
				sessions = append(sessions, sess)
			}
		}
		schedule.Sessions = sessions

		filtered := make([]*model.Registration, 0, len(regs))
		for _, reg := range regs {
			if _, ok := own[reg.SessionID]; ok {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}

	return s.scheduleRegistrations(ctx, schedule, regs, filter)
}

func (s *RegistrationService) scheduleRegistrations(ctx context.Context, schedule *model.Schedule, regs []*model.Registration, filter model.RegistrationFilter) (*ScheduleRegistrations, error) {
	if err := s.populateTutors(ctx, []*model.Schedule{schedule}); err != nil {
		return nil, err
	}

	capacity := model.ScheduleCapacity(schedule, regs)
	stats := model.ComputeStats(regs)

	regs = filter.Apply(regs)
	if err := s.populate(ctx, regs); err != nil {
		return nil, err
	}

	return &ScheduleRegistrations{
		Schedule:      schedule,
		Registrations: regs,
		Stats:         stats,
		Capacity:      capacity,
	}, nil
}

// ListForStudent - записи студента, найденного по чату Telegram
func (s *RegistrationService) ListForStudent(ctx context.Context, telegramID int64) ([]*model.Registration, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	regs, err := s.registrations.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	if err := s.populate(ctx, regs); err != nil {
		return nil, err
	}
	return nonNilRegistrations(regs), nil
}

// Capacity возвращает расписание с заполненностью по каждой сессии
func (s *RegistrationService) Capacity(ctx context.Context, scheduleID int64) (*model.Schedule, error) {
	schedule, err := s.schedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	counts, err := s.registrations.ApprovedCounts(ctx, []int64{scheduleID})
	if err != nil {
		return nil, fmt.Errorf("count approved: %w", err)
	}
	model.ApplyCapacity(schedule, counts[scheduleID])
	return schedule, nil
}

// UpdateStatus одобряет или отклоняет запись.
// expectedVersion = 0 отключает проверку конкурентного изменения.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id int64, change model.StatusChange, expectedVersion int) (*model.Registration, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := model.ValidateStatusChange(reg.Status, change); err != nil {
		return nil, err
	}

	if change.To == model.RegistrationStatusApproved {
		s.warnIfFull(ctx, reg)
	}

	reg.Status = change.To
	reg.Notes = model.ComposeNotes(change)
	reg.RejectionReason = ""
	if change.To == model.RegistrationStatusRejected {
		reg.RejectionReason = strings.TrimSpace(change.RejectionReason)
	}

	if err := s.registrations.UpdateStatus(ctx, reg, expectedVersion); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logger.Info("Registration status changed",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("user_id", reg.UserID),
		zap.String("status", string(reg.Status)))

	if err := s.populate(ctx, []*model.Registration{reg}); err != nil {
		return nil, err
	}

	subject, body := statusMessage(reg)
	s.enqueue(ctx, reg, model.NotificationStatusChanged, subject, body)

	return reg, nil
}

// warnIfFull только предупреждает: приём сверх вместимости решает оператор
func (s *RegistrationService) warnIfFull(ctx context.Context, reg *model.Registration) {
	schedule, err := s.schedules.GetByID(ctx, reg.ScheduleID)
	if err != nil || schedule == nil {
		return
	}
	session := schedule.FindSession(reg.SessionID)
	if session == nil {
		return
	}

	counts, err := s.registrations.ApprovedCounts(ctx, []int64{reg.ScheduleID})
	if err != nil {
		s.logger.Warn("Failed to count approved registrations", zap.Error(err))
		return
	}

	capacity := model.NewCapacity(counts[reg.ScheduleID][reg.SessionID], session.Capacity)
	if capacity.IsFull {
		s.logger.Warn("Approving registration for a full session",
			zap.Int64("registration_id", reg.ID),
			zap.String("session_id", reg.SessionID),
			zap.Int("enrolled", capacity.Enrolled),
			zap.Int("capacity", capacity.Capacity))
	}
}

// UpdatePaymentStatus отмечает одобренную запись оплаченной или бесплатной
func (s *RegistrationService) UpdatePaymentStatus(ctx context.Context, id int64, to model.PaymentStatus, expectedVersion int) (*model.Registration, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := model.ValidatePaymentChange(reg, to); err != nil {
		return nil, err
	}

	reg.PaymentStatus = to
	if err := s.registrations.UpdatePayment(ctx, reg, expectedVersion); err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}

	s.logger.Info("Registration payment status changed",
		zap.Int64("registration_id", reg.ID),
		zap.String("payment_status", string(reg.PaymentStatus)))

	if err := s.populate(ctx, []*model.Registration{reg}); err != nil {
		return nil, err
	}

	subject, body := paymentMessage(reg)
	s.enqueue(ctx, reg, model.NotificationPaymentChanged, subject, body)

	return reg, nil
}

// SendPaymentLink сохраняет ссылку, переводит оплату в pending и отправляет ссылку студенту.
// Пустая ссылка выпускается платёжным провайдером, если он настроен.
func (s *RegistrationService) SendPaymentLink(ctx context.Context, id int64, link string) (*model.Registration, error) {
	reg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := model.ValidatePaymentLink(reg); err != nil {
		return nil, err
	}

	if err := s.populate(ctx, []*model.Registration{reg}); err != nil {
		return nil, err
	}

	link = strings.TrimSpace(link)
	if link == "" {
		link, err = s.generateLink(ctx, reg)
		if err != nil {
			return nil, err
		}
	}

	reg.PaymentLink = link
	reg.PaymentStatus = model.PaymentStatusPending
	if err := s.registrations.UpdatePayment(ctx, reg, 0); err != nil {
		return nil, fmt.Errorf("save payment link: %w", err)
	}

	s.logger.Info("Payment link sent",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("user_id", reg.UserID))

	subject, body := paymentLinkMessage(reg)
	s.enqueue(ctx, reg, model.NotificationPaymentLink, subject, body)

	return reg, nil
}

func (s *RegistrationService) generateLink(ctx context.Context, reg *model.Registration) (string, error) {
	if s.links == nil {
		return "", model.NewValidationError(model.ErrPaymentLinkRequired,
			model.FieldError{Field: "paymentLink", Error: "is required"})
	}

	order := payment.Order{RegistrationID: reg.ID}
	if reg.Schedule != nil {
		order.ScheduleTitle = reg.Schedule.Title
		order.Amount = reg.Schedule.Price
	}
	if reg.User != nil {
		order.CustomerName = reg.User.FullName
		order.CustomerEmail = reg.User.Email
		order.CustomerPhone = reg.User.PhoneNumber
	}

	link, err := s.links.PaymentLink(ctx, order)
	if err != nil {
		if errors.Is(err, payment.ErrFreeOrder) {
			return "", model.NewValidationError(fmt.Errorf("%w: schedule is free, mark the registration as free instead", model.ErrPaymentLinkRequired),
				model.FieldError{Field: "paymentLink", Error: "is required"})
		}
		return "", fmt.Errorf("generate payment link: %w", err)
	}
	return link, nil
}

// SendMessage отправляет студенту произвольное сообщение оператора
func (s *RegistrationService) SendMessage(ctx context.Context, id int64, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.NewValidationError(model.ErrMessageRequired,
			model.FieldError{Field: "message", Error: model.ErrMessageRequired.Error()})
	}

	reg, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.populate(ctx, []*model.Registration{reg}); err != nil {
		return err
	}

	subject := "Message about your registration"
	if reg.Schedule != nil {
		subject = "Message about " + reg.Schedule.Title
	}

	if err := s.notifications.Enqueue(ctx, []int64{reg.UserID}, model.NotificationMessage, subject, message); err != nil {
		return err
	}

	s.logger.Info("Message queued", zap.Int64("registration_id", reg.ID), zap.Int64("user_id", reg.UserID))
	return nil
}

// enqueue не прерывает операцию: изменение уже сохранено
func (s *RegistrationService) enqueue(ctx context.Context, reg *model.Registration, kind model.NotificationKind, subject, body string) {
	if err := s.notifications.Enqueue(ctx, []int64{reg.UserID}, kind, subject, body); err != nil {
		s.logger.Error("Failed to enqueue notification",
			zap.Int64("registration_id", reg.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

func (s *RegistrationService) schedule(ctx context.Context, id int64) (*model.Schedule, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if schedule == nil {
		return nil, model.ErrScheduleNotFound
	}
	return schedule, nil
}

// populate подгружает студентов, расписания и сессии для записей
func (s *RegistrationService) populate(ctx context.Context, regs []*model.Registration) error {
	if len(regs) == 0 {
		return nil
	}

	userIDs := make([]int64, 0, len(regs))
	schedules := make(map[int64]*model.Schedule)
	for _, reg := range regs {
		userIDs = append(userIDs, reg.UserID)
		schedules[reg.ScheduleID] = nil
	}

	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("get users: %w", err)
	}
	byUser := make(map[int64]*model.User, len(users))
	for _, u := range users {
		byUser[u.ID] = u
	}

	list := make([]*model.Schedule, 0, len(schedules))
	for id := range schedules {
		schedule, err := s.schedules.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get schedule: %w", err)
		}
		schedules[id] = schedule
		if schedule != nil {
			list = append(list, schedule)
		}
	}
	if err := s.populateTutors(ctx, list); err != nil {
		return err
	}

	for _, reg := range regs {
		reg.User = byUser[reg.UserID]
		reg.Schedule = schedules[reg.ScheduleID]
		if reg.Schedule != nil {
			reg.Session = reg.Schedule.FindSession(reg.SessionID)
		}
	}
	return nil
}

func (s *RegistrationService) populateTutors(ctx context.Context, schedules []*model.Schedule) error {
	return attachTutors(ctx, s.tutors, schedules)
}

// attachTutors заполняет Session.Tutor одним запросом
func attachTutors(ctx context.Context, tutors TutorStore, schedules []*model.Schedule) error {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, schedule := range schedules {
		for _, id := range schedule.TutorIDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	list, err := tutors.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("get tutors: %w", err)
	}
	byID := make(map[int64]*model.Tutor, len(list))
	for _, t := range list {
		byID[t.ID] = t
	}

	for _, schedule := range schedules {
		for i := range schedule.Sessions {
			schedule.Sessions[i].Tutor = byID[schedule.Sessions[i].TutorID]
		}
	}
	return nil
}

func nonNilRegistrations(regs []*model.Registration) []*model.Registration {
	if regs == nil {
		return []*model.Registration{}
	}
	return regs
}
