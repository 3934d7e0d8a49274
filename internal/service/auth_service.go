package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type AuthService struct {
	admins AdminStore
	cache  PrincipalCache // может быть nil
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(admins AdminStore, cache PrincipalCache, secret string, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		admins: admins,
		cache:  cache,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Claims - содержимое токена администратора
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult - токен и данные администратора, которые клиент сохраняет как admin_token и admin_info
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Admin     *model.Principal `json:"admin"`
}

// Login проверяет пароль и выдаёт токен. Пустая role - любая роль.
func (s *AuthService) Login(ctx context.Context, email, password string, role model.Role) (*LoginResult, error) {
	admin, err := s.admins.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil || admin.CheckPassword(password) != nil {
		return nil, model.ErrInvalidCredentials
	}
	if role != "" && admin.Role != role {
		return nil, model.ErrForbidden
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Role: admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	principal := admin.Principal()
	s.cachePrincipal(ctx, principal)

	s.logger.Info("Admin logged in", zap.Int64("admin_id", admin.ID), zap.String("role", string(admin.Role)))

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: principal}, nil
}

// Authenticate проверяет токен и возвращает principal (из кэша, если он настроен)
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*model.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	adminID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if s.cache != nil {
		p, err := s.cache.Get(ctx, adminID)
		if err != nil {
			s.logger.Warn("Principal cache get failed", zap.Int64("admin_id", adminID), zap.Error(err))
		} else if p != nil {
			return p, nil
		}
	}

	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		return nil, ErrInvalidToken
	}

	principal := admin.Principal()
	s.cachePrincipal(ctx, principal)
	return principal, nil
}

func (s *AuthService) cachePrincipal(ctx context.Context, p *model.Principal) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, p); err != nil {
		s.logger.Warn("Principal cache set failed", zap.Int64("admin_id", p.AdminID), zap.Error(err))
	}
}

// CreateAdmin создаёт или обновляет учётную запись панели
func (s *AuthService) CreateAdmin(ctx context.Context, admin *model.Admin, password string) error {
	var fields []model.FieldError
	if strings.TrimSpace(admin.Email) == "" {
		fields = append(fields, model.FieldError{Field: "email", Error: "is required"})
	} else if err := validate.Var(strings.TrimSpace(admin.Email), "email"); err != nil {
		fields = append(fields, model.FieldError{Field: "email", Error: "must be a valid email address"})
	}
	if len(password) < 8 {
		fields = append(fields, model.FieldError{Field: "password", Error: "must be at least 8 characters"})
	}
	if !admin.Role.Valid() {
		fields = append(fields, model.FieldError{Field: "role", Error: "must be one of admin, tutor"})
	}
	if admin.Role == model.RoleTutor && admin.TutorID == nil {
		fields = append(fields, model.FieldError{Field: "tutorId", Error: "is required for tutor accounts"})
	}
	if len(fields) > 0 {
		return model.NewValidationError(nil, fields...)
	}

	admin.Email = strings.TrimSpace(admin.Email)
	if err := admin.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.admins.Upsert(ctx, admin); err != nil {
		return fmt.Errorf("save admin: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, admin.ID); err != nil {
			s.logger.Warn("Principal cache delete failed", zap.Int64("admin_id", admin.ID), zap.Error(err))
		}
	}

	s.logger.Info("Admin account saved", zap.Int64("admin_id", admin.ID), zap.String("role", string(admin.Role)))
	return nil
}
