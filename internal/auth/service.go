// Package auth はパスワード認証とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/boardman/internal/model"
	"github.com/hitoshi/boardman/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// defaultRoleName は登録時に全ユーザーへ付与するロール名。
const defaultRoleName = "user"

// Service は認証に関するビジネスロジックを提供する。
// 登録・ログイン・ログアウト・現在ユーザー解決を担う。
type Service struct {
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Register は新規ユーザーを登録し、セッションを発行する。
// パスワードはbcryptでハッシュ化して保存する。確認メールは送信せず、
// confirmed_atを登録時刻で即時設定する。
// email/usernameが既存ユーザーと重複する場合はDUPLICATE_USERエラーを返す。
func (s *Service) Register(ctx context.Context, email, password, name, username string) (*model.Session, error) {
	if email == "" {
		return nil, model.NewValidationError("email")
	}
	if password == "" {
		return nil, model.NewValidationError("password")
	}
	if username == "" {
		return nil, model.NewValidationError("username")
	}

	// emailの重複はフィールドを特定してエラーにする。
	// usernameの重複と事前チェック後の競合は作成時の一意制約違反で捕捉する。
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUserError("email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Username:     username,
		Active:       true,
		ConfirmedAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewDuplicateUserError("email/username")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// デフォルトロールの付与に失敗しても登録自体は成立させる
	if err := s.assignDefaultRole(ctx, user.ID); err != nil {
		slog.Warn("failed to assign default role",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("username", username),
	)

	return s.createSession(ctx, user.ID)
}

// assignDefaultRole はデフォルトロールをユーザーに付与する。
// ロールが未作成の場合は作成してから付与する。
func (s *Service) assignDefaultRole(ctx context.Context, userID string) error {
	role, err := s.roleRepo.FindByName(ctx, defaultRoleName)
	if err != nil {
		return fmt.Errorf("failed to find default role: %w", err)
	}
	if role == nil {
		role = &model.Role{Name: defaultRoleName, Description: "Standard forum member"}
		if err := s.roleRepo.Create(ctx, role); err != nil {
			return fmt.Errorf("failed to create default role: %w", err)
		}
	}

	if err := s.roleRepo.AssignToUser(ctx, userID, role.ID); err != nil {
		return fmt.Errorf("failed to assign default role: %w", err)
	}

	return nil
}

// Login はユーザー名とパスワードで認証し、セッションを発行する。
// ログインの識別子はemailではなくusernameを使用する。
// ユーザー不存在とパスワード不一致は同一のエラーとして返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", username),
	)

	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はセッションIDから現在のユーザーを解決する。
// セッションが無効・期限切れの場合やユーザーが存在しない場合はnilを返す（匿名扱い）。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
