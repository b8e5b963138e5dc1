package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Asus/lattkia_store/internal/broker"
	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type Session struct {
	Token     string      `json:"token"`
	User      entity.User `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Users - регистрация и вход. Токены сессий живут только в памяти процесса
type Users struct {
	store     storage.UserRepository
	publisher Publisher
	cost      int

	mu       sync.RWMutex
	sessions map[string]Session
}

func NewUsers(store storage.UserRepository, publisher Publisher) *Users {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Users{
		store:     store,
		publisher: publisher,
		cost:      bcrypt.DefaultCost,
		sessions:  make(map[string]Session),
	}
}

func (u *Users) Register(ctx context.Context, r Registration) (entity.User, error) {
	if len(r.Password) < minPasswordLength {
		return entity.User{}, NewInvalidArgument("password must be at least %d characters", minPasswordLength)
	}
	user := entity.User{
		Name:  strings.TrimSpace(r.Name),
		Email: strings.ToLower(strings.TrimSpace(r.Email)),
		Phone: strings.TrimSpace(r.Phone),
		Role:  entity.RoleCustomer,
	}
	if err := entity.Validate.Struct(user); err != nil {
		return entity.User{}, invalid(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), u.cost)
	if err != nil {
		return entity.User{}, err
	}
	user.PasswordHash = string(hash)

	created, err := u.store.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrConflict) {
		return entity.User{}, NewFailedPrecondition("email %s is already registered", user.Email)
	}
	if err != nil {
		return entity.User{}, err
	}
	slog.Info("User registered", "user_id", created.ID)

	if err := u.publisher.Publish(ctx, broker.Event{Type: broker.UserRegistered, User: &created, OccurredAt: time.Now().UTC()}); err != nil {
		slog.Error("failed to publish event", "type", broker.UserRegistered, "error", err)
	}
	return created, nil
}

// Login проверяет пароль и выдаёт токен сессии
func (u *Users) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := u.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, NewUnauthenticated("invalid email or password")
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, NewUnauthenticated("invalid email or password")
	}

	s := Session{Token: uuid.NewString(), User: user, CreatedAt: time.Now().UTC()}
	u.mu.Lock()
	u.sessions[s.Token] = s
	u.mu.Unlock()
	slog.Info("User logged in", "user_id", user.ID)
	return s, nil
}

// Authenticate находит пользователя по токену, подтягивая актуальные данные из хранилища
func (u *Users) Authenticate(ctx context.Context, token string) (entity.User, error) {
	u.mu.RLock()
	s, ok := u.sessions[token]
	u.mu.RUnlock()
	if !ok {
		return entity.User{}, NewUnauthenticated("invalid or expired session")
	}
	user, err := u.store.GetUser(ctx, s.User.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			u.Logout(token)
			return entity.User{}, NewUnauthenticated("invalid or expired session")
		}
		return entity.User{}, err
	}
	return user, nil
}

func (u *Users) Logout(token string) {
	u.mu.Lock()
	delete(u.sessions, token)
	u.mu.Unlock()
}

func (u *Users) List(ctx context.Context) ([]entity.User, error) {
	return u.store.ListUsers(ctx)
}

func (u *Users) Get(ctx context.Context, id string) (entity.User, error) {
	user, err := u.store.GetUser(ctx, id)
	if err != nil {
		return entity.User{}, notFound(err, "user")
	}
	return user, nil
}
