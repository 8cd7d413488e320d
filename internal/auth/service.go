// Package auth handles operator login and registration against the users
// collection and issues signed session tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials reports an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken reports a registration for an existing username.
	ErrUsernameTaken = errors.New("username already exists")
)

// UserStore persists operator accounts.
type UserStore interface {
	ListUsers(ctx context.Context) ([]ledger.User, error)
	SaveUsers(ctx context.Context, users []ledger.User) error
}

// Profile is the public view of a user.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session is the result of a successful login.
type Session struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// RegisterInput carries a new account.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Service authenticates and registers users.
type Service struct {
	users  UserStore
	issuer *Issuer
	newID  func() string
}

// NewService wires an auth Service.
func NewService(users UserStore, issuer *Issuer) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("%w: user store dependency is nil", ledger.ErrInvalidServiceConfig)
	}
	if issuer == nil {
		return nil, fmt.Errorf("%w: token issuer dependency is nil", ledger.ErrInvalidServiceConfig)
	}
	return &Service{
		users:  users,
		issuer: issuer,
		newID:  func() string { return "user_" + uuid.NewString() },
	}, nil
}

// Login matches username and password exactly and issues a token.
func (service *Service) Login(ctx context.Context, username string, password string) (Session, error) {
	users, err := service.users.ListUsers(ctx)
	if err != nil {
		return Session{}, ledger.WrapError("login", "user", "load", err)
	}
	for _, user := range users {
		if user.Username != username || subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
			continue
		}
		profile := profileOf(user)
		token, err := service.issuer.Issue(profile)
		if err != nil {
			return Session{}, ledger.WrapError("login", "token", "sign", err)
		}
		return Session{Token: token, User: profile}, nil
	}
	return Session{}, ErrInvalidCredentials
}

// Register appends a user. All fields are required and usernames are unique.
func (service *Service) Register(ctx context.Context, input RegisterInput) (Profile, error) {
	if strings.TrimSpace(input.Username) == "" || input.Password == "" || strings.TrimSpace(input.Role) == "" {
		return Profile{}, ledger.WrapError("validate", "user", "invalid",
			fmt.Errorf("%w: username, password and role are required", ledger.ErrValidation))
	}
	users, err := service.users.ListUsers(ctx)
	if err != nil {
		return Profile{}, ledger.WrapError("register", "user", "load", err)
	}
	for _, user := range users {
		if user.Username == input.Username {
			return Profile{}, ErrUsernameTaken
		}
	}
	user := ledger.User{
		ID:       service.newID(),
		Username: input.Username,
		Password: input.Password,
		Role:     input.Role,
	}
	if err := service.users.SaveUsers(ctx, append(users, user)); err != nil {
		return Profile{}, ledger.WrapError("register", "user", "save", err)
	}
	return profileOf(user), nil
}

func profileOf(user ledger.User) Profile {
	return Profile{ID: user.ID, Username: user.Username, Role: user.Role}
}
