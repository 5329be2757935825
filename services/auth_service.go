package services

import (
	"context"
	"log"
	"net/mail"
	"strings"

	"repairhub-server/apperr"
	"repairhub-server/models"
	"repairhub-server/utils"
)

const minPasswordLength = 8

// AuthService manages accounts and logins. It also provisions the accounts
// of approved agents.
type AuthService struct {
	users  UserStore
	cities LocalityStore
	tokens *JWTService
	clock  Clock
}

func NewAuthService(users UserStore, cities LocalityStore, tokens *JWTService) *AuthService {
	return &AuthService{users: users, cities: cities, tokens: tokens}
}

type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	CityID   uint   `json:"city_id"`
}

// Session is returned by register and login.
type Session struct {
	Token              *Token       `json:"token"`
	User               *models.User `json:"user"`
	MustChangePassword bool         `json:"must_change_password"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("email address is not valid")
	}
	return email, nil
}

// Register creates a customer account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, apperr.Validation("full name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	user := &models.User{
		FullName: name,
		Email:    email,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     models.RoleCustomer,
		IsActive: true,
	}
	if in.CityID != 0 {
		city, err := s.cities.GetCity(ctx, in.CityID)
		if err != nil {
			return nil, err
		}
		if !city.IsActive {
			return nil, apperr.Validation("%s is not currently served", city.Name)
		}
		user.CityID = &city.ID
	}

	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("an account with email %s already exists", email)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Dependency(err, "failed to secure password")
	}
	user.PasswordHash = hash
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("✅ Customer %d registered", user.ID)
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Dependency(err, "failed to issue token")
	}
	return &Session{Token: token, User: user, MustChangePassword: user.MustChangePassword}, nil
}

// Login checks credentials. A temporary credential works exactly once and
// the session it opens must be used to change the password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	denied := apperr.Unauthorized("invalid email or password")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, denied
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, denied
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("account is disabled")
	}

	if user.MustChangePassword {
		if err := s.users.ConsumeTempCredential(ctx, user.ID, s.clock.now()); err != nil {
			if apperr.KindOf(err) == apperr.KindConflict {
				return nil, apperr.Unauthorized("temporary credential has already been used")
			}
			return nil, err
		}
		log.Printf("🔑 User %d logged in with a temporary credential", user.ID)
	}
	return s.session(user)
}

// ChangePassword replaces the password and clears any temporary credential.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(current, user.PasswordHash) {
		return apperr.Unauthorized("current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if next == current {
		return apperr.Validation("new password must differ from the current one")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.Dependency(err, "failed to secure password")
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.Get(ctx, userID)
}

// CreateAccount provisions a login that must change its temporary
// credential after first use.
func (s *AuthService) CreateAccount(ctx context.Context, req AccountRequest) (uint, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return 0, err
	}
	if req.TempCredential == "" {
		return 0, apperr.Validation("temporary credential is required")
	}
	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, apperr.Conflict("an account with email %s already exists", email)
	}

	hash, err := utils.HashPassword(req.TempCredential)
	if err != nil {
		return 0, apperr.Dependency(err, "failed to secure credential")
	}
	user := &models.User{
		FullName:           req.Name,
		Email:              email,
		Phone:              req.Phone,
		PasswordHash:       hash,
		Role:               req.Role,
		IsActive:           true,
		MustChangePassword: true,
	}
	if req.CityID != 0 {
		cityID := req.CityID
		user.CityID = &cityID
	}
	if err := s.users.Create(ctx, user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (s *AuthService) DeleteAccount(ctx context.Context, id uint) error {
	return s.users.Delete(ctx, id)
}
