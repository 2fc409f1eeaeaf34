package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"farmfresh/internal/domain"
	"farmfresh/internal/repos"
	"farmfresh/internal/validate"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
	TTL    time.Duration
	Clock  Clock
}

func NewAuthService(users *repos.UserRepo, secret string, ttl time.Duration, clock Clock) *AuthService {
	return &AuthService{Users: users, Secret: []byte(secret), TTL: ttl, Clock: clock}
}

type tokenClaims struct {
	UserID   string      `json:"id"`
	UserType domain.Role `json:"userType"`
	jwt.RegisteredClaims
}

// Registration is what a new account supplies.
type Registration struct {
	Name     string
	Email    string
	Password string
	UserType string
	Phone    string
	Address  string
	FarmName string
	Location string
}

func (s *AuthService) Register(ctx context.Context, in Registration) (*domain.User, string, error) {
	const op = "auth.Register"

	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, "", domain.Validation(op, "Please provide a valid email")
	}
	if !validate.Password(in.Password) {
		return nil, "", domain.Validation(op, "Password must be between 8 and 72 characters")
	}
	role, ok := domain.ParseRole(in.UserType)
	if !ok {
		return nil, "", domain.Validation(op, "userType must be farmer or customer")
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, "", domain.Validation(op, "Name is required")
	}
	phone, ok := validate.Phone(in.Phone)
	if !ok {
		return nil, "", domain.Validation(op, "Please provide a valid phone number")
	}

	u := &domain.User{ID: uuid.NewString(), Name: name, Email: email, Role: role, Phone: phone}
	switch role {
	case domain.RoleCustomer:
		if u.Address = strings.TrimSpace(in.Address); u.Address == "" {
			return nil, "", domain.Validation(op, "Address is required for customers")
		}
	case domain.RoleFarmer:
		u.FarmName, u.Location = strings.TrimSpace(in.FarmName), strings.TrimSpace(in.Location)
		if u.FarmName == "" || u.Location == "" {
			return nil, "", domain.Validation(op, "Farm name and location are required for farmers")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", domain.Internal(op, err)
	}
	u.Hash = string(hash)

	if err := s.Users.Create(ctx, u, s.Clock.Now()); err != nil {
		if errors.Is(err, repos.ErrEmailTaken) {
			return nil, "", domain.Conflict(op, "User already exists")
		}
		return nil, "", domain.Internal(op, err)
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	const op = "auth.Login"
	bad := &domain.Error{Op: op, Kind: domain.ErrUnauthorized, Message: "Invalid email or password", Err: ErrBadCreds}

	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", bad
	}
	if err != nil {
		return nil, "", domain.Internal(op, err)
	}
	if !u.Active {
		return nil, "", bad
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, "", bad
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

func (s *AuthService) Profile(ctx context.Context, p domain.Principal) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, p.ID)
	if err != nil {
		return nil, notFoundOr("auth.Profile", err, "User")
	}
	return u, nil
}

// ProfilePatch lists editable profile fields; nil means unchanged. Address
// only applies to customers, FarmName and Location only to farmers.
type ProfilePatch struct {
	Name     *string
	Phone    *string
	Address  *string
	FarmName *string
	Location *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, p domain.Principal, patch ProfilePatch) (*domain.User, error) {
	const op = "auth.UpdateProfile"

	u, err := s.Users.ByID(ctx, p.ID)
	if err != nil {
		return nil, notFoundOr(op, err, "User")
	}
	if patch.Name != nil {
		name, ok := validate.Name(*patch.Name)
		if !ok {
			return nil, domain.Validation(op, "Name cannot be empty")
		}
		u.Name = name
	}
	if patch.Phone != nil {
		phone, ok := validate.Phone(*patch.Phone)
		if !ok {
			return nil, domain.Validation(op, "Please provide a valid phone number")
		}
		u.Phone = phone
	}
	switch u.Role {
	case domain.RoleCustomer:
		if patch.Address != nil {
			u.Address = strings.TrimSpace(*patch.Address)
		}
	case domain.RoleFarmer:
		if patch.FarmName != nil {
			u.FarmName = strings.TrimSpace(*patch.FarmName)
		}
		if patch.Location != nil {
			u.Location = strings.TrimSpace(*patch.Location)
		}
	}
	if err := s.Users.UpdateProfile(ctx, u, s.Clock.Now()); err != nil {
		return nil, domain.Internal(op, err)
	}
	return u, nil
}

// IssueToken signs a bearer token carrying the user's id and role.
func (s *AuthService) IssueToken(u *domain.User) (string, error) {
	now := s.Clock.Now()
	c := tokenClaims{
		UserID:   u.ID,
		UserType: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.Secret)
	if err != nil {
		return "", domain.Internal("auth.IssueToken", err)
	}
	return tok, nil
}

// VerifyToken checks signature, algorithm and expiry, and returns who the
// caller is.
func (s *AuthService) VerifyToken(raw string) (domain.Principal, error) {
	const op = "auth.VerifyToken"
	var c tokenClaims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Clock.Now),
	)
	if err != nil {
		return domain.Principal{}, &domain.Error{Op: op, Kind: domain.ErrUnauthorized, Message: "Invalid or expired token", Err: err}
	}
	if c.UserID == "" || !c.UserType.Valid() {
		return domain.Principal{}, domain.Unauthorized(op, "Invalid or expired token")
	}
	return domain.Principal{ID: c.UserID, Role: c.UserType}, nil
}
