package auth

import (
	"context"
	"errors"
	"strings"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/models"
	"luxverify-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (r *CreateUserRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	return apperr.ValidateStruct(r, "invalid user")
}

func createUser(ctx context.Context, users UserRepository, body CreateUserRequest, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Dependency(err, "could not hash password")
	}
	user := &models.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Dependency(err, "could not create user")
	}
	return user, nil
}

// POST /api/auth/register-super-admin (only while no super admin exists)
func RegisterSuperAdminHandler(users UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body", nil)
		}
		if err := body.normalize(); err != nil {
			return err
		}

		count, err := users.CountUsersByRole(c.UserContext(), models.RoleSuperAdmin)
		if err != nil {
			return apperr.Dependency(err, "could not check existing users")
		}
		if count > 0 {
			return apperr.Conflict("a super admin already exists")
		}

		user, err := createUser(c.UserContext(), users, body, models.RoleSuperAdmin)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// POST /api/admin/users (super admin only)
func CreateAdminHandler(users UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body", nil)
		}
		if err := body.normalize(); err != nil {
			return err
		}

		user, err := createUser(c.UserContext(), users, body, models.RoleAdmin)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// POST /api/auth/login
func LoginHandler(secret string, users UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body", nil)
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		user, err := users.FindUserByEmail(c.UserContext(), body.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Authorization("invalid email or password")
			}
			return apperr.Dependency(err, "could not look up user")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.Authorization("invalid email or password")
		}

		token, err := GenerateToken(secret, user)
		if err != nil {
			return apperr.Dependency(err, "could not issue token")
		}
		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

// GET /api/auth/me
func MeHandler(users UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return apperr.Authorization("authentication required")
		}
		user, err := users.FindUserByID(c.UserContext(), p.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Authorization("user no longer exists")
			}
			return apperr.Dependency(err, "could not look up user")
		}
		return c.JSON(toUserResponse(user))
	}
}
