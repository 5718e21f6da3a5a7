package auth

import (
	"strings"

	"fishledger-backend/internal/config"
	"fishledger-backend/internal/ledger"
	"fishledger-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required,oneof=admin manager clerk"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	Permissions []Permission    `json:"permissions"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: PermissionsForRole(u.Role),
	}
}

func createUser(db *gorm.DB, name, email, password string, role models.UserRole) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	return user, db.Create(&user).Error
}

// RegisterFirstAdminHandler bootstraps the first admin account. It refuses to
// run once any admin exists.
func RegisterFirstAdminHandler(db *gorm.DB, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := ledger.Validate(body); err != nil {
			return err
		}

		var count int64
		if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return &ledger.IntegrityError{Op: "count admins", Err: err}
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}

		user, err := createUser(db, body.Name, body.Email, body.Password, models.RoleAdmin)
		if err != nil {
			config.LogError(logger, "auth", "RegisterFirstAdmin", "create admin", logrus.Fields{"email": body.Email}, err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}
		logger.WithFields(logrus.Fields{"user_id": user.ID}).Info("first admin registered")

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func LoginHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := db.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CallerFromCtx(c)

		var user models.User
		if err := db.First(&user, caller.UserID).Error; err != nil {
			return ledger.Wrap(err, "load user", "user", caller.UserID)
		}
		return c.JSON(toUserResponse(user))
	}
}

// CreateUserHandler lets an admin add staff accounts.
func CreateUserHandler(db *gorm.DB, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := ledger.Validate(body); err != nil {
			return err
		}

		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", body.Email).Count(&count).Error; err != nil {
			return &ledger.IntegrityError{Op: "check email", Err: err}
		}
		if count > 0 {
			return ledger.NewValidationError("email", "is already registered")
		}

		user, err := createUser(db, body.Name, body.Email, body.Password, body.Role)
		if err != nil {
			config.LogError(logger, "auth", "CreateUser", "create user", logrus.Fields{"email": body.Email}, err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.Order("name asc").Find(&users).Error; err != nil {
			return &ledger.IntegrityError{Op: "list users", Err: err}
		}
		out := make([]UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, toUserResponse(u))
		}
		return c.JSON(out)
	}
}
