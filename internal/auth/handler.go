package auth

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/user"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required"`
}

type TokenResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// tokenTTL reads JWT_TTL, defaulting to 72h.
func tokenTTL() time.Duration {
	if d, err := time.ParseDuration(os.Getenv("JWT_TTL")); err == nil && d > 0 {
		return d
	}
	return 72 * time.Hour
}

// signToken issues an HS256 bearer token carrying the user id and role.
func signToken(userID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// ===== Register =====
// POST /api/v1/auth/register
func Register(c echo.Context) error {
	req := new(RegisterRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	now := time.Now().UTC()
	u := user.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Phone:     req.Phone,
		Role:      user.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := db.Users().InsertOne(context.Background(), &u)
	if mongo.IsDuplicateKeyError(err) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}
	if err != nil {
		zap.L().Error("failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}
	u.ID = res.InsertedID.(primitive.ObjectID)

	signed, err := signToken(u.ID.Hex(), u.Role, tokenTTL())
	if err != nil {
		zap.L().Error("failed to sign token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusCreated, TokenResponse{Token: signed, User: &u})
}
