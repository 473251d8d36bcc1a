package controllers

import (
	"errors"

	"fulfillment-app/apperr"
	"fulfillment-app/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

type createUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
}

func (c *UserController) Create(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)

	var input createUserInput
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(input); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	var existing models.User
	err := c.DB.Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		return errorJSON(ctx, apperr.BadRequest("email already registered"))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorJSON(ctx, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return errorJSON(ctx, err)
	}

	role := input.Role
	if role == "" {
		role = "STAFF"
	}

	user := models.User{
		CompanyID: companyID,
		Name:      input.Name,
		Email:     input.Email,
		Password:  string(hashed),
		Role:      role,
		IsActive:  true,
	}
	if err := c.DB.Create(&user).Error; err != nil {
		return errorJSON(ctx, err)
	}
	return createdJSON(ctx, "user created", user)
}

func (c *UserController) List(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)

	var users []models.User
	if err := c.DB.Where("company_id = ?", companyID).
		Order("name ASC").Find(&users).Error; err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "users", users)
}
