package controllers

import (
	"errors"

	"fulfillment-app/apperr"
	"fulfillment-app/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CustomerController struct {
	DB *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

func (c *CustomerController) Create(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)

	var customer models.Customer
	if err := ctx.BodyParser(&customer); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}
	if err := validate.Struct(customer); err != nil {
		return errorJSON(ctx, apperr.BadRequest(err.Error()))
	}

	customer.ID = 0
	customer.CompanyID = companyID
	customer.CreatedBy = int(userID)
	customer.IsActive = true

	var existing models.Customer
	err := c.DB.Where("company_id = ? AND customer_code = ?", companyID, customer.CustomerCode).
		First(&existing).Error
	if err == nil {
		return errorJSON(ctx, apperr.BadRequest("customer code already exists"))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorJSON(ctx, err)
	}

	if err := c.DB.Create(&customer).Error; err != nil {
		return errorJSON(ctx, err)
	}
	return createdJSON(ctx, "customer created", customer)
}

func (c *CustomerController) List(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)

	var customers []models.Customer
	if err := c.DB.Where("company_id = ?", companyID).
		Order("customer_code ASC").Find(&customers).Error; err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "customers", customers)
}

func (c *CustomerController) Detail(ctx *fiber.Ctx) error {
	companyID, _ := tenant(ctx)
	customerID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var customer models.Customer
	err = c.DB.Where("id = ? AND company_id = ?", customerID, companyID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(ctx, apperr.NotFound("customer"))
		}
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "customer", customer)
}

func (c *CustomerController) Update(ctx *fiber.Ctx) error {
	companyID, userID := tenant(ctx)
	customerID, err := paramID(ctx, "id")
	if err != nil {
		return errorJSON(ctx, err)
	}

	var existing models.Customer
	err = c.DB.Where("id = ? AND company_id = ?", customerID, companyID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(ctx, apperr.NotFound("customer"))
		}
		return errorJSON(ctx, err)
	}

	var input models.Customer
	if err := ctx.BodyParser(&input); err != nil {
		return errorJSON(ctx, apperr.BadRequest("invalid request body"))
	}

	existing.CustomerName = input.CustomerName
	existing.Email = input.Email
	existing.Address = input.Address
	existing.City = input.City
	existing.IsActive = input.IsActive
	existing.UpdatedBy = int(userID)

	if err := c.DB.Save(&existing).Error; err != nil {
		return errorJSON(ctx, err)
	}
	return okJSON(ctx, "customer updated", existing)
}
