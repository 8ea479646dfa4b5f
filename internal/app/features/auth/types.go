// internal/app/features/auth/types.go
package auth

import (
	"github.com/dalemusser/assurance/internal/app/system/htmlsanitize"
	"github.com/dalemusser/assurance/internal/domain/models"
)

type addressRequest struct {
	Street     string `json:"street" validate:"required,min=5,max=200" label:"Street"`
	City       string `json:"city" validate:"required,min=2,max=100" label:"City"`
	PostalCode string `json:"postalCode" validate:"required,postalcode" label:"Postal code"`
}

func (a addressRequest) address() models.Address {
	return models.Address{
		Street:     htmlsanitize.PlainText(a.Street),
		City:       htmlsanitize.PlainText(a.City),
		PostalCode: a.PostalCode,
	}
}

type registerRequest struct {
	Name            string         `json:"name" validate:"required,min=2,max=100" label:"Name"`
	Email           string         `json:"email" validate:"required,email" label:"Email"`
	Password        string         `json:"password" validate:"required,min=8,strongpw" label:"Password"`
	ConfirmPassword string         `json:"confirmPassword" validate:"required,eqfield=Password" label:"Password confirmation"`
	Phone           string         `json:"phone" validate:"required,maphone" label:"Phone"`
	Address         addressRequest `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type profileRequest struct {
	Name    *string         `json:"name" validate:"omitempty,min=2,max=100" label:"Name"`
	Phone   *string         `json:"phone" validate:"omitempty,maphone" label:"Phone"`
	Address *addressRequest `json:"address"`
}
