package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("square", isSquare); err != nil {
		panic(fmt.Sprintf("protocol: register square validation: %v", err))
	}
	return v
}

// isSquare accepts algebraic square names such as "e2".
func isSquare(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// MoveRequest is the payload of an inbound move frame.
type MoveRequest struct {
	From      string `json:"from" validate:"required,square"`
	To        string `json:"to" validate:"required,square,nefield=From"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=q r b n"`
}

// Validate checks the request shape. Legality is left to the rules engine.
func (r MoveRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (r MoveRequest) String() string {
	return r.From + r.To + r.Promotion
}
