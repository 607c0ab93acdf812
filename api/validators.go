package api

import (
	"time"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var transportTypeValidator validator.Func = func(fl validator.FieldLevel) bool {
	return domain.TransportType(fl.Field().String()).Valid()
}

var futureDateValidator validator.Func = func(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(time.Now())
}

// RegisterValidators installs the request-level validation rules the ticket
// payloads reference.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("transporttype", transportTypeValidator)
		v.RegisterValidation("futuredate", futureDateValidator)
	}
}
