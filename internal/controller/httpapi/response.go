package httpapi

import (
	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/labstack/echo/v4"
)

// Конверт ответа: {"status":"success","data":...} или {"status":"error","message":...}

const (
	statusSuccess = "success"
	statusError   = "error"
)

type successResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type errorResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Fields  []model.FieldError `json:"fields,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, successResponse{Status: statusSuccess, Data: data})
}

// registrationView дополняет запись действиями, доступными оператору
type registrationView struct {
	*model.Registration
	Actions []model.Action `json:"actions"`
}

func viewRegistration(reg *model.Registration) registrationView {
	return registrationView{Registration: reg, Actions: model.AvailableActions(reg)}
}

func viewRegistrations(regs []*model.Registration) []registrationView {
	out := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		out = append(out, viewRegistration(reg))
	}
	return out
}
