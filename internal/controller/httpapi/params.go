package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/labstack/echo/v4"
)

func idParam(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// pageQuery читает page и limit; некорректные значения заменяются значениями по умолчанию
func pageQuery(ctx echo.Context) model.Page {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	return model.Page{Page: page, Limit: limit}.Normalize()
}

func filterQuery(ctx echo.Context) (model.RegistrationFilter, error) {
	filter, ok := model.ParseRegistrationFilter(ctx.QueryParam("status"))
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
	}
	return filter, nil
}
