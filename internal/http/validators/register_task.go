package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"

	dto "taskhub.com/taskhub/internal/data_models"
)

func ValidateRegisterRequest(r *dto.RegisterRequest) error {
	if r.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	return nil
}

func ValidateMarkFailedRequest(r *dto.MarkFailedRequest) error {
	if r.Log == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "log is required for a failed task")
	}
	return nil
}

func ValidateDeleteRequest(r *dto.DeleteRequest) error {
	if r.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}
	return nil
}
