package api

import (
	"log/slog"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// ErrorResponse is the JSON body returned for every non-2xx response,
// carrying the stable error_code slug alongside a human-readable message.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// mapServiceError maps a service/database-layer error to an HTTP error,
// using apperrors.StatusFor's Code->status table rather than string
// matching, so a new Code only needs a table entry, not a new branch here.
func mapServiceError(err error) *echo.HTTPError {
	status, code := apperrors.StatusFor(err)
	if status >= 500 {
		slog.Error("unexpected service error", "error", err, "code", code)
		return echo.NewHTTPError(status, ErrorResponse{Error: "internal server error", ErrorCode: string(code)})
	}
	return echo.NewHTTPError(status, ErrorResponse{Error: err.Error(), ErrorCode: string(code)})
}
