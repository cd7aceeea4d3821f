package handlers

import (
	"net/http"

	"github.com/upb/gateway-authorizer/services"
	"github.com/upb/gateway-authorizer/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, err.Error(), utils.GetValidationFields(err)); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsConfigurationError(err):
		logger.Error("policy construction failed", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		// Unclassified errors never leak details
		logger.Error("internal server error",
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}
