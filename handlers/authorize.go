package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/upb/gateway-authorizer/app"
	"github.com/upb/gateway-authorizer/services/authorizer"
	"github.com/upb/gateway-authorizer/utils"
	"go.uber.org/zap"
)

// maxAuthorizeBody bounds the request body of the local authorize endpoint
const maxAuthorizeBody = 64 << 10

// AuthorizeHandler handles POST /authorize.
// It accepts the authorizer event JSON and responds with the rendered
// policy document exactly as the gateway would receive it.
func AuthorizeHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Authorizer == nil {
			_ = utils.WriteServiceUnavailable(w, "authorizer not initialized")
			return
		}

		var req authorizer.Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthorizeBody)).Decode(&req); err != nil {
			if err := utils.WriteBadRequest(w, "invalid request body", nil); err != nil {
				deps.Logger.Error("failed to write bad request response", zap.Error(err))
			}
			return
		}

		resp, err := deps.Authorizer.Authorize(r.Context(), &req)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
			deps.Logger.Error("failed to write policy response", zap.Error(err))
		}
	}
}
