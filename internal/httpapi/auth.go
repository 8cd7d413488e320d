package httpapi

import (
	"net/http"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/auth"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if !bindJSON(ctx, &request) {
		return
	}
	session, err := handler.auth.Login(ctx.Request.Context(), request.Username, request.Password)
	handler.respondJSON(ctx, session, err)
}

func (handler *httpHandler) handleRegister(ctx *gin.Context) {
	var request auth.RegisterInput
	if !bindJSON(ctx, &request) {
		return
	}
	profile, err := handler.auth.Register(ctx.Request.Context(), request)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, profile)
}
