package main

import (
	"net/http"

	"standup/src/controllers"
	"standup/src/middlewares"
	"standup/src/types"

	"github.com/gin-gonic/gin"
)

func userHandlers(g *gin.RouterGroup, users *controllers.UserController) *gin.RouterGroup {
	g.
		GET("/users", notImplemented).
		POST("/users", func(ctx *gin.Context) {
			var body types.RegisterUserRequestBody
			if !bindJSON(ctx, &body) {
				return
			}
			user, err := users.Register(ctx.Request.Context(), body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, user)
		}).
		GET("/users/:email", func(ctx *gin.Context) {
			var params types.EmailURIParams
			if !bindUri(ctx, &params) {
				return
			}
			user, err := users.Get(ctx.Request.Context(), middlewares.Requester(ctx), params.Email)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, user)
		}).
		PUT("/users/:email", func(ctx *gin.Context) {
			var params types.EmailURIParams
			var body types.UpdateUserRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			user, err := users.Update(ctx.Request.Context(), middlewares.Requester(ctx), params.Email, body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, user)
		})
	return g
}

func userStatusHandlers(g *gin.RouterGroup, statuses *controllers.UserStatusController) *gin.RouterGroup {
	g.
		GET("/user-status/:email", func(ctx *gin.Context) {
			var params types.EmailURIParams
			if !bindUri(ctx, &params) {
				return
			}
			status, err := statuses.Get(ctx.Request.Context(), middlewares.Requester(ctx), params.Email)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, status)
		}).
		PUT("/user-status/:email", func(ctx *gin.Context) {
			var params types.EmailURIParams
			var body types.UpdateUserStatusRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			status, err := statuses.Update(ctx.Request.Context(), middlewares.Requester(ctx), params.Email, body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, status)
		})
	return g
}
