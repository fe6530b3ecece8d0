package main

import (
	"net/http"

	"standup/src/controllers"
	"standup/src/middlewares"
	"standup/src/types"

	"github.com/gin-gonic/gin"
)

func meetingRecordHandlers(g *gin.RouterGroup, records *controllers.MeetingRecordController) *gin.RouterGroup {
	g.
		POST("/meeting-records/:teamId", func(ctx *gin.Context) {
			var params types.MeetingRecordURIParams
			var body types.CreateMeetingRecordRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			record, err := records.Create(ctx.Request.Context(), middlewares.Requester(ctx), params.TeamID, body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, record)
		}).
		GET("/meeting-records/:teamId", func(ctx *gin.Context) {
			var params types.MeetingRecordURIParams
			if !bindUri(ctx, &params) {
				return
			}
			list, err := records.List(ctx.Request.Context(), middlewares.Requester(ctx), params.TeamID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, list)
		})
	return g
}
