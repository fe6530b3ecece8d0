package main

import (
	"net/http"

	"standup/src/controllers"
	"standup/src/middlewares"
	"standup/src/types"

	"github.com/gin-gonic/gin"
)

func teamHandlers(g *gin.RouterGroup, teams *controllers.TeamController) *gin.RouterGroup {
	g.
		GET("/teams", func(ctx *gin.Context) {
			list, err := teams.ListForRequester(ctx.Request.Context(), middlewares.Requester(ctx))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, list)
		}).
		POST("/teams", func(ctx *gin.Context) {
			var body types.CreateTeamRequestBody
			if !bindJSON(ctx, &body) {
				return
			}
			team, err := teams.Create(ctx.Request.Context(), middlewares.Requester(ctx), body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		GET("/teams/:id", func(ctx *gin.Context) {
			var params types.TeamURIParams
			if !bindUri(ctx, &params) {
				return
			}
			team, err := teams.Get(ctx.Request.Context(), middlewares.Requester(ctx), params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		PUT("/teams/:id", func(ctx *gin.Context) {
			var params types.TeamURIParams
			var body types.UpdateTeamRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			team, err := teams.Update(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		DELETE("/teams/:id", func(ctx *gin.Context) {
			var params types.TeamURIParams
			if !bindUri(ctx, &params) {
				return
			}
			team, err := teams.Delete(ctx.Request.Context(), middlewares.Requester(ctx), params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		})

	members := g.Group("/teams/:id")
	members.
		POST("/members", func(ctx *gin.Context) {
			var params types.TeamURIParams
			var body types.TeamMemberRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			team, err := teams.AddMember(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, body.Email)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		DELETE("/members/:email", func(ctx *gin.Context) {
			var params types.TeamMemberURIParams
			if !bindUri(ctx, &params) {
				return
			}
			team, err := teams.RemoveMember(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, params.Email)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		POST("/pending_members", func(ctx *gin.Context) {
			var params types.TeamURIParams
			var body types.TeamMemberRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			team, err := teams.Apply(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, body.Email)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		DELETE("/pending_members/:email", func(ctx *gin.Context) {
			var params types.TeamMemberURIParams
			if !bindUri(ctx, &params) {
				return
			}
			team, err := teams.RemovePending(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, params.Email)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		PUT("/announcement", func(ctx *gin.Context) {
			var params types.TeamURIParams
			var body types.AnnouncementRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			team, err := teams.UpdateAnnouncement(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, *body.Announcement)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		POST("/meetings", func(ctx *gin.Context) {
			var params types.TeamURIParams
			var body types.CreateMeetingRequestBody
			if !bindUri(ctx, &params) || !bindJSON(ctx, &body) {
				return
			}
			team, err := teams.AddMeeting(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		}).
		DELETE("/meetings/:meetingName", func(ctx *gin.Context) {
			var params types.TeamMeetingURIParams
			if !bindUri(ctx, &params) {
				return
			}
			team, err := teams.RemoveMeeting(ctx.Request.Context(), middlewares.Requester(ctx), params.ID, params.MeetingName)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, team)
		})
	return g
}
