package httpapi

import (
	"net/http"

	"callaudio/internal/auth"
	"callaudio/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register wires HTTP routes to handlers. Keep this free of business logic.
func Register(r *gin.Engine, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/v1/auth/refresh", h.RefreshToken)

	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(h.Auth))
	{
		v1.GET("/me", func(c *gin.Context) {
			id, _ := auth.FromContext(c.Request.Context())
			c.JSON(http.StatusOK, id)
		})

		read := v1.Group("")
		read.Use(rbac.RequireAnyRole(rbac.Roles()...))
		{
			read.GET("/state", h.State)
			read.GET("/events", h.Events)
		}

		callsGroup := v1.Group("/calls")
		callsGroup.Use(rbac.RequireAnyRole(rbac.RoleCallEngine))
		{
			callsGroup.GET("", h.ListCalls)
			callsGroup.POST("", h.AddCall)
			callsGroup.PUT("/foreground", h.SetForeground)
			callsGroup.PATCH("/:call_id", h.ChangeCallState)
			callsGroup.DELETE("/:call_id", h.RemoveCall)
		}
		v1.POST("/tones", rbac.RequireAnyRole(rbac.RoleCallEngine), h.TonePlayback)

		hw := v1.Group("/hardware")
		hw.Use(rbac.RequireAnyRole(rbac.RoleHardware))
		{
			hw.POST("/wired", h.WiredHeadset)
			hw.POST("/wireless", h.WirelessHeadset)
			hw.POST("/wireless/audio", h.WirelessAudio)
		}

		user := v1.Group("/audio")
		user.Use(rbac.RequireAnyRole(rbac.RoleUser, rbac.RoleCallEngine))
		{
			user.POST("/route", h.SwitchRoute)
			user.POST("/mute", h.Mute)
			user.POST("/resend", h.ResendAudioState)
		}

		// admin bypasses every group above; these are admin only
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.POST("/tokens", h.IssueToken)
			admin.GET("/journal", h.JournalEntries)
		}
	}
}
