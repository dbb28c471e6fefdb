package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/audit"
	"callaudio/internal/auth"
	"callaudio/internal/calls"
	"callaudio/internal/engine"
	"callaudio/internal/notify"
	"callaudio/internal/route"
	"callaudio/internal/session"
	"callaudio/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Presence lets hardware reports update the simulated sensors the route
// coordinator reads on reinitialisation.
type Presence interface {
	SetWiredPluggedIn(bool)
	SetWirelessAvailable(bool)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call the engine, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	Engine   *engine.Engine
	Presence Presence
	Journal  audit.Reader
	Hub      *notify.Hub

	// StateTimeout bounds how long a handler waits for the coordinators.
	StateTimeout time.Duration
}

func (h Handlers) stateCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	d := h.StateTimeout
	if d <= 0 {
		d = 2 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), d)
}

// --- Auth ---

// IssueToken mints a token pair for any role. RBAC: admin.
func (h Handlers) IssueToken(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}
	pair, err := h.Auth.Refresh(req.RefreshToken, req.Role, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Call engine ---

func (h Handlers) ListCalls(c *gin.Context) {
	t := h.Engine.Tracker
	c.JSON(http.StatusOK, gin.H{
		"calls":      t.Calls(),
		"foreground": t.ForegroundCallID(),
		"snapshot":   t.Snapshot(),
	})
}

func (h Handlers) AddCall(c *gin.Context) {
	var req addCallRequest
	if !bind(c, &req) {
		return
	}
	call := calls.Call{ID: req.ID, State: calls.State(req.State), Softphone: req.Softphone}
	if err := h.Engine.Tracker.OnCallAdded(call); err != nil {
		abortSessionErr(c, err)
		return
	}
	logger.FromGin(c).Info("call added", "call_id", req.ID, "state", req.State)
	c.JSON(http.StatusCreated, call)
}

func (h Handlers) ChangeCallState(c *gin.Context) {
	var req callStateRequest
	if !bind(c, &req) {
		return
	}
	id := c.Param("call_id")
	if err := h.Engine.Tracker.OnCallStateChanged(id, calls.State(req.From), calls.State(req.State)); err != nil {
		abortSessionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "state": req.State})
}

func (h Handlers) RemoveCall(c *gin.Context) {
	if err := h.Engine.Tracker.OnCallRemoved(c.Param("call_id")); err != nil {
		abortSessionErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) SetForeground(c *gin.Context) {
	var req foregroundRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Engine.Tracker.OnForegroundCallChanged(req.ID); err != nil {
		abortSessionErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"foreground": req.ID})
}

func (h Handlers) TonePlayback(c *gin.Context) {
	var req toneRequest
	if !bind(c, &req) {
		return
	}
	if *req.Playing {
		h.Engine.Tracker.OnTonePlaybackStarted()
	} else {
		h.Engine.Tracker.OnTonePlaybackStopped()
	}
	c.JSON(http.StatusOK, gin.H{"playing": *req.Playing})
}

func abortSessionErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownCall):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrDuplicateCall):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// --- Hardware ---

func (h Handlers) WiredHeadset(c *gin.Context) {
	var req presenceRequest
	if !bind(c, &req) {
		return
	}
	if h.Presence != nil {
		h.Presence.SetWiredPluggedIn(*req.Present)
	}
	kind := route.DisconnectWiredHeadset
	if *req.Present {
		kind = route.ConnectWiredHeadset
	}
	h.sendRoute(c, route.Message{Kind: kind})
}

func (h Handlers) WirelessHeadset(c *gin.Context) {
	var req presenceRequest
	if !bind(c, &req) {
		return
	}
	if h.Presence != nil {
		h.Presence.SetWirelessAvailable(*req.Present)
	}
	kind := route.DisconnectBluetooth
	if *req.Present {
		kind = route.ConnectBluetooth
	}
	h.sendRoute(c, route.Message{Kind: kind})
}

func (h Handlers) WirelessAudio(c *gin.Context) {
	var req wirelessAudioRequest
	if !bind(c, &req) {
		return
	}
	msg := route.Message{Kind: route.BluetoothAudioDisconnected, Token: req.Token}
	if *req.Connected {
		msg.Kind = route.BluetoothAudioConnected
	}
	h.sendRoute(c, msg)
}

// --- User ---

func (h Handlers) SwitchRoute(c *gin.Context) {
	var req routeRequest
	if !bind(c, &req) {
		return
	}
	kind := route.SwitchBaselineRoute
	if req.Route != "baseline" {
		r, err := audio.ParseRoute(req.Route)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if kind, err = route.SwitchFor(r); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.sendRoute(c, route.Message{Kind: kind})
}

func (h Handlers) Mute(c *gin.Context) {
	var req muteRequest
	if !bind(c, &req) {
		return
	}
	kinds := map[string]route.Kind{"on": route.MuteOn, "off": route.MuteOff, "toggle": route.ToggleMute}
	h.sendRoute(c, route.Message{Kind: kinds[req.Action]})
}

func (h Handlers) ResendAudioState(c *gin.Context) {
	h.sendRoute(c, route.Message{Kind: route.ResendAudioState})
}

// sendRoute queues msg, waits for the route coordinator to handle it and
// returns the resulting route status.
func (h Handlers) sendRoute(c *gin.Context, msg route.Message) {
	ctx, cancel := h.stateCtx(c)
	defer cancel()

	h.Engine.Route.Send(msg)
	st, err := h.Engine.Route.State(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "route coordinator unavailable"})
		return
	}
	logger.FromGin(c).Debug("route message accepted", "message", msg.Kind.String(), "state", st.Name)
	c.JSON(http.StatusAccepted, st)
}

// --- Read side ---

func (h Handlers) State(c *gin.Context) {
	ctx, cancel := h.stateCtx(c)
	defer cancel()

	st, err := h.Engine.Status(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "coordinators unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":       st.Mode,
		"route":      st.Route,
		"snapshot":   h.Engine.Tracker.Snapshot(),
		"foreground": h.Engine.Tracker.ForegroundCallID(),
	})
}

func (h Handlers) Events(c *gin.Context) {
	if h.Hub == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "event stream not configured"})
		return
	}
	h.Hub.ServeWS(c.Writer, c.Request)
}

// JournalEntries lists recent journal events. RBAC: admin.
func (h Handlers) JournalEntries(c *gin.Context) {
	if h.Journal == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "journal not configured"})
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}
	events, err := h.Journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "journal lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
