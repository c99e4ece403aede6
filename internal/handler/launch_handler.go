package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voicebox/internal/config"
	"voicebox/internal/lti"
	"voicebox/internal/services"
	"voicebox/internal/session"
	"voicebox/internal/transport/httpdto"
)

// LaunchRejectedMessage is returned for launches whose signature or
// parameters do not check out.
const LaunchRejectedMessage = "Invalid LTI launch. Please relaunch the activity from your course."

// LaunchHandler turns a signed LTI launch POST into a server-side session and
// serves the recorder page as the response body.
type LaunchHandler struct {
	validator *lti.Validator
	store     session.Store
	codec     *session.Codec
	cfg       *config.Config
}

func NewLaunchHandler(validator *lti.Validator, store session.Store, codec *session.Codec, cfg *config.Config) *LaunchHandler {
	return &LaunchHandler{
		validator: validator,
		store:     store,
		codec:     codec,
		cfg:       cfg,
	}
}

func (h *LaunchHandler) Launch(c *gin.Context) {
	launch, err := h.validator.Validate(c.Request)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(LaunchRejectedMessage, "LAUNCH_REJECTED"))
		return
	}
	if launch.UserID == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(LaunchRejectedMessage, "LAUNCH_REJECTED"))
		return
	}

	now := time.Now()
	sess := &session.Session{
		ID:                session.NewID(),
		UserID:            launch.UserID,
		CourseID:          launch.CourseID,
		AssignmentID:      launch.AssignmentID,
		Roles:             launch.Roles,
		ConsumerKey:       launch.ConsumerKey,
		OutcomeServiceURL: launch.OutcomeServiceURL,
		ResultSourcedID:   launch.ResultSourcedID,
		UserName:          launch.UserName,
		CourseTitle:       launch.CourseTitle,
		AssignmentTitle:   launch.AssignmentTitle,
		CreatedAt:         now,
		LastSeenAt:        now,
	}
	if err := h.store.Create(c.Request.Context(), sess); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Could not start your session. Please relaunch.", "SESSION_CREATE_FAILED"))
		return
	}

	// The page is usually framed by the LMS, so the cookie must survive a
	// cross-site POST in production. Setting it overwrites whatever launch
	// this browser had before.
	secure := h.cfg.IsProduction()
	if secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(session.CookieName, h.codec.Encode(sess.ID), int(h.cfg.Session.TTL.Seconds()), "/", "", secure, true)

	c.HTML(http.StatusOK, "recorder.html", gin.H{
		"UserName":        sess.UserName,
		"CourseTitle":     sess.CourseTitle,
		"AssignmentTitle": sess.AssignmentTitle,
		"MaxUploadBytes":  services.MaxUploadBytes,
	})
}
