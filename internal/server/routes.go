package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/plugfox/addonhub/api"
	"github.com/plugfox/addonhub/internal/auth"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/moderation"
	"github.com/plugfox/addonhub/internal/storage"
	"github.com/plugfox/addonhub/internal/triage"
)

type handlers struct {
	deps         Dependencies
	logger       *slog.Logger
	validate     *validator.Validate
	banListLimit int
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type consoleRequest struct {
	Command string `json:"command" validate:"max=1000"`
}

type consoleResponse struct {
	Transcript []string `json:"transcript"`
}

type consoleUsageResponse struct {
	Usage []string `json:"usage"`
}

type reportRequest struct {
	URL         string `json:"url"         validate:"omitempty,url,max=500"`
	Description string `json:"description" validate:"required,max=5000"`
}

type contactRequest struct {
	Name            string `json:"name"             validate:"required,max=200"`
	Email           string `json:"email"            validate:"required,email,max=254"`
	Subject         string `json:"subject"          validate:"max=200"`
	Message         string `json:"message"          validate:"required,max=5000"`
	CaptchaID       string `json:"captcha_id"       validate:"required"`
	CaptchaSolution string `json:"captcha_solution" validate:"required,numeric"`
}

type activationRequest struct {
	Usernames []string `json:"usernames" validate:"required,min=1,max=200,dive,required,max=150"`
}

type announcementRequest struct {
	Title    string `json:"title"     validate:"required,max=200"`
	Content  string `json:"content"   validate:"required,max=20000"`
	VideoURL string `json:"video_url" validate:"omitempty,url,max=500"`
	Draft    bool   `json:"draft"`
}

type replyRequest struct {
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// decode - JSON body into dst, then validate its tags. Writes the 400 response itself.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.Decode(r, dst); err != nil {
		api.NewResponse().SetError("bad_request", "Cannot decode request body", err.Error()).BadRequest(w)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make(map[string]string, len(validationErrors))
			for _, fe := range validationErrors {
				fields[fe.Field()] = fe.Tag()
			}
			api.NewResponse().SetError("validation_error", "Request validation failed", fields).BadRequest(w)
			return false
		}
		api.NewResponse().SetError("bad_request", err.Error()).BadRequest(w)
		return false
	}
	return true
}

// fail - map a service error to a response
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		api.NewResponse().NotFound(w)
	case errors.Is(err, triage.ErrEmptyReply):
		api.NewResponse().SetError("bad_request", err.Error()).BadRequest(w)
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		api.NewResponse().InternalServerError(w)
	}
}

func (h *handlers) currentUser(w http.ResponseWriter, r *http.Request) *model.User {
	user, err := userFromContext(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return nil
	}
	return user
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		api.NewResponse().SetError("bad_request", "Invalid id").BadRequest(w)
		return 0, false
	}
	return uint(id), true
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.deps.Auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		api.NewResponse().SetData(session).Ok(w)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.NewResponse().SetError("invalid_credentials", "Invalid username or password").Unauthorized(w)
	case errors.Is(err, auth.ErrBanned):
		api.NewResponse().SetError("banned", "Account is banned").Forbidden(w)
	case errors.Is(err, auth.ErrTooManyAttempts):
		api.NewResponse().SetError("too_many_attempts", "Too many failed login attempts, try again later").TooManyRequests(w)
	default:
		h.fail(w, r, err)
	}
}

func (h *handlers) submitReport(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req reportRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.deps.Triage.SubmitReport(r.Context(), user, req.URL, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(report).Created(w)
}

func (h *handlers) submitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !h.decode(w, r, &req) {
		return
	}

	if !verifyCaptcha(req.CaptchaID, req.CaptchaSolution) {
		api.NewResponse().SetError("invalid_captcha", "Captcha solution is wrong or expired").BadRequest(w)
		return
	}

	contact, err := h.deps.Triage.SubmitContact(r.Context(), req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(contact).Created(w)
}

func (h *handlers) ownContacts(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	contacts, err := h.deps.Triage.OwnContacts(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(contacts).Ok(w)
}

func (h *handlers) console(w http.ResponseWriter, r *http.Request) {
	operator := h.currentUser(w, r)
	if operator == nil {
		return
	}

	var req consoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	transcript, err := h.deps.Console.Execute(r.Context(), operator, req.Command)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "console command failed",
			slog.String("operator", operator.Username),
			slog.String("command", req.Command),
			slog.String("error", err.Error()))
		api.NewResponse().SetError("internal_server_error", "Command failed", consoleResponse{Transcript: transcript}).InternalServerError(w)
		return
	}
	api.NewResponse().SetData(consoleResponse{Transcript: transcript}).Ok(w)
}

func (h *handlers) consoleUsage(w http.ResponseWriter, _ *http.Request) {
	api.NewResponse().SetData(consoleUsageResponse{Usage: moderation.Usage()}).Ok(w)
}

func (h *handlers) banList(w http.ResponseWriter, r *http.Request) {
	filter := storage.BanFilter{Limit: queryLimit(r), PreloadUsers: true}
	if filter.Limit == 0 || (h.banListLimit > 0 && filter.Limit > h.banListLimit) {
		filter.Limit = h.banListLimit
	}

	if username := r.URL.Query().Get("user"); username != "" {
		user, err := h.deps.Bans.UserByUsername(r.Context(), username)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		filter.UserID = &user.ID
	}

	records, err := h.deps.Bans.BanRecords(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(records).Ok(w)
}

func (h *handlers) sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Sweeper.Sweep(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(result).Ok(w)
}

func (h *handlers) reports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.deps.Triage.Reports(r.Context(), queryLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(reports).Ok(w)
}

func (h *handlers) toggleReport(w http.ResponseWriter, r *http.Request) {
	staff := h.currentUser(w, r)
	if staff == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	report, err := h.deps.Triage.ToggleReport(r.Context(), id, staff)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(report).Ok(w)
}

func (h *handlers) contacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.deps.Triage.Contacts(r.Context(), queryLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(contacts).Ok(w)
}

func (h *handlers) toggleContact(w http.ResponseWriter, r *http.Request) {
	staff := h.currentUser(w, r)
	if staff == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.deps.Triage.ToggleContact(r.Context(), id, staff)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(contact).Ok(w)
}

func (h *handlers) replyContact(w http.ResponseWriter, r *http.Request) {
	staff := h.currentUser(w, r)
	if staff == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req replyRequest
	if !h.decode(w, r, &req) {
		return
	}

	reply, err := h.deps.Triage.ReplyContact(r.Context(), id, staff, req.Subject, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(reply).Created(w)
}

func (h *handlers) activateUsers(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *handlers) deactivateUsers(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *handlers) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	operator := h.currentUser(w, r)
	if operator == nil {
		return
	}

	var req activationRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.deps.Console.SetActive(r.Context(), operator, req.Usernames, active)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(result).Ok(w)
}

func (h *handlers) publicAnnouncements(w http.ResponseWriter, r *http.Request) {
	h.announcements(w, r, false)
}

func (h *handlers) allAnnouncements(w http.ResponseWriter, r *http.Request) {
	h.announcements(w, r, true)
}

func (h *handlers) announcements(w http.ResponseWriter, r *http.Request, withDrafts bool) {
	announcements, err := h.deps.Triage.Announcements(r.Context(), withDrafts, queryLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(announcements).Ok(w)
}

func (h *handlers) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	staff := h.currentUser(w, r)
	if staff == nil {
		return
	}

	var req announcementRequest
	if !h.decode(w, r, &req) {
		return
	}

	announcement, err := h.deps.Triage.CreateAnnouncement(r.Context(), staff, req.Title, req.Content, req.VideoURL, req.Draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(announcement).Created(w)
}

func (h *handlers) toggleAnnouncement(w http.ResponseWriter, r *http.Request) {
	staff := h.currentUser(w, r)
	if staff == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	announcement, err := h.deps.Triage.ToggleAnnouncement(r.Context(), id, staff)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().SetData(announcement).Ok(w)
}
