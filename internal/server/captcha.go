package server

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/dchest/captcha"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/plugfox/addonhub/api"
)

const captchaAudioLang = "en"

// Challenge - a captcha the contact form has to solve
type Challenge struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"image_url"`
	AudioURL  string    `json:"audio_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *handlers) newCaptcha(w http.ResponseWriter, _ *http.Request) {
	id := captcha.New()
	api.NewResponse().SetData(Challenge{
		ID:        id,
		ImageURL:  "/captcha/" + id + ".png",
		AudioURL:  "/captcha/" + id + ".wav",
		ExpiresAt: time.Now().Add(captcha.Expiration),
	}).Ok(w)
}

// captchaMedia serves /captcha/{id}.png and /captcha/{id}.wav, the extension is cut by middleware.URLFormat.
// ?reload=1 draws new digits for the same id.
func (h *handlers) captchaMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if r.URL.Query().Get("reload") != "" && !captcha.Reload(id) {
		api.NewResponse().NotFound(w)
		return
	}

	format, _ := r.Context().Value(middleware.URLFormatCtxKey).(string)

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "png":
		contentType = "image/png"
		err = captcha.WriteImage(&buf, id, captcha.StdWidth, captcha.StdHeight)
	case "wav":
		contentType = "audio/x-wav"
		err = captcha.WriteAudio(&buf, id, captchaAudioLang)
	default:
		api.NewResponse().NotFound(w)
		return
	}

	if errors.Is(err, captcha.ErrNotFound) {
		api.NewResponse().NotFound(w)
		return
	} else if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// verifyCaptcha - a solved or failed challenge is gone afterwards
func verifyCaptcha(id, solution string) bool {
	return captcha.VerifyString(id, solution)
}
