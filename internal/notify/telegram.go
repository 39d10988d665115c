// Library repository: https://github.com/tucnak/telebot

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/plugfox/addonhub/internal/config"
	log "github.com/plugfox/addonhub/internal/log"
	"github.com/plugfox/addonhub/internal/model"
	"github.com/plugfox/addonhub/internal/moderation"
	tele "gopkg.in/telebot.v3"
	mw "gopkg.in/telebot.v3/middleware"
)

var errorNoAdmins = errors.New("telegram notifications need at least one admin chat")

// Executor runs console lines, implemented by moderation.Console.
type Executor interface {
	Execute(ctx context.Context, operator *model.User, line string) (moderation.Transcript, error)
}

// Telegram sends notices to the admin chats and, when enabled, accepts console commands from them.
type Telegram struct {
	bot     *tele.Bot
	admins  []int64
	timeout time.Duration
	logger  *slog.Logger
}

// NewTelegram - client may be nil, then telebot uses its own.
func NewTelegram(cfg *config.TelegramConfig, client *http.Client, logger *slog.Logger) (*Telegram, error) {
	if len(cfg.Admins) == 0 {
		return nil, errorNoAdmins
	}

	pref := tele.Settings{
		URL:    cfg.APIURL,
		Token:  cfg.Token,
		Client: client,
		Poller: &tele.LongPoller{
			Timeout: cfg.Timeout,
		},
		OnError: func(err error, _ tele.Context) {
			logger.Error("telegram error", slog.String("error", err.Error()))
		},
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("telegram bot setup: %w", err)
	}

	bot.Use(mw.Recover())
	bot.Use(mw.Logger(log.NewLogAdapter(logger)))

	return &Telegram{
		bot:     bot,
		admins:  cfg.Admins,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Notify sends the text to every admin chat. A failed chat does not stop the others.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, chat := range t.admins {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.bot.Send(tele.ChatID(chat), text); err != nil {
			errs = append(errs, fmt.Errorf("notify chat %d: %w", chat, err))
		}
	}
	return errors.Join(errs...)
}

// HandleCommands registers the console verbs for the admin chats.
// Commands from Telegram have no site account behind them and are issued as "system".
func (t *Telegram) HandleCommands(console Executor) {
	adminOnly := t.bot.Group()
	adminOnly.Use(mw.Whitelist(t.admins...))

	handler := func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		transcript, err := console.Execute(ctx, nil, commandLine(c.Text()))
		if err != nil {
			t.logger.ErrorContext(ctx, "telegram console command failed", slog.String("error", err.Error()))
			return c.Send("command failed, see the server log")
		}
		return c.Send(strings.Join(transcript, "\n"))
	}

	for _, verb := range []string{"/ban", "/unban", "/banlist", "/kick"} {
		adminOnly.Handle(verb, handler)
	}
	adminOnly.Handle("/help", func(c tele.Context) error {
		return c.Send(strings.Join(moderation.Usage(), "\n"))
	})
}

// commandLine - drop the "@botname" suffix Telegram adds to commands in groups.
func commandLine(text string) string {
	text = strings.TrimSpace(text)
	verb, rest, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(verb, '@'); at >= 0 {
		verb = verb[:at]
	}
	if rest == "" {
		return verb
	}
	return verb + " " + rest
}

// Start polling for commands, blocks until Stop.
func (t *Telegram) Start() {
	t.bot.Start()
}

func (t *Telegram) Stop() {
	t.bot.Stop()
}
