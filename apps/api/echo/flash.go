package echoapi

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/registrar/core"
)

const (
	flashCookieName    = "registrar_flash"
	contextMessagesKey = "messages"

	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashError   = "error"
)

type flash struct {
	Level   string
	Message string
}

func init() {
	gob.Register(flash{})
}

// newFlashStore returns the signed cookie store carrying flash messages across a redirect.
func newFlashStore(conf *core.Config) sessions.Store {
	store := sessions.NewCookieStore([]byte(conf.SecretKey))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// setFlash queues a message to be shown on the next rendered page (after a redirect).
func setFlash(ctx echo.Context, level, message string) {
	sess, _ := session.Get(flashCookieName, ctx) // a cookie failing verification yields a new session
	if sess == nil {
		return
	}
	sess.AddFlash(flash{Level: level, Message: message})
	_ = sess.Save(ctx.Request(), ctx.Response())
}

// popFlashes returns the messages carried over by the flash cookie and clears it.
func popFlashes(ctx echo.Context) []flash {
	sess, err := session.Get(flashCookieName, ctx)
	if err != nil || sess == nil {
		return nil
	}
	values := sess.Flashes()
	if len(values) == 0 {
		return nil
	}
	sess.Options.MaxAge = -1
	_ = sess.Save(ctx.Request(), ctx.Response())

	flashes := make([]flash, 0, len(values))
	for _, v := range values {
		if f, ok := v.(flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// addMessage shows a message on the page rendered by the current request.
func addMessage(ctx echo.Context, level, message string) {
	msgs, _ := ctx.Get(contextMessagesKey).([]flash)
	ctx.Set(contextMessagesKey, append(msgs, flash{Level: level, Message: message}))
}

func popMessages(ctx echo.Context) []flash {
	msgs := popFlashes(ctx)
	if current, ok := ctx.Get(contextMessagesKey).([]flash); ok {
		msgs = append(msgs, current...)
	}
	return msgs
}
