package web

import (
	"net/http"

	"github.com/JonMunkholm/smarttools/internal/core"
	"github.com/JonMunkholm/smarttools/internal/logging"
)

const sessionCookie = "smarttools_session"

// session returns the caller's session, starting one when the request has
// none or it expired. The cookie is reissued on every call so it expires
// together with the server-side idle TTL.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *core.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	sess, created := s.service.Sessions().GetOrCreate(id)
	if created {
		logging.FromContext(r.Context()).Debug("session started", "session_id", sess.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// existingSession returns the caller's session without creating one. Job
// routes use it: a job belongs to the session that started it.
func (s *Server) existingSession(r *http.Request) (*core.Session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, core.ErrNoSession
	}
	sess, ok := s.service.Sessions().Get(c.Value)
	if !ok {
		return nil, core.ErrNoSession
	}
	return sess, nil
}
