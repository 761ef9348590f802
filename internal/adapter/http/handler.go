package adapthttp

import (
	"net/http"

	"hyperlocal/internal/domain"
)

// result is what a typed handler hands to the envelope writer.
type result[Out any] struct {
	status  int
	message string
	data    Out
}

func ok[Out any](data Out) result[Out] { return result[Out]{data: data} }

func okMsg[Out any](message string, data Out) result[Out] {
	return result[Out]{message: message, data: data}
}

// none is the payload of endpoints that only report success.
type none = *struct{}

// query adapts a typed handler that takes no request body.
func query[Out any](s *Server, fn func(r *http.Request) (result[Out], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r)
		respond(s, w, r, res, err)
	}
}

// command adapts a typed handler whose input is decoded from a JSON body.
func command[In, Out any](s *Server, fn func(r *http.Request, in In) (result[Out], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := parseJSON(r, &in); err != nil {
			s.fail(w, r, err)
			return
		}
		res, err := fn(r, in)
		respond(s, w, r, res, err)
	}
}

func respond[Out any](s *Server, w http.ResponseWriter, r *http.Request, res result[Out], err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := res.status
	if status == 0 {
		status = http.StatusOK
	}
	writeOK(w, status, res.message, res.data)
}

// fail maps err onto its status and client message. The original error is
// logged and never sent.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := kind.Status()

	l := logFrom(r).WithError(err).WithField("kind", kind.String())
	switch {
	case status >= http.StatusInternalServerError:
		l.Error("request failed")
	default:
		l.Debug("request rejected")
	}
	writeFailure(w, status, domain.MessageOf(err))
}

func done(message string) result[none] { return result[none]{message: message} }
