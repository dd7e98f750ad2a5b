package http

import (
	"net/http"
	"strings"

	"bilancio/internal/log"
)

const dateLayout = "2006-01-02"

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// fail writes the response for err. Server-side failures are logged with
// the operation that hit them.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	if StatusFor(err) >= http.StatusInternalServerError {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(),
			"Request failed",
			log.FieldOperation, op,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	resp.Write(w)
}

// monthParams reads ?month=&year= against the service clock.
func (s *Server) monthParams(r *http.Request) MonthParams {
	return ParseMonthParams(r.URL.Query(), s.finance.Now())
}

// today is the default date of new transactions.
func (s *Server) today() string {
	return s.finance.Now().Format(dateLayout)
}
