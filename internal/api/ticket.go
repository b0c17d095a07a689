package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// defaultTicketTTL is used when no ticket lifetime is configured.
const defaultTicketTTL = 60 * time.Second

func (s *Server) ticketTTL() time.Duration {
	if s.secCfg.TicketTTL > 0 {
		return time.Duration(s.secCfg.TicketTTL) * time.Second
	}
	return defaultTicketTTL
}

// handleWSTicket mints a short-lived signed ticket for the monitor
// channel handshake. The client presents it as the ticket query
// parameter when connecting. Only routed when a ticket secret is
// configured.
func (s *Server) handleWSTicket(w http.ResponseWriter, _ *http.Request) {
	ttl := s.ticketTTL()
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte(s.secCfg.TicketSecret))
	if err != nil {
		s.logger.Error("failed to sign channel ticket", "error", err)
		writeInternalError(w, "failed to issue ticket")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     signed,
		"expires_in": int(ttl.Seconds()),
	})
}

// validateTicket verifies a channel handshake ticket against the
// configured secret.
func (s *Server) validateTicket(ticket string) error {
	if ticket == "" {
		return fmt.Errorf("ticket is required")
	}

	_, err := jwt.Parse(ticket, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.secCfg.TicketSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("invalid ticket: %w", err)
	}
	return nil
}
