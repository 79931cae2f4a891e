package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bher20/golddigest/internal/storage"
)

// ErrInvalidEmail is returned for a missing email or one without "@".
var ErrInvalidEmail = errors.New("valid email is required")

const productionNote = "Using static mailing list + TEST_EMAIL in production"

// Subscription is the subscribe endpoint's success body.
type Subscription struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Stored  bool   `json:"stored"`
	Note    string `json:"note,omitempty"`
}

// Service records signups. In production it never writes.
type Service struct {
	store      storage.Storage
	production bool
	log        zerolog.Logger
}

func NewService(store storage.Storage, production bool, log zerolog.Logger) *Service {
	return &Service{store: store, production: production, log: log}
}

// Normalize trims and lower-cases an address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe validates and stores email. Re-subscribing an existing address
// is not an error.
func (s *Service) Subscribe(ctx context.Context, email string) (Subscription, error) {
	email = Normalize(email)
	if email == "" || !strings.Contains(email, "@") {
		return Subscription{}, ErrInvalidEmail
	}

	if s.production {
		s.log.Info().Str("email", email).Msg("subscription not stored in production")
		return Subscription{Message: "ok", Email: email, Stored: false, Note: productionNote}, nil
	}

	added, err := s.store.AddSubscriber(ctx, email)
	if err != nil {
		return Subscription{}, fmt.Errorf("store subscriber: %w", err)
	}
	s.log.Info().Str("email", email).Bool("new", added).Msg("subscriber stored")
	return Subscription{Message: "ok", Email: email, Stored: true}, nil
}
