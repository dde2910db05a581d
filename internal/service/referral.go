package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"naija-utility-bot/internal/session"
)

// Referral credits a fixed bonus to both sides of a referral, once per
// referred user. The claim marker is process-local; after a restart a user
// could claim again. Accepted limitation.
type Referral struct {
	ledger *Ledger
	claims session.ClaimStore
	bonus  int64
}

// NewReferral creates a new Referral instance.
func NewReferral(ledger *Ledger, claims session.ClaimStore, bonus int64) *Referral {
	return &Referral{
		ledger: ledger,
		claims: claims,
		bonus:  bonus,
	}
}

// Bonus returns the configured referral bonus amount.
func (s *Referral) Bonus() int64 {
	return s.bonus
}

// Claim redeems a referral for userID referred by refID. Returns true when
// the bonus was credited. Self-referrals and repeat claims credit nothing.
// The referrer is not verified to exist; the balance upsert makes any id
// valid.
func (s *Referral) Claim(ctx context.Context, userID, refID int64) bool {
	if refID == 0 || refID == userID || s.claims.Claimed(userID) {
		return false
	}

	if err := s.ledger.UpdateBalance(ctx, userID, s.bonus); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to credit referred user")
	}
	if err := s.ledger.UpdateBalance(ctx, refID, s.bonus); err != nil {
		log.Warn().Err(err).Int64("user_id", refID).Msg("Failed to credit referrer")
	}

	s.claims.MarkClaimed(userID)

	log.Info().
		Int64("user_id", userID).
		Int64("referrer_id", refID).
		Int64("bonus", s.bonus).
		Msg("Referral credited")

	return true
}
