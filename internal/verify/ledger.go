// Package verify issues, redeems, and expires one-time verification
// codes binding an email claim to a guild member.
package verify

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Aladore384/guildpulse/internal/domain"
	"github.com/Aladore384/guildpulse/internal/metrics"
	"github.com/Aladore384/guildpulse/internal/statestore"
)

// codeTTL is how long an issued code stays redeemable.
const codeTTL = 30 * time.Minute

// Outcome is the result of a redemption attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeInvalid
	OutcomeExpired
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeExpired:
		return "expired"
	default:
		return "not_found"
	}
}

// Ledger manages verification entries. Every issued code gets its own
// expiry timer, so cleanup is O(1) per entry rather than a global
// poll. A timer only removes the entry it was armed for: if a newer
// code has been issued for the same member, the issuance ID no longer
// matches and the stale timer is a no-op.
type Ledger struct {
	store          *statestore.Store
	clock          clockwork.Clock
	roles          domain.RoleDirectory
	verifiedRoleID string
	allowedDomains []string
}

// NewLedger creates a verification ledger. allowedDomains holds the
// acceptable email domains, lower-cased.
func NewLedger(store *statestore.Store, clock clockwork.Clock, roles domain.RoleDirectory, verifiedRoleID string, allowedDomains []string) *Ledger {
	return &Ledger{
		store:          store,
		clock:          clock,
		roles:          roles,
		verifiedRoleID: verifiedRoleID,
		allowedDomains: allowedDomains,
	}
}

// Issue generates a fresh 6-digit code for memberID bound to email,
// overwriting any earlier entry, and returns the code for the caller
// to dispatch. It fails with ErrDomainNotAllowed for an email outside
// the allow-list and ErrAlreadyVerified when the member already holds
// the verified role.
func (l *Ledger) Issue(ctx context.Context, memberID, email string) (string, error) {
	if !l.domainAllowed(email) {
		return "", fmt.Errorf("%w: %s", domain.ErrDomainNotAllowed, email)
	}

	verified, err := l.roles.HasRole(ctx, memberID, l.verifiedRoleID)
	if err != nil {
		return "", fmt.Errorf("checking verified role: %w", err)
	}
	if verified {
		return "", domain.ErrAlreadyVerified
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}

	now := l.clock.Now().UTC()
	entry := domain.VerificationEntry{
		MemberID:   memberID,
		Email:      email,
		Code:       code,
		IssuanceID: uuid.New(),
		IssuedAt:   now,
		ExpiresAt:  now.Add(codeTTL),
	}

	err = l.store.Mutate(func(s *domain.State) error {
		s.Codes[memberID] = entry
		return nil
	})
	if err != nil {
		return "", err
	}

	l.armTimer(entry)
	metrics.CodesIssued.Inc()
	return code, nil
}

// Redeem checks code against the member's pending entry. On success
// the entry is cleared and the caller performs the unverified-to-
// verified role swap. Wrong codes leave the entry untouched; expired
// entries are left for their timer to sweep.
func (l *Ledger) Redeem(memberID, code string) (Outcome, error) {
	s := l.store.Snapshot()
	entry, ok := s.Codes[memberID]

	outcome := OutcomeSuccess
	switch {
	case !ok:
		outcome = OutcomeNotFound
	case entry.Code != code:
		outcome = OutcomeInvalid
	case !l.clock.Now().Before(entry.ExpiresAt):
		outcome = OutcomeExpired
	}

	if outcome == OutcomeSuccess {
		err := l.store.Mutate(func(s *domain.State) error {
			delete(s.Codes, memberID)
			return nil
		})
		if err != nil {
			return outcome, err
		}
	}

	metrics.CodeRedemptions.WithLabelValues(outcome.String()).Inc()
	return outcome, nil
}

// Sweep removes every entry whose expiry has passed. Normally each
// entry's own timer handles this; Sweep covers entries that expired
// while the process was down.
func (l *Ledger) Sweep() (int, error) {
	now := l.clock.Now()
	removed := 0
	err := l.store.Mutate(func(s *domain.State) error {
		for memberID, entry := range s.Codes {
			if !entry.ExpiresAt.After(now) {
				delete(s.Codes, memberID)
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		metrics.CodesExpired.Add(float64(removed))
	}
	return removed, nil
}

// Rearm schedules expiry timers for every pending entry and sweeps
// the ones that expired while the process was down. Called once at
// startup.
func (l *Ledger) Rearm() error {
	if _, err := l.Sweep(); err != nil {
		return err
	}
	for _, entry := range l.store.Snapshot().Codes {
		l.armTimer(entry)
	}
	return nil
}

// Pending returns the live entry for memberID, if any.
func (l *Ledger) Pending(memberID string) (domain.VerificationEntry, bool) {
	entry, ok := l.store.Snapshot().Codes[memberID]
	return entry, ok
}

func (l *Ledger) armTimer(entry domain.VerificationEntry) {
	delay := entry.ExpiresAt.Sub(l.clock.Now())
	if delay < 0 {
		delay = 0
	}
	l.clock.AfterFunc(delay, func() {
		l.expire(entry.MemberID, entry.IssuanceID)
	})
}

// expire removes the entry armed under issuanceID. A newer entry for
// the same member has a different issuance ID and is left alone.
func (l *Ledger) expire(memberID string, issuanceID uuid.UUID) {
	removed := false
	err := l.store.Mutate(func(s *domain.State) error {
		entry, ok := s.Codes[memberID]
		if !ok || entry.IssuanceID != issuanceID {
			return nil
		}
		delete(s.Codes, memberID)
		removed = true
		return nil
	})
	if err != nil {
		slog.Error("Failed to expire verification entry", "member_id", memberID, "error", err)
		return
	}
	if removed {
		metrics.CodesExpired.Inc()
		slog.Info("Verification code expired", "member_id", memberID)
	}
}

func (l *Ledger) domainAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	emailDomain := strings.ToLower(email[at+1:])
	for _, allowed := range l.allowedDomains {
		if emailDomain == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
