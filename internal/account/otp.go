package account

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const (
	otpDigits      = 6
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 5
)

type otpPurpose string

const (
	purposeReset otpPurpose = "reset"
	purposeLogin otpPurpose = "login"
)

type otpEntry struct {
	code     string
	expires  time.Time
	attempts int
}

// otpStore keeps at most one live code per purpose and subject. Issuing a new
// code replaces the previous one.
type otpStore struct {
	mu      sync.Mutex
	entries map[string]*otpEntry
	now     func() time.Time
}

func newOTPStore(now func() time.Time) *otpStore {
	return &otpStore{entries: make(map[string]*otpEntry), now: now}
}

func otpKey(p otpPurpose, subject string) string {
	return string(p) + ":" + subject
}

func (s *otpStore) issue(p otpPurpose, subject string) (string, error) {
	code, err := randomDigits(otpDigits)
	if err != nil {
		return "", fmt.Errorf("account.otpStore.issue: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[otpKey(p, subject)] = &otpEntry{code: code, expires: s.now().Add(otpTTL)}
	return code, nil
}

// verify checks code and, when consume is set, invalidates it on success.
// Expired codes and codes past the attempt limit are dropped.
func (s *otpStore) verify(p otpPurpose, subject, code string, consume bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otpKey(p, subject)
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return false
	}

	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		e.attempts++
		if e.attempts >= otpMaxAttempts {
			delete(s.entries, key)
		}
		return false
	}

	if consume {
		delete(s.entries, key)
	}
	return true
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generating otp: %w", err)
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
