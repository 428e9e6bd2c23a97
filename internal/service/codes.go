package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
)

// Code alphabet drops 0/O/1/I so codes survive being read aloud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeAttempts = 10
)

// NormalizeCode upper-cases a join code; comparison is case-insensitive.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return "", ErrInvalidCode
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", ErrInvalidCode
		}
	}
	return code, nil
}

// generateCode allocates a code unused by any non-expired room. Collisions are
// practically unreachable at 32^6, so exhausting the retries signals a broken
// deployment rather than bad input. Callers hold codeMu so the existence
// check and the insert cannot race another creation.
func (s *RoomService) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		b := make([]byte, codeLength)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("reading randomness: %w", err)
		}

		code := make([]byte, codeLength)
		for i := range code {
			code[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
		}
		codeStr := string(code)

		// Cache first, store second: the cache answers the common case
		// and the store is authoritative for codes past the cache TTL.
		if cached, err := s.roomCache.Exists(ctx, codeStr); err == nil && cached {
			continue
		}
		inUse, err := s.roomRepo.CodeInUse(ctx, codeStr)
		if err != nil {
			return "", fmt.Errorf("checking code uniqueness: %w", err)
		}
		if !inUse {
			return codeStr, nil
		}
	}
	return "", ErrCodeExhausted
}
