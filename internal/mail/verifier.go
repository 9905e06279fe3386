// Package mail implements the email verification flow: a short
// numeric code is generated at registration, stored in Redis under
// a TTL, mailed to the user, and checked once when the user
// confirms.  The code is single-use; a successful check deletes it.
package mail

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// codeTTL bounds how long a verification code stays valid.
const codeTTL = 15 * time.Minute

// ErrCodeMismatch is returned when the presented code is wrong,
// expired, or was never issued.  The three cases are deliberately
// indistinguishable to the caller.
var ErrCodeMismatch = errors.New("verification code mismatch")

// Verifier issues and checks verification codes.
type Verifier struct {
	rdb    *redis.Client
	sender Sender
}

// NewVerifier returns a Verifier backed by the given Redis client
// and outbound sender.
func NewVerifier(rdb *redis.Client, sender Sender) *Verifier {
	if rdb == nil || sender == nil {
		panic("nil dependency passed to NewVerifier")
	}
	return &Verifier{rdb: rdb, sender: sender}
}

func codeKey(email string) string {
	return "verify:" + email
}

// Issue generates a 6-digit code, stores it under the user's email
// with a TTL, and hands it to the sender.  Re-issuing overwrites
// any previous code and restarts the TTL.
func (v *Verifier) Issue(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := v.rdb.Set(ctx, codeKey(email), code, codeTTL).Err(); err != nil {
		return err
	}
	return v.sender.SendVerificationCode(email, code)
}

// Check validates the presented code and consumes it on success.
func (v *Verifier) Check(ctx context.Context, email, code string) error {
	stored, err := v.rdb.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeMismatch
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrCodeMismatch
	}
	return v.rdb.Del(ctx, codeKey(email)).Err()
}

// generateCode returns a 6-digit random code as a string.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
