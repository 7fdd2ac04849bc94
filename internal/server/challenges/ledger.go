// Package challenges holds the single-use ceremony challenges issued to
// clients. A challenge is valid for exactly one finish call: Consume always
// removes it, whether or not the caller's verification later succeeds.
package challenges

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
)

// Kind separates registration and authentication challenges for the same
// student and modality.
type Kind string

const (
	KindRegistration   Kind = "registration"
	KindAuthentication Kind = "authentication"
)

// Key identifies one outstanding ceremony.
type Key struct {
	UserID   string
	Modality models.Modality
	Kind     Kind
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.Modality, k.UserID)
}

// Ledger is the challenge store. Issue replaces any outstanding challenge
// for the key. Consume returns common.ErrChallengeExpired when nothing fresh
// is stored.
type Ledger interface {
	Issue(ctx context.Context, key Key) ([]byte, error)
	Consume(ctx context.Context, key Key) ([]byte, error)
}

func newChallenge() ([]byte, error) {
	b := common.GenerateRandByteArray(common.ChallengeSize)
	if b == nil {
		return nil, fmt.Errorf("challenge: random source failed")
	}
	return b, nil
}
