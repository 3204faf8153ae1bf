package common

import (
	"context"
	"errors"

	"github.com/tuklasart/backend/pkg/xcontext"
)

type OwnershipVerifier struct{}

func NewOwnershipVerifier() *OwnershipVerifier {
	return &OwnershipVerifier{}
}

func (*OwnershipVerifier) Verify(ctx context.Context, ownerID string) error {
	if xcontext.RequestUserID(ctx) != ownerID {
		return errors.New("user does not own this resource")
	}

	return nil
}
