package entity

import (
	"context"

	"github.com/tuklasart/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Artwork{},
		&Approval{},
		&Listing{},
		&Sale{},
		&Kyc{},
		&RefreshToken{},
	)
}
