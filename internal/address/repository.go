// Package address resolves previously stored shipping addresses.
// Address creation and editing belong to account tooling outside this
// service; checkout only reads, ownership-checked.
package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ceylonmart/checkout-service/internal/domain"
)

type Book interface {
	// GetAddress resolves an address by id, scoped to its owner.
	// An address that does not exist or belongs to another user yields
	// domain.ErrAddressNotFound.
	GetAddress(ctx context.Context, addressID, userID int64) (*domain.Address, error)
}

type postgresBook struct {
	db *sql.DB
}

func NewPostgresBook(db *sql.DB) Book {
	return &postgresBook{db: db}
}

func (b *postgresBook) GetAddress(ctx context.Context, addressID, userID int64) (*domain.Address, error) {
	addr := &domain.Address{}
	err := b.db.QueryRowContext(ctx,
		`SELECT address_id, user_id, line1, line2, city, postal_code
		 FROM addresses WHERE address_id = $1 AND user_id = $2`,
		addressID, userID,
	).Scan(&addr.ID, &addr.UserID, &addr.Line1, &addr.Line2, &addr.City, &addr.PostalCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return addr, nil
}
