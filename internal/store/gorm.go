package store

import (
	"context"
	"errors"
	"fmt"

	"username_wallet/internal/domain" // Persisted row models
	"username_wallet/internal/ledger" // Store contract and record types

	"github.com/go-sql-driver/mysql" // MySQL error numbers for conflict mapping
	"gorm.io/gorm"                   // GORM ORM library
	"gorm.io/gorm/clause"            // Row locking clause
)

// MySQL server error numbers the store translates into ledger errors.
const (
	mysqlErrDuplicateEntry  = 1062 // Unique key violation
	mysqlErrLockWaitTimeout = 1205 // Row lock not acquired in time
	mysqlErrDeadlock        = 1213 // Transaction chosen as deadlock victim
)

// Gorm is the MySQL-backed ledger.Store. Per-account serialization rides on
// InnoDB row locks: every mutation runs in a transaction that takes
// SELECT ... FOR UPDATE on the account row, so concurrent mutations of one
// username queue on the row while different usernames never touch each
// other. A lock wait timeout surfaces as the transient ErrAccountBusy.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps a gorm connection as a ledger.Store.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

var _ ledger.Store = (*Gorm)(nil)

// CreateAccount inserts the wallet row and its registration event in one
// transaction. The address primary key and the username unique key both
// enforce create-once; either violation maps to ErrAlreadyExists.
func (g *Gorm) CreateAccount(ctx context.Context, addr ledger.Address, acct *ledger.Account, ev ledger.Event) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := walletRow(addr, acct)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		evRow := eventRow(ev)
		return tx.Create(&evRow).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return ledger.ErrAlreadyExists
		}
		return translateContention(err)
	}
	return nil
}

// LoadAccount reads the row at addr without locking it.
func (g *Gorm) LoadAccount(ctx context.Context, addr ledger.Address) (*ledger.Account, error) {
	var row domain.Wallet
	err := g.db.WithContext(ctx).Where("address = ?", addr.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, err
	}
	return accountFromRow(&row)
}

// UpdateAccount locks the row, runs mutate on the decoded record and, only
// if it succeeds, writes the new balance and the event before committing.
// A failed mutate rolls the transaction back untouched.
func (g *Gorm) UpdateAccount(ctx context.Context, addr ledger.Address, mutate func(*ledger.Account) (ledger.Event, error)) (*ledger.Account, error) {
	var committed *ledger.Account
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.Wallet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", addr.String()).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrAccountNotFound
			}
			return err
		}
		acct, err := accountFromRow(&row)
		if err != nil {
			return err
		}
		ev, err := mutate(acct)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.Wallet{}).
			Where("address = ?", row.Address).
			Update("balance", acct.Balance).Error; err != nil {
			return err
		}
		evRow := eventRow(ev)
		if err := tx.Create(&evRow).Error; err != nil {
			return err
		}
		committed = acct
		return nil
	})
	if err != nil {
		return nil, translateContention(err)
	}
	return committed, nil
}

// AccountsByOwner lists the owner's wallets, oldest registration first.
func (g *Gorm) AccountsByOwner(ctx context.Context, owner ledger.Identity) ([]*ledger.Account, error) {
	var rows []domain.Wallet
	err := g.db.WithContext(ctx).
		Where("owner = ?", owner.String()).
		Order("created_at asc, username asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*ledger.Account, 0, len(rows))
	for i := range rows {
		acct, err := accountFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

// Events reads the log in commit order with the filter applied.
func (g *Gorm) Events(ctx context.Context, f ledger.EventFilter, offset, limit int) ([]ledger.Event, int64, error) {
	query := g.db.WithContext(ctx).Model(&domain.Event{})
	if f.Username != "" {
		query = query.Where("username = ?", f.Username)
	}
	if f.Kind != "" {
		query = query.Where("kind = ?", f.Kind)
	}
	if !f.From.IsZero() {
		query = query.Where("timestamp >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("timestamp <= ?", f.To)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Order("seq asc").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []domain.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]ledger.Event, 0, len(rows))
	for i := range rows {
		ev, err := eventFromRow(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ev)
	}
	return out, total, nil
}

// walletRow encodes a ledger record for storage.
func walletRow(addr ledger.Address, acct *ledger.Account) domain.Wallet {
	return domain.Wallet{
		Address:   addr.String(),
		Owner:     acct.Owner.String(),
		Username:  acct.Username,
		Balance:   acct.Balance,
		CreatedAt: acct.CreatedAt,
		Bump:      acct.Bump,
	}
}

// accountFromRow decodes a stored row back into a ledger record.
func accountFromRow(row *domain.Wallet) (*ledger.Account, error) {
	owner, err := ledger.ParseIdentity(row.Owner)
	if err != nil {
		return nil, fmt.Errorf("corrupt owner key for %q: %w", row.Username, err)
	}
	return &ledger.Account{
		Owner:     owner,
		Username:  row.Username,
		Balance:   row.Balance,
		CreatedAt: row.CreatedAt,
		Bump:      row.Bump,
	}, nil
}

// eventRow encodes an event for storage.
func eventRow(ev ledger.Event) domain.Event {
	return domain.Event{
		ID:        ev.ID,
		Kind:      ev.Kind,
		Username:  ev.Username,
		Actor:     ev.Actor.String(),
		Amount:    ev.Amount,
		Timestamp: ev.Timestamp,
	}
}

// eventFromRow decodes a stored event row.
func eventFromRow(row *domain.Event) (ledger.Event, error) {
	actor, err := ledger.ParseIdentity(row.Actor)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("corrupt actor key on event %s: %w", row.ID, err)
	}
	return ledger.Event{
		ID:        row.ID,
		Kind:      row.Kind,
		Username:  row.Username,
		Actor:     actor,
		Amount:    row.Amount,
		Timestamp: row.Timestamp,
	}, nil
}

// isDuplicate reports whether err is a unique key violation.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}

// translateContention maps row-lock timeouts and deadlock rollbacks to the
// transient ErrAccountBusy; anything else passes through.
func translateContention(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlErrLockWaitTimeout || myErr.Number == mysqlErrDeadlock {
			return ledger.ErrAccountBusy
		}
	}
	return err
}
