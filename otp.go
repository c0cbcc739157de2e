package identity

import (
	"context"
	"crypto/rand"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// DefaultOtpLength is the verification/reset code policy
	DefaultOtpLength = 4
	// DefaultOtpTTL bounds how long an issued code stays valid
	DefaultOtpTTL = 10 * time.Minute
)

// OtpLedgerImpl implements the OtpLedger interface. Issuance replaces any
// live record for the key inside a single transaction; expiry is only
// ever checked at verification time, never swept in the background.
type OtpLedgerImpl struct {
	db     *bun.DB
	otps   repository.Repository[*OtpRecord]
	length int
	ttl    time.Duration
	logger Logger
}

var _ OtpLedger = (*OtpLedgerImpl)(nil)

// NewOtpLedger creates a new OtpLedger instance
func NewOtpLedger(db *bun.DB, cfg Config, logger Logger) *OtpLedgerImpl {
	if logger == nil {
		logger = defLogger{}
	}

	length := DefaultOtpLength
	ttl := DefaultOtpTTL
	if cfg != nil {
		if cfg.GetOtpLength() > 0 {
			length = cfg.GetOtpLength()
		}
		if cfg.GetOtpTTL() > 0 {
			ttl = cfg.GetOtpTTL()
		}
	}

	return &OtpLedgerImpl{
		db:     db,
		otps:   NewOtpsRepository(db),
		length: length,
		ttl:    ttl,
		logger: logger,
	}
}

// Issue generates a fresh code for the key and atomically supersedes any
// existing record matching the same (email, phone) tuple. The delete and
// insert run inside one transaction, so two interleaved issuance calls
// can never leave two live codes behind.
func (l *OtpLedgerImpl) Issue(ctx context.Context, key LookupKey) (*OtpRecord, error) {
	code, err := generateNumericCode(l.length)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate otp code")
	}

	record := &OtpRecord{
		Email:     key.Email(),
		Phone:     key.Phone(),
		Code:      code,
		ExpiresAt: time.Now().Add(l.ttl),
	}

	err = l.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*OtpRecord)(nil)).
			Where("email = ?", key.Email()).
			Where("phone = ?", key.Phone()).
			Exec(ctx); err != nil {
			return err
		}

		created, err := l.otps.CreateTx(ctx, tx, record)
		if err != nil {
			return err
		}

		record = created
		return nil
	})

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue otp")
	}

	return record, nil
}

// Verify matches the full (email, phone, code) tuple against an unexpired
// record. Wrong code, wrong key, and expired record all collapse into the
// same rejection so the caller cannot tell which check failed.
func (l *OtpLedgerImpl) Verify(ctx context.Context, key LookupKey, code string) (*OtpRecord, error) {
	record := &OtpRecord{}

	err := l.db.NewSelect().
		Model(record).
		Where("email = ?", key.Email()).
		Where("phone = ?", key.Phone()).
		Where("code = ?", code).
		Where("expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrOtpRejected
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "otp lookup failed")
	}

	return record, nil
}

// Consume deletes a verified record, making the code single-use. A second
// verify against a consumed code always fails.
func (l *OtpLedgerImpl) Consume(ctx context.Context, id uuid.UUID) error {
	res, err := l.db.NewDelete().
		Model((*OtpRecord)(nil)).
		Where("id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume otp")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOtpRejected
	}

	return nil
}

// Newest returns the most recently issued record for the key, regardless
// of expiry. Used to echo the active expiry back to callers.
func (l *OtpLedgerImpl) Newest(ctx context.Context, key LookupKey) (*OtpRecord, error) {
	record := &OtpRecord{}

	err := l.db.NewSelect().
		Model(record).
		Where("email = ?", key.Email()).
		Where("phone = ?", key.Phone()).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrOtpRejected
		}
		return nil, err
	}

	return record, nil
}

func generateNumericCode(length int) (string, error) {
	const digits = "0123456789"

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = digits[int(b)%len(digits)]
	}

	return string(buf), nil
}
