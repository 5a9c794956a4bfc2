package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/merchants"
)

const merchantCredentialsTable = "merchant_credentials"

var merchantCredentialsRowFields = fields(merchantCredentialsRow{})

type merchantCredentialsRow struct {
	ID              int64  `db:"id"`
	MerchantID      string `db:"merchant_id"`
	ShopID          string `db:"shop_id"`
	SecretKey       string `db:"secret_key"`
	StatusCheckType string `db:"status_check_type"`
}

func (m merchantCredentialsRow) ToModel() *merchants.Credentials {
	return &merchants.Credentials{
		ID:              m.ID,
		MerchantID:      m.MerchantID,
		ShopID:          m.ShopID,
		SecretKey:       m.SecretKey,
		StatusCheckType: m.StatusCheckType,
	}
}

func (s *storageImpl) GetMerchantCredentials(ctx context.Context, criteria merchants.GetCriteria) (*merchants.Credentials, error) {
	query := s.stmtBuilder().
		Select(merchantCredentialsRowFields).
		From(merchantCredentialsTable).
		Limit(1)

	if criteria.MerchantID != nil {
		query = query.Where(sq.Eq{"merchant_id": *criteria.MerchantID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	row := s.db.QueryRowContext(ctx, q, args...)

	var m merchantCredentialsRow
	err = row.Scan(&m.ID, &m.MerchantID, &m.ShopID, &m.SecretKey, &m.StatusCheckType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return m.ToModel(), nil
}
