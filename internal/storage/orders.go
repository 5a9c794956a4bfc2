package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/reconcile"
)

const ordersTable = "orders"

var orderRowFields = fields(orderRow{})

type orderRow struct {
	ID                 string     `db:"id"`
	DeviceUUID         string     `db:"device_uuid"`
	MerchantID         string     `db:"merchant_id"`
	DrinkNumber        string     `db:"drink_number"`
	DrinkName          string     `db:"drink_name"`
	Size               int        `db:"size"`
	Price              int64      `db:"price"`
	Status             string     `db:"status"`
	PaymentReferenceID *string    `db:"payment_reference_id"`
	PaymentStartedAt   *time.Time `db:"payment_started_at"`
	NextCheckAt        *time.Time `db:"next_check_at"`
	LastCheckAt        *time.Time `db:"last_check_at"`
	CheckAttempts      int        `db:"check_attempts"`
	FailureReason      *string    `db:"failure_reason"`
	StatusCheckType    string     `db:"status_check_type"`
	ExpiresAt          time.Time  `db:"expires_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (o orderRow) ToModel() *orders.Order {
	return &orders.Order{
		ID:                 o.ID,
		DeviceUUID:         o.DeviceUUID,
		MerchantID:         o.MerchantID,
		DrinkNumber:        o.DrinkNumber,
		DrinkName:          o.DrinkName,
		Size:               o.Size,
		Price:              o.Price,
		Status:             orders.Status(o.Status),
		PaymentReferenceID: o.PaymentReferenceID,
		PaymentStartedAt:   o.PaymentStartedAt,
		NextCheckAt:        o.NextCheckAt,
		LastCheckAt:        o.LastCheckAt,
		CheckAttempts:      o.CheckAttempts,
		FailureReason:      o.FailureReason,
		StatusCheckType:    orders.CheckType(o.StatusCheckType),
		ExpiresAt:          o.ExpiresAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func (o *orderRow) scan(row interface{ Scan(...any) error }) error {
	return row.Scan(&o.ID, &o.DeviceUUID, &o.MerchantID, &o.DrinkNumber, &o.DrinkName,
		&o.Size, &o.Price, &o.Status, &o.PaymentReferenceID, &o.PaymentStartedAt,
		&o.NextCheckAt, &o.LastCheckAt, &o.CheckAttempts, &o.FailureReason,
		&o.StatusCheckType, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt)
}

func (s *storageImpl) CreateOrder(ctx context.Context, orderEntity orders.Order) (*orders.Order, error) {
	params := map[string]interface{}{
		"id":                   orderEntity.ID,
		"device_uuid":          orderEntity.DeviceUUID,
		"merchant_id":          orderEntity.MerchantID,
		"drink_number":         orderEntity.DrinkNumber,
		"drink_name":           orderEntity.DrinkName,
		"size":                 orderEntity.Size,
		"price":                orderEntity.Price,
		"status":               string(orderEntity.Status),
		"payment_reference_id": orderEntity.PaymentReferenceID,
		"payment_started_at":   orderEntity.PaymentStartedAt,
		"next_check_at":        orderEntity.NextCheckAt,
		"last_check_at":        orderEntity.LastCheckAt,
		"check_attempts":       orderEntity.CheckAttempts,
		"failure_reason":       orderEntity.FailureReason,
		"status_check_type":    string(orderEntity.StatusCheckType),
		"expires_at":           orderEntity.ExpiresAt,
		"created_at":           s.now(),
		"updated_at":           s.now(),
	}

	q, args, err := s.stmtBuilder().
		Insert(ordersTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetOrder(ctx, orders.GetCriteria{ID: &orderEntity.ID})
}

func (s *storageImpl) GetOrder(ctx context.Context, criteria orders.GetCriteria) (*orders.Order, error) {
	query := s.stmtBuilder().
		Select(orderRowFields).
		From(ordersTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.PaymentReferenceID != nil {
		query = query.Where(sq.Eq{"payment_reference_id": *criteria.PaymentReferenceID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var o orderRow
	if err := o.scan(s.db.QueryRowContext(ctx, q, args...)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return o.ToModel(), nil
}

func (s *storageImpl) UpdateOrder(ctx context.Context, criteria orders.GetCriteria, params orders.UpdateParams) (*orders.Order, error) {
	query := s.stmtBuilder().
		Update(ordersTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.PaymentReferenceID != nil {
		query = query.Where(sq.Eq{"payment_reference_id": *criteria.PaymentReferenceID})
	}

	if params.Status != nil {
		query = query.Set("status", string(*params.Status))
	}
	if params.PaymentReferenceID != nil {
		query = query.Set("payment_reference_id", *params.PaymentReferenceID)
	}
	if params.PaymentStartedAt != nil {
		query = query.Set("payment_started_at", *params.PaymentStartedAt)
	}
	if params.NextCheckAt != nil {
		query = query.Set("next_check_at", *params.NextCheckAt)
	}
	if params.CheckAttempts != nil {
		query = query.Set("check_attempts", *params.CheckAttempts)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetOrder(ctx, criteria)
}

// ListPollableOrders returns pending polling-tracked orders due for a status
// check, newest payments first so a customer standing at the machine is not
// starved behind old, likely-abandoned orders.
func (s *storageImpl) ListPollableOrders(ctx context.Context, now time.Time) ([]*orders.Order, error) {
	q, args, err := s.stmtBuilder().
		Select(orderRowFields).
		From(ordersTable).
		Where(sq.Eq{"status": string(orders.StatusPending)}).
		Where(sq.Eq{"status_check_type": string(orders.CheckTypePolling)}).
		Where(sq.NotEq{"next_check_at": nil}).
		Where(sq.LtOrEq{"next_check_at": now}).
		Where(sq.Gt{"expires_at": now}).
		OrderBy("payment_started_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.QueryContext: %w", err)
	}
	defer rows.Close()

	var result []*orders.Order
	for rows.Next() {
		var o orderRow
		if err := o.scan(rows); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		result = append(result, o.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return result, nil
}

// ApplyDecision writes one reconciliation decision. The WHERE clause on the
// expected status is what turns concurrent poll and webhook deliveries into
// exactly one winner; the loser sees applied=false. check_attempts is bumped
// in the same statement so the counter can never drift from the status.
func (s *storageImpl) ApplyDecision(ctx context.Context, orderID string, expected orders.Status, params reconcile.DecisionParams) (bool, error) {
	query := s.stmtBuilder().
		Update(ordersTable).
		Set("status", string(params.Status)).
		Set("next_check_at", params.NextCheckAt).
		Set("last_check_at", params.LastCheckAt).
		Set("check_attempts", sq.Expr("check_attempts + 1")).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": orderID}).
		Where(sq.Eq{"status": string(expected)})

	if params.FailureReason != nil {
		query = query.Set("failure_reason", *params.FailureReason)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("db.ExecContext: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("result.RowsAffected: %w", err)
	}

	return affected > 0, nil
}

// TransitionStatus performs a guarded status change without touching the
// check counters. next_check_at is cleared: every state reachable through
// here is terminal for the engine.
func (s *storageImpl) TransitionStatus(ctx context.Context, orderID string, expected, next orders.Status, failureReason *string) (bool, error) {
	query := s.stmtBuilder().
		Update(ordersTable).
		Set("status", string(next)).
		Set("next_check_at", nil).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": orderID}).
		Where(sq.Eq{"status": string(expected)})

	if failureReason != nil {
		query = query.Set("failure_reason", *failureReason)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("db.ExecContext: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("result.RowsAffected: %w", err)
	}

	return affected > 0, nil
}
