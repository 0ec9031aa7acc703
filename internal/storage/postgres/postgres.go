package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"telemart/internal/types/catalog"
	"telemart/internal/types/order"
	"telemart/internal/types/user"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &PostgresStorage{db: db}

	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS services (
            id TEXT PRIMARY KEY,
            name TEXT UNIQUE NOT NULL,
            icon TEXT NOT NULL DEFAULT '',
            color TEXT NOT NULL DEFAULT '',
            active BOOLEAN NOT NULL DEFAULT TRUE,
            sort_order INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS plans (
            id TEXT PRIMARY KEY,
            service_id TEXT NOT NULL REFERENCES services(id),
            account_type TEXT NOT NULL,
            duration_label TEXT NOT NULL,
            duration_months INT NOT NULL,
            price INT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            sort_order INT NOT NULL DEFAULT 0
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS plans_service_type_months
            ON plans(service_id, account_type, duration_months)`,
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            telegram_id TEXT UNIQUE NOT NULL,
            username TEXT,
            first_name TEXT,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES users(id),
            status TEXT NOT NULL,
            total_amount INT NOT NULL,
            customer_contact TEXT,
            customer_note TEXT,
            admin_note TEXT,
            admin_message TEXT,
            assigned_to TEXT,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id TEXT PRIMARY KEY,
            order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            service_id TEXT NOT NULL,
            plan_id TEXT NOT NULL,
            service_name TEXT NOT NULL,
            account_type TEXT NOT NULL,
            duration_label TEXT NOT NULL,
            price INT NOT NULL,
            quantity INT NOT NULL
        )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) ListActiveServices(ctx context.Context) ([]catalog.Service, error) {
	const qServices = `
        SELECT id, name, icon, color, active, sort_order, created_at
        FROM services
        WHERE active = TRUE
        ORDER BY sort_order, name`
	rows, err := s.db.QueryContext(ctx, qServices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Service
	for rows.Next() {
		var svc catalog.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Icon, &svc.Color, &svc.Active, &svc.SortOrder, &svc.CreatedAt); err != nil {
			return nil, err
		}
		svc.Plans = []catalog.Plan{}
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qPlans = `
        SELECT p.id, p.service_id, p.account_type, p.duration_label, p.duration_months, p.price, p.active, p.sort_order
        FROM plans p
        JOIN services s ON s.id = p.service_id
        WHERE p.active = TRUE AND s.active = TRUE
        ORDER BY p.sort_order, p.duration_months`
	planRows, err := s.db.QueryContext(ctx, qPlans)
	if err != nil {
		return nil, err
	}
	defer planRows.Close()

	byService := make(map[string][]catalog.Plan)
	for planRows.Next() {
		var p catalog.Plan
		if err := planRows.Scan(&p.ID, &p.ServiceID, &p.AccountType, &p.DurationLabel, &p.DurationMonths, &p.Price, &p.Active, &p.SortOrder); err != nil {
			return nil, err
		}
		byService[p.ServiceID] = append(byService[p.ServiceID], p)
	}
	if err := planRows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if plans, ok := byService[out[i].ID]; ok {
			out[i].Plans = plans
		}
	}
	return out, nil
}

func (s *PostgresStorage) FindActivePlans(ctx context.Context, planIDs []string) ([]catalog.PlanWithService, error) {
	if len(planIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(planIDs))
	args := make([]any, len(planIDs))
	for i, id := range planIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := fmt.Sprintf(`
        SELECT p.id, p.service_id, p.account_type, p.duration_label, p.duration_months, p.price, p.active, p.sort_order, s.name
        FROM plans p
        JOIN services s ON s.id = p.service_id
        WHERE p.active = TRUE AND p.id IN (%s)`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.PlanWithService
	for rows.Next() {
		var p catalog.PlanWithService
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.AccountType, &p.DurationLabel, &p.DurationMonths, &p.Price, &p.Active, &p.SortOrder, &p.ServiceName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) FindByTelegramID(ctx context.Context, telegramID string) (*user.User, error) {
	u := &user.User{}
	const q = `SELECT id, telegram_id, username, first_name, created_at FROM users WHERE telegram_id = $1`
	if err := s.db.QueryRowContext(ctx, q, telegramID).
		Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresStorage) UpsertUser(ctx context.Context, telegramID string, username, firstName *string) (*user.User, error) {
	const q = `
        INSERT INTO users (id, telegram_id, username, first_name, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (telegram_id) DO UPDATE SET
            username = COALESCE(EXCLUDED.username, users.username),
            first_name = COALESCE(EXCLUDED.first_name, users.first_name)
        RETURNING id, telegram_id, username, first_name, created_at`
	u := &user.User{}
	err := s.db.QueryRowContext(ctx, q, uuid.NewString(), telegramID, username, firstName, time.Now().UTC()).
		Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// CreateOrder inserts the order and all of its items in one transaction so
// partial orders are never observable.
func (s *PostgresStorage) CreateOrder(ctx context.Context, o *order.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()

	const qOrder = `
        INSERT INTO orders (id, user_id, status, total_amount, customer_contact, customer_note, admin_note, admin_message, assigned_to, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.ExecContext(ctx, qOrder,
		o.ID, o.UserID, o.Status, o.TotalAmount,
		o.CustomerContact, o.CustomerNote, o.AdminNote, o.AdminMessage, o.AssignedTo, o.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	const qItem = `
        INSERT INTO order_items (id, order_id, service_id, plan_id, service_name, account_type, duration_label, price, quantity)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range o.Items {
		o.Items[i].ID = uuid.NewString()
		o.Items[i].OrderID = o.ID
		it := o.Items[i]
		if _, err := tx.ExecContext(ctx, qItem,
			it.ID, it.OrderID, it.ServiceID, it.PlanID, it.ServiceName, it.AccountType, it.DurationLabel, it.Price, it.Quantity,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

const orderColumns = `
    o.id, o.user_id, o.status, o.total_amount, o.customer_contact, o.customer_note,
    o.admin_note, o.admin_message, o.assigned_to, o.created_at,
    u.id, u.telegram_id, u.username, u.first_name, u.created_at`

func scanOrder(scanner interface{ Scan(...any) error }) (*order.Order, error) {
	o := &order.Order{User: &user.User{}}
	err := scanner.Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CustomerContact, &o.CustomerNote,
		&o.AdminNote, &o.AdminMessage, &o.AssignedTo, &o.CreatedAt,
		&o.User.ID, &o.User.TelegramID, &o.User.Username, &o.User.FirstName, &o.User.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []order.Item{}
	return o, nil
}

func (s *PostgresStorage) ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	conds := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != nil {
		conds = append(conds, "o.status = "+arg(*f.Status))
	}
	if f.TelegramID != "" {
		conds = append(conds, "u.telegram_id = "+arg(f.TelegramID))
	}
	if f.UserID != "" {
		conds = append(conds, "o.user_id = "+arg(f.UserID))
	}
	if f.Unassigned {
		conds = append(conds, "o.assigned_to IS NULL")
	} else if f.AssignedTo != "" {
		conds = append(conds, "o.assigned_to = "+arg(f.AssignedTo))
	}

	q := "SELECT " + orderColumns + " FROM orders o JOIN users u ON u.id = o.user_id"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY o.created_at DESC LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStorage) FindOrderByID(ctx context.Context, id string) (*order.Order, error) {
	q := "SELECT " + orderColumns + " FROM orders o JOIN users u ON u.id = o.user_id WHERE o.id = $1"
	o, err := scanOrder(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	orders := []order.Order{*o}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *PostgresStorage) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	placeholders := make([]string, len(orders))
	args := make([]any, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = orders[i].ID
		index[orders[i].ID] = i
	}

	q := fmt.Sprintf(`
        SELECT id, order_id, service_id, plan_id, service_name, account_type, duration_label, price, quantity
        FROM order_items
        WHERE order_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ServiceID, &it.PlanID, &it.ServiceName, &it.AccountType, &it.DurationLabel, &it.Price, &it.Quantity); err != nil {
			return err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

// ClaimOrder is a single conditional update: the WHERE clause does the
// check-and-set atomically, so concurrent claims on the same order yield
// exactly one affected row across all of them.
func (s *PostgresStorage) ClaimOrder(ctx context.Context, id, adminID string) (int64, error) {
	const q = `
        UPDATE orders
        SET status = $3, assigned_to = $2
        WHERE id = $1 AND status = $4 AND assigned_to IS NULL`
	res, err := s.db.ExecContext(ctx, q, id, adminID, order.StatusInProgress, order.StatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PostgresStorage) UpdateOrder(ctx context.Context, id string, u order.Update) error {
	sets := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if u.Status != nil {
		sets = append(sets, "status = "+arg(*u.Status))
	}
	patch := func(column string, p order.StringPatch) {
		if !p.Present {
			return
		}
		if p.Null {
			sets = append(sets, column+" = NULL")
			return
		}
		sets = append(sets, column+" = "+arg(p.Value))
	}
	patch("admin_note", u.AdminNote)
	patch("admin_message", u.AdminMessage)
	patch("assigned_to", u.AssignedTo)

	if len(sets) == 0 {
		return nil
	}

	q := "UPDATE orders SET " + strings.Join(sets, ", ") + " WHERE id = " + arg(id)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStorage) GetOrderStats(ctx context.Context, userID string) (int, int, error) {
	const q = `
        SELECT COUNT(*),
               COALESCE(SUM(total_amount) FILTER (WHERE status <> $2), 0)
        FROM orders
        WHERE user_id = $1`
	var count, totalSpent int
	if err := s.db.QueryRowContext(ctx, q, userID, order.StatusCancelled).Scan(&count, &totalSpent); err != nil {
		return 0, 0, err
	}
	return count, totalSpent, nil
}

func (s *PostgresStorage) ListOrdersByUser(ctx context.Context, userID string, limit int) ([]order.Order, error) {
	return s.ListOrders(ctx, order.ListFilter{UserID: userID, Limit: limit})
}

func (s *PostgresStorage) UpsertService(ctx context.Context, svc *catalog.Service) error {
	const q = `
        INSERT INTO services (id, name, icon, color, active, sort_order, created_at)
        VALUES ($1, $2, $3, $4, TRUE, $5, $6)
        ON CONFLICT (name) DO UPDATE SET
            icon = EXCLUDED.icon,
            color = EXCLUDED.color,
            sort_order = EXCLUDED.sort_order,
            active = TRUE
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, q,
		uuid.NewString(), svc.Name, svc.Icon, svc.Color, svc.SortOrder, time.Now().UTC(),
	).Scan(&svc.ID, &svc.CreatedAt)
}

func (s *PostgresStorage) UpsertPlan(ctx context.Context, p *catalog.Plan) error {
	const q = `
        INSERT INTO plans (id, service_id, account_type, duration_label, duration_months, price, active, sort_order)
        VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
        ON CONFLICT (service_id, account_type, duration_months) DO UPDATE SET
            duration_label = EXCLUDED.duration_label,
            price = EXCLUDED.price,
            sort_order = EXCLUDED.sort_order,
            active = TRUE
        RETURNING id`
	return s.db.QueryRowContext(ctx, q,
		uuid.NewString(), p.ServiceID, p.AccountType, p.DurationLabel, p.DurationMonths, p.Price, p.SortOrder,
	).Scan(&p.ID)
}
