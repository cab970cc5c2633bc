// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/models"
)

const driverPostgres = "postgres"

// PostgresStore implements Store in PostgreSQL.
type PostgresStore struct {
	bun *bun.DB
}

// ConnectPostgres connects to the database, pings it to ensure the
// connection is working and creates the schema when missing.
func ConnectPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{bun: bun.NewDB(sqlDB, pgdialect.New())}
	if err := s.createSchema(ctx); err != nil {
		_ = s.bun.Close()
		return nil, err
	}

	logging.Info().Str("component", "store").Str("driver", driverPostgres).Msg("store opened")
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	tables := []interface{}{
		(*messageRow)(nil),
		(*groupRow)(nil),
		(*expenseRow)(nil),
		(*tripRow)(nil),
		(*notificationRow)(nil),
	}
	for _, model := range tables {
		if _, err := s.bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*messageRow)(nil), "messages_group_created_idx", []string{"group_id", "created_at"}},
		{(*messageRow)(nil), "messages_pair_created_idx", []string{"sender_id", "receiver_id", "created_at"}},
		{(*expenseRow)(nil), "expenses_created_by_idx", []string{"created_by", "date"}},
		{(*expenseRow)(nil), "expenses_group_idx", []string{"group_id", "date"}},
		{(*tripRow)(nil), "trips_group_idx", []string{"group_id"}},
		{(*notificationRow)(nil), "notifications_user_created_idx", []string{"user_id", "created_at"}},
	}
	for _, idx := range indexes {
		if _, err := s.bun.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.bun.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.bun.Close()
}

// CreateMessage inserts a message.
func (s *PostgresStore) CreateMessage(ctx context.Context, msg *models.Message) (err error) {
	defer func(start time.Time) { observe(driverPostgres, "create_message", start, err) }(time.Now())

	if _, err := s.bun.NewInsert().Model(toMessageRow(msg)).Exec(ctx); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *PostgresStore) GetMessage(ctx context.Context, id string) (msg *models.Message, err error) {
	defer func(start time.Time) { observe(driverPostgres, "get_message", start, err) }(time.Now())

	var row messageRow
	if err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "select message")
	}
	m := row.model()
	return &m, nil
}

// ListDirectMessages returns the conversation between two users, oldest first.
func (s *PostgresStore) ListDirectMessages(ctx context.Context, userA, userB string) (out []models.Message, err error) {
	defer func(start time.Time) { observe(driverPostgres, "list_direct_messages", start, err) }(time.Now())

	var rows []messageRow
	err = s.bun.NewSelect().
		Model(&rows).
		Where("group_id IS NULL").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("sender_id = ? AND receiver_id = ?", userA, userB).
				WhereOr("sender_id = ? AND receiver_id = ?", userB, userA)
		}).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select direct messages: %w", err)
	}
	return messageModels(rows), nil
}

// ListGroupMessages returns a group's messages, oldest first.
func (s *PostgresStore) ListGroupMessages(ctx context.Context, groupID string) (out []models.Message, err error) {
	defer func(start time.Time) { observe(driverPostgres, "list_group_messages", start, err) }(time.Now())

	var rows []messageRow
	err = s.bun.NewSelect().
		Model(&rows).
		Where("group_id = ?", groupID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select group messages: %w", err)
	}
	return messageModels(rows), nil
}

// UpdateReactions replaces a message's reactions.
func (s *PostgresStore) UpdateReactions(ctx context.Context, messageID string, reactions []models.Reaction, at time.Time) (err error) {
	defer func(start time.Time) { observe(driverPostgres, "update_reactions", start, err) }(time.Now())

	row := &messageRow{ID: messageID, Reactions: reactions, UpdatedAt: at}
	res, err := s.bun.NewUpdate().Model(row).Column("reactions", "updated_at").WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update reactions: %w", err)
	}
	return requireRow(res)
}

// CreateGroup inserts a group.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) (err error) {
	defer func(start time.Time) { observe(driverPostgres, "create_group", start, err) }(time.Now())

	if _, err := s.bun.NewInsert().Model(toGroupRow(group)).Exec(ctx); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *PostgresStore) GetGroup(ctx context.Context, id string) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverPostgres, "get_group", start, err) }(time.Now())

	var row groupRow
	if err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "select group")
	}
	g := row.model()
	return &g, nil
}

// ListGroupsForUser returns every group userID belongs to, most recently
// active first.
func (s *PostgresStore) ListGroupsForUser(ctx context.Context, userID string) (out []models.Group, err error) {
	defer func(start time.Time) { observe(driverPostgres, "list_groups", start, err) }(time.Now())

	var rows []groupRow
	err = s.bun.NewSelect().
		Model(&rows).
		Where("? = ANY(members)", userID).
		Order("last_activity DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select groups: %w", err)
	}

	out = make([]models.Group, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// AddGroupMember appends userID to the group's members under a row lock.
func (s *PostgresStore) AddGroupMember(ctx context.Context, groupID, userID string, at time.Time) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverPostgres, "add_group_member", start, err) }(time.Now())

	var row groupRow
	err = s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(&row).Where("id = ?", groupID).For("UPDATE").Scan(ctx); err != nil {
			return notFound(err, "select group")
		}
		g := row.model()
		if g.HasMember(userID) {
			return nil
		}
		row.Members = append(row.Members, userID)
		row.UpdatedAt = at
		row.LastActivity = at
		_, err := tx.NewUpdate().Model(&row).Column("members", "updated_at", "last_activity").WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	g := row.model()
	return &g, nil
}

// RenameGroup sets a group's name.
func (s *PostgresStore) RenameGroup(ctx context.Context, groupID, name string, at time.Time) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverPostgres, "rename_group", start, err) }(time.Now())

	var row groupRow
	err = s.bun.NewUpdate().
		Model(&row).
		Set("name = ?", name).
		Set("updated_at = ?", at).
		Set("last_activity = ?", at).
		Where("id = ?", groupID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "update group name")
	}
	g := row.model()
	return &g, nil
}

// RemoveGroupMember drops userID from the group's members under a row lock.
func (s *PostgresStore) RemoveGroupMember(ctx context.Context, groupID, userID string, at time.Time) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverPostgres, "remove_group_member", start, err) }(time.Now())

	var row groupRow
	err = s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(&row).Where("id = ?", groupID).For("UPDATE").Scan(ctx); err != nil {
			return notFound(err, "select group")
		}
		g := row.model()
		if !g.HasMember(userID) {
			return nil
		}
		row.Members = g.MembersExcept(userID)
		row.UpdatedAt = at
		row.LastActivity = at
		_, err := tx.NewUpdate().Model(&row).Column("members", "updated_at", "last_activity").WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	g := row.model()
	return &g, nil
}

// DeleteGroup removes a group row. Rows referencing it are kept.
func (s *PostgresStore) DeleteGroup(ctx context.Context, groupID string) (err error) {
	defer func(start time.Time) { observe(driverPostgres, "delete_group", start, err) }(time.Now())

	res, err := s.bun.NewDelete().Model((*groupRow)(nil)).Where("id = ?", groupID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireRow(res)
}

// CreateExpense inserts an expense; a group expense also bumps the group's
// running total in the same transaction.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) (err error) {
	defer func(start time.Time) { observe(driverPostgres, "create_expense", start, err) }(time.Now())

	return s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if expense.GroupID != "" {
			res, err := tx.NewUpdate().
				Model((*groupRow)(nil)).
				Set("total_expenses = total_expenses + ?", expense.Amount).
				Set("last_activity = ?", expense.CreatedAt).
				Set("updated_at = ?", expense.CreatedAt).
				Where("id = ?", expense.GroupID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update group total: %w", err)
			}
			if err := requireRow(res); err != nil {
				return err
			}
		}
		if _, err := tx.NewInsert().Model(toExpenseRow(expense)).Exec(ctx); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		return nil
	})
}

// ListExpenses returns matching expenses, most recent date first.
func (s *PostgresStore) ListExpenses(ctx context.Context, filter ExpenseFilter) (out []models.Expense, err error) {
	defer func(start time.Time) { observe(driverPostgres, "list_expenses", start, err) }(time.Now())

	var rows []expenseRow
	q := s.bun.NewSelect().Model(&rows).Order("date DESC", "id DESC")
	if filter.GroupID != "" {
		q = q.Where("group_id = ?", filter.GroupID)
	} else {
		q = q.Where("created_by = ?", filter.CreatedBy)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}

	out = make([]models.Expense, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// GetExpense retrieves an expense by ID.
func (s *PostgresStore) GetExpense(ctx context.Context, id string) (expense *models.Expense, err error) {
	defer func(start time.Time) { observe(driverPostgres, "get_expense", start, err) }(time.Now())

	var row expenseRow
	if err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "select expense")
	}
	e := row.model()
	return &e, nil
}

// UpdateExpenseStatus sets an expense's status.
func (s *PostgresStore) UpdateExpenseStatus(ctx context.Context, id, status string) (expense *models.Expense, err error) {
	defer func(start time.Time) { observe(driverPostgres, "update_expense_status", start, err) }(time.Now())

	row := &expenseRow{ID: id, Status: status}
	return s.updateExpense(ctx, row, "status")
}

// SetExpenseShares replaces how an expense is split.
func (s *PostgresStore) SetExpenseShares(ctx context.Context, id string, shares []models.ExpenseShare) (expense *models.Expense, err error) {
	defer func(start time.Time) { observe(driverPostgres, "set_expense_shares", start, err) }(time.Now())

	row := &expenseRow{ID: id, SharedWith: shares}
	return s.updateExpense(ctx, row, "shared_with")
}

func (s *PostgresStore) updateExpense(ctx context.Context, row *expenseRow, column string) (*models.Expense, error) {
	err := s.bun.NewUpdate().Model(row).Column(column).WherePK().Returning("*").Scan(ctx)
	if err != nil {
		return nil, notFound(err, "update expense "+column)
	}
	e := row.model()
	return &e, nil
}

// CreateTrip inserts a trip.
func (s *PostgresStore) CreateTrip(ctx context.Context, trip *models.Trip) (err error) {
	defer func(start time.Time) { observe(driverPostgres, "create_trip", start, err) }(time.Now())

	if _, err := s.bun.NewInsert().Model(toTripRow(trip)).Exec(ctx); err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

// ListTrips returns trips created by the user or attached to the given
// groups, ordered by start date.
func (s *PostgresStore) ListTrips(ctx context.Context, filter TripFilter) (out []models.Trip, err error) {
	defer func(start time.Time) { observe(driverPostgres, "list_trips", start, err) }(time.Now())

	var rows []tripRow
	err = s.bun.NewSelect().
		Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.WhereOr("created_by = ?", filter.CreatedBy)
			if len(filter.GroupIDs) > 0 {
				q = q.WhereOr("group_id IN (?)", bun.In(filter.GroupIDs))
			}
			return q
		}).
		Order("start_date ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select trips: %w", err)
	}

	out = make([]models.Trip, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// CreateNotifications inserts the batch with a single statement, so either
// every row is written or none is.
func (s *PostgresStore) CreateNotifications(ctx context.Context, notifications []models.Notification) (err error) {
	defer func(start time.Time) { observe(driverPostgres, "create_notifications", start, err) }(time.Now())

	if len(notifications) == 0 {
		return nil
	}
	rows := make([]notificationRow, len(notifications))
	for i := range notifications {
		rows[i] = toNotificationRow(&notifications[i])
	}
	if _, err := s.bun.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *PostgresStore) ListNotifications(ctx context.Context, userID string) (out []models.Notification, err error) {
	defer func(start time.Time) { observe(driverPostgres, "list_notifications", start, err) }(time.Now())

	var rows []notificationRow
	err = s.bun.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}

	out = make([]models.Notification, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// MarkNotificationRead marks one of userID's notifications as read.
func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, id string) (n *models.Notification, err error) {
	defer func(start time.Time) { observe(driverPostgres, "mark_notification_read", start, err) }(time.Now())

	var row notificationRow
	err = s.bun.NewUpdate().
		Model(&row).
		Set("read = TRUE").
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "update notification")
	}
	m := row.model()
	return &m, nil
}

// MarkAllNotificationsRead marks every unread notification of userID as read.
func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, userID string) (count int, err error) {
	defer func(start time.Time) { observe(driverPostgres, "mark_all_notifications_read", start, err) }(time.Now())

	res, err := s.bun.NewUpdate().
		Model((*notificationRow)(nil)).
		Set("read = TRUE").
		Where("user_id = ?", userID).
		Where("read = FALSE").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("update notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// CountUnreadNotifications counts userID's unread notifications.
func (s *PostgresStore) CountUnreadNotifications(ctx context.Context, userID string) (count int, err error) {
	defer func(start time.Time) { observe(driverPostgres, "count_unread_notifications", start, err) }(time.Now())

	count, err = s.bun.NewSelect().
		Model((*notificationRow)(nil)).
		Where("user_id = ?", userID).
		Where("read = FALSE").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

// DeleteReadNotificationsBefore removes read notifications older than cutoff.
func (s *PostgresStore) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (count int, err error) {
	defer func(start time.Time) { observe(driverPostgres, "delete_read_notifications", start, err) }(time.Now())

	res, err := s.bun.NewDelete().
		Model((*notificationRow)(nil)).
		Where("read = TRUE").
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func messageModels(rows []messageRow) []models.Message {
	out := make([]models.Message, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps anything else.
func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
