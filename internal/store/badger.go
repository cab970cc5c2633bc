// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/models"
)

const driverBadger = "badger"

// Key prefixes for BadgerDB storage. Records live under <kind>:<id>; the
// *_by_* prefixes are secondary indexes whose values are record ids and whose
// keys embed a zero-padded nanosecond timestamp for ordering.
const (
	messageKeyPrefix       = "msg:"
	messageDirectIdxPrefix = "msg_by_pair:"
	messageGroupIdxPrefix  = "msg_by_group:"
	groupKeyPrefix         = "grp:"
	groupMemberIdxPrefix   = "grp_by_member:"
	expenseKeyPrefix       = "exp:"
	expenseUserIdxPrefix   = "exp_by_user:"
	expenseGroupIdxPrefix  = "exp_by_group:"
	tripKeyPrefix          = "trip:"
	tripUserIdxPrefix      = "trip_by_user:"
	tripGroupIdxPrefix     = "trip_by_group:"
	notificationKeyPrefix  = "ntf:"
	notificationIdxPrefix  = "ntf_by_user:"
)

// maxConflictRetries bounds retries of read-modify-write transactions that
// lose an optimistic concurrency race.
const maxConflictRetries = 5

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at path. With inMemory set the
// path is ignored and nothing touches disk.
func OpenBadger(path string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	logging.Info().
		Str("component", "store").
		Str("driver", driverBadger).
		Str("path", path).
		Bool("in_memory", inMemory).
		Msg("store opened")

	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already open BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Ping reports whether the database is open.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// CreateMessage stores a message and indexes it by conversation or group.
func (s *BadgerStore) CreateMessage(ctx context.Context, msg *models.Message) (err error) {
	defer func(start time.Time) { observe(driverBadger, "create_message", start, err) }(time.Now())

	var idxKey string
	if msg.IsGroupMessage() {
		idxKey = messageGroupIdxPrefix + msg.GroupID + ":" + sortKey(msg.CreatedAt, msg.ID)
	} else {
		idxKey = messageDirectIdxPrefix + pairKey(msg.SenderID, msg.ReceiverID) + ":" + sortKey(msg.CreatedAt, msg.ID)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, messageKeyPrefix+msg.ID, msg); err != nil {
			return fmt.Errorf("set message: %w", err)
		}
		return txn.Set([]byte(idxKey), []byte(msg.ID))
	})
}

// GetMessage retrieves a message by ID.
func (s *BadgerStore) GetMessage(ctx context.Context, id string) (msg *models.Message, err error) {
	defer func(start time.Time) { observe(driverBadger, "get_message", start, err) }(time.Now())

	msg = &models.Message{}
	err = s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, messageKeyPrefix+id, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListDirectMessages returns the conversation between two users, oldest first.
func (s *BadgerStore) ListDirectMessages(ctx context.Context, userA, userB string) (out []models.Message, err error) {
	defer func(start time.Time) { observe(driverBadger, "list_direct_messages", start, err) }(time.Now())

	err = s.db.View(func(txn *badger.Txn) error {
		return scanIndex(txn, messageDirectIdxPrefix+pairKey(userA, userB)+":", false, messageKeyPrefix,
			func(m *models.Message) bool {
				return !m.IsGroupMessage() &&
					((m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA))
			}, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list direct messages: %w", err)
	}
	return out, nil
}

// ListGroupMessages returns a group's messages, oldest first.
func (s *BadgerStore) ListGroupMessages(ctx context.Context, groupID string) (out []models.Message, err error) {
	defer func(start time.Time) { observe(driverBadger, "list_group_messages", start, err) }(time.Now())

	err = s.db.View(func(txn *badger.Txn) error {
		return scanIndex(txn, messageGroupIdxPrefix+groupID+":", false, messageKeyPrefix,
			func(m *models.Message) bool { return m.GroupID == groupID }, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	return out, nil
}

// UpdateReactions replaces a message's reactions.
func (s *BadgerStore) UpdateReactions(ctx context.Context, messageID string, reactions []models.Reaction, at time.Time) (err error) {
	defer func(start time.Time) { observe(driverBadger, "update_reactions", start, err) }(time.Now())

	return s.updateWithRetry(func(txn *badger.Txn) error {
		var msg models.Message
		if err := getJSON(txn, messageKeyPrefix+messageID, &msg); err != nil {
			return err
		}
		msg.Reactions = reactions
		msg.UpdatedAt = at
		return setJSON(txn, messageKeyPrefix+messageID, &msg)
	})
}

// CreateGroup stores a group and indexes it under each member.
func (s *BadgerStore) CreateGroup(ctx context.Context, group *models.Group) (err error) {
	defer func(start time.Time) { observe(driverBadger, "create_group", start, err) }(time.Now())

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, groupKeyPrefix+group.ID, group); err != nil {
			return fmt.Errorf("set group: %w", err)
		}
		for _, member := range group.Members {
			if err := txn.Set([]byte(groupMemberIdxPrefix+member+":"+group.ID), []byte(group.ID)); err != nil {
				return fmt.Errorf("set member index: %w", err)
			}
		}
		return nil
	})
}

// GetGroup retrieves a group by ID.
func (s *BadgerStore) GetGroup(ctx context.Context, id string) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverBadger, "get_group", start, err) }(time.Now())

	group = &models.Group{}
	err = s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, groupKeyPrefix+id, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser returns every group userID belongs to, most recently
// active first.
func (s *BadgerStore) ListGroupsForUser(ctx context.Context, userID string) (out []models.Group, err error) {
	defer func(start time.Time) { observe(driverBadger, "list_groups", start, err) }(time.Now())

	err = s.db.View(func(txn *badger.Txn) error {
		return scanIndex(txn, groupMemberIdxPrefix+userID+":", false, groupKeyPrefix,
			func(g *models.Group) bool { return g.HasMember(userID) }, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

// AddGroupMember appends userID to the group's members.
func (s *BadgerStore) AddGroupMember(ctx context.Context, groupID, userID string, at time.Time) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverBadger, "add_group_member", start, err) }(time.Now())

	group = &models.Group{}
	err = s.updateWithRetry(func(txn *badger.Txn) error {
		if err := getJSON(txn, groupKeyPrefix+groupID, group); err != nil {
			return err
		}
		if group.HasMember(userID) {
			return nil
		}
		group.Members = append(group.Members, userID)
		group.UpdatedAt = at
		group.LastActivity = at
		if err := setJSON(txn, groupKeyPrefix+groupID, group); err != nil {
			return err
		}
		return txn.Set([]byte(groupMemberIdxPrefix+userID+":"+groupID), []byte(groupID))
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// RenameGroup sets a group's name.
func (s *BadgerStore) RenameGroup(ctx context.Context, groupID, name string, at time.Time) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverBadger, "rename_group", start, err) }(time.Now())

	group = &models.Group{}
	err = s.updateWithRetry(func(txn *badger.Txn) error {
		if err := getJSON(txn, groupKeyPrefix+groupID, group); err != nil {
			return err
		}
		group.Name = name
		group.UpdatedAt = at
		group.LastActivity = at
		return setJSON(txn, groupKeyPrefix+groupID, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveGroupMember drops userID from the group's members and its membership
// index entry.
func (s *BadgerStore) RemoveGroupMember(ctx context.Context, groupID, userID string, at time.Time) (group *models.Group, err error) {
	defer func(start time.Time) { observe(driverBadger, "remove_group_member", start, err) }(time.Now())

	group = &models.Group{}
	err = s.updateWithRetry(func(txn *badger.Txn) error {
		if err := getJSON(txn, groupKeyPrefix+groupID, group); err != nil {
			return err
		}
		if !group.HasMember(userID) {
			return nil
		}
		group.Members = group.MembersExcept(userID)
		group.UpdatedAt = at
		group.LastActivity = at
		if err := setJSON(txn, groupKeyPrefix+groupID, group); err != nil {
			return err
		}
		return txn.Delete([]byte(groupMemberIdxPrefix + userID + ":" + groupID))
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group and every member's index entry. The group's
// messages, expenses and trips are kept.
func (s *BadgerStore) DeleteGroup(ctx context.Context, groupID string) (err error) {
	defer func(start time.Time) { observe(driverBadger, "delete_group", start, err) }(time.Now())

	return s.updateWithRetry(func(txn *badger.Txn) error {
		var group models.Group
		if err := getJSON(txn, groupKeyPrefix+groupID, &group); err != nil {
			return err
		}
		for _, member := range group.Members {
			if err := txn.Delete([]byte(groupMemberIdxPrefix + member + ":" + groupID)); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(groupKeyPrefix + groupID))
	})
}

// CreateExpense stores an expense. A group expense also bumps the group's
// total and last activity; a missing group fails the whole write.
func (s *BadgerStore) CreateExpense(ctx context.Context, expense *models.Expense) (err error) {
	defer func(start time.Time) { observe(driverBadger, "create_expense", start, err) }(time.Now())

	return s.updateWithRetry(func(txn *badger.Txn) error {
		if expense.GroupID != "" {
			var group models.Group
			if err := getJSON(txn, groupKeyPrefix+expense.GroupID, &group); err != nil {
				return err
			}
			group.TotalExpenses += expense.Amount
			group.LastActivity = expense.CreatedAt
			group.UpdatedAt = expense.CreatedAt
			if err := setJSON(txn, groupKeyPrefix+group.ID, &group); err != nil {
				return err
			}
			if err := txn.Set([]byte(expenseGroupIdxPrefix+expense.GroupID+":"+sortKey(expense.Date, expense.ID)), []byte(expense.ID)); err != nil {
				return err
			}
		}

		if err := setJSON(txn, expenseKeyPrefix+expense.ID, expense); err != nil {
			return fmt.Errorf("set expense: %w", err)
		}
		return txn.Set([]byte(expenseUserIdxPrefix+expense.CreatedBy+":"+sortKey(expense.Date, expense.ID)), []byte(expense.ID))
	})
}

// GetExpense retrieves an expense by ID.
func (s *BadgerStore) GetExpense(ctx context.Context, id string) (expense *models.Expense, err error) {
	defer func(start time.Time) { observe(driverBadger, "get_expense", start, err) }(time.Now())

	expense = &models.Expense{}
	err = s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, expenseKeyPrefix+id, expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpenseStatus sets an expense's status.
func (s *BadgerStore) UpdateExpenseStatus(ctx context.Context, id, status string) (expense *models.Expense, err error) {
	defer func(start time.Time) { observe(driverBadger, "update_expense_status", start, err) }(time.Now())

	return s.updateExpense(id, func(e *models.Expense) { e.Status = status })
}

// SetExpenseShares replaces how an expense is split.
func (s *BadgerStore) SetExpenseShares(ctx context.Context, id string, shares []models.ExpenseShare) (expense *models.Expense, err error) {
	defer func(start time.Time) { observe(driverBadger, "set_expense_shares", start, err) }(time.Now())

	return s.updateExpense(id, func(e *models.Expense) { e.SharedWith = shares })
}

func (s *BadgerStore) updateExpense(id string, mutate func(*models.Expense)) (*models.Expense, error) {
	var expense models.Expense
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		expense = models.Expense{}
		if err := getJSON(txn, expenseKeyPrefix+id, &expense); err != nil {
			return err
		}
		mutate(&expense)
		return setJSON(txn, expenseKeyPrefix+id, &expense)
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// ListExpenses returns matching expenses, most recent date first.
func (s *BadgerStore) ListExpenses(ctx context.Context, filter ExpenseFilter) (out []models.Expense, err error) {
	defer func(start time.Time) { observe(driverBadger, "list_expenses", start, err) }(time.Now())

	err = s.db.View(func(txn *badger.Txn) error {
		if filter.GroupID != "" {
			return scanIndex(txn, expenseGroupIdxPrefix+filter.GroupID+":", true, expenseKeyPrefix,
				func(e *models.Expense) bool { return e.GroupID == filter.GroupID }, &out)
		}
		return scanIndex(txn, expenseUserIdxPrefix+filter.CreatedBy+":", true, expenseKeyPrefix,
			func(e *models.Expense) bool { return e.CreatedBy == filter.CreatedBy }, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// CreateTrip stores a trip indexed by creator and group.
func (s *BadgerStore) CreateTrip(ctx context.Context, trip *models.Trip) (err error) {
	defer func(start time.Time) { observe(driverBadger, "create_trip", start, err) }(time.Now())

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, tripKeyPrefix+trip.ID, trip); err != nil {
			return fmt.Errorf("set trip: %w", err)
		}
		if err := txn.Set([]byte(tripUserIdxPrefix+trip.CreatedBy+":"+trip.ID), []byte(trip.ID)); err != nil {
			return err
		}
		if trip.GroupID != "" {
			return txn.Set([]byte(tripGroupIdxPrefix+trip.GroupID+":"+trip.ID), []byte(trip.ID))
		}
		return nil
	})
}

// ListTrips returns trips created by the user or attached to the given
// groups, ordered by start date.
func (s *BadgerStore) ListTrips(ctx context.Context, filter TripFilter) (out []models.Trip, err error) {
	defer func(start time.Time) { observe(driverBadger, "list_trips", start, err) }(time.Now())

	seen := make(map[string]struct{})
	collect := func(trips []models.Trip) {
		for _, t := range trips {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}

	err = s.db.View(func(txn *badger.Txn) error {
		if filter.CreatedBy != "" {
			var mine []models.Trip
			if err := scanIndex(txn, tripUserIdxPrefix+filter.CreatedBy+":", false, tripKeyPrefix,
				func(t *models.Trip) bool { return t.CreatedBy == filter.CreatedBy }, &mine); err != nil {
				return err
			}
			collect(mine)
		}
		for _, groupID := range filter.GroupIDs {
			var shared []models.Trip
			gid := groupID
			if err := scanIndex(txn, tripGroupIdxPrefix+gid+":", false, tripKeyPrefix,
				func(t *models.Trip) bool { return t.GroupID == gid }, &shared); err != nil {
				return err
			}
			collect(shared)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

// CreateNotifications writes the batch in one transaction.
func (s *BadgerStore) CreateNotifications(ctx context.Context, notifications []models.Notification) (err error) {
	defer func(start time.Time) { observe(driverBadger, "create_notifications", start, err) }(time.Now())

	if len(notifications) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for i := range notifications {
			n := &notifications[i]
			if err := setJSON(txn, notificationKeyPrefix+n.ID, n); err != nil {
				return fmt.Errorf("set notification: %w", err)
			}
			if err := txn.Set([]byte(notificationIndexKey(n)), []byte(n.ID)); err != nil {
				return fmt.Errorf("set notification index: %w", err)
			}
		}
		return nil
	})
}

// ListNotifications returns a user's notifications, newest first.
func (s *BadgerStore) ListNotifications(ctx context.Context, userID string) (out []models.Notification, err error) {
	defer func(start time.Time) { observe(driverBadger, "list_notifications", start, err) }(time.Now())

	err = s.db.View(func(txn *badger.Txn) error {
		return scanIndex(txn, notificationIdxPrefix+userID+":", true, notificationKeyPrefix,
			func(n *models.Notification) bool { return n.UserID == userID }, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead marks one of userID's notifications as read.
func (s *BadgerStore) MarkNotificationRead(ctx context.Context, userID, id string) (n *models.Notification, err error) {
	defer func(start time.Time) { observe(driverBadger, "mark_notification_read", start, err) }(time.Now())

	n = &models.Notification{}
	err = s.updateWithRetry(func(txn *badger.Txn) error {
		if err := getJSON(txn, notificationKeyPrefix+id, n); err != nil {
			return err
		}
		if n.UserID != userID {
			return ErrNotFound
		}
		if n.Read {
			return nil
		}
		n.Read = true
		return setJSON(txn, notificationKeyPrefix+id, n)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MarkAllNotificationsRead marks every unread notification of userID as read
// and returns how many changed.
func (s *BadgerStore) MarkAllNotificationsRead(ctx context.Context, userID string) (count int, err error) {
	defer func(start time.Time) { observe(driverBadger, "mark_all_notifications_read", start, err) }(time.Now())

	err = s.updateWithRetry(func(txn *badger.Txn) error {
		count = 0
		var all []models.Notification
		if err := scanIndex(txn, notificationIdxPrefix+userID+":", false, notificationKeyPrefix,
			func(n *models.Notification) bool { return n.UserID == userID && !n.Read }, &all); err != nil {
			return err
		}
		for i := range all {
			all[i].Read = true
			if err := setJSON(txn, notificationKeyPrefix+all[i].ID, &all[i]); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return count, nil
}

// CountUnreadNotifications counts userID's unread notifications.
func (s *BadgerStore) CountUnreadNotifications(ctx context.Context, userID string) (count int, err error) {
	defer func(start time.Time) { observe(driverBadger, "count_unread_notifications", start, err) }(time.Now())

	var unread []models.Notification
	err = s.db.View(func(txn *badger.Txn) error {
		return scanIndex(txn, notificationIdxPrefix+userID+":", false, notificationKeyPrefix,
			func(n *models.Notification) bool { return n.UserID == userID && !n.Read }, &unread)
	})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return len(unread), nil
}

// DeleteReadNotificationsBefore removes read notifications older than cutoff.
func (s *BadgerStore) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (count int, err error) {
	defer func(start time.Time) { observe(driverBadger, "delete_read_notifications", start, err) }(time.Now())

	var keys [][]byte
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(notificationKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var n models.Notification
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return err
			}
			if n.Read && n.CreatedAt.Before(cutoff) {
				keys = append(keys, it.Item().KeyCopy(nil), []byte(notificationIndexKey(&n)))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan notifications: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete notification: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush notification deletes: %w", err)
	}
	return len(keys) / 2, nil
}

// updateWithRetry runs fn in a read-write transaction, retrying when another
// writer committed a conflicting change first.
func (s *BadgerStore) updateWithRetry(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// scanIndex walks an index prefix, loads each referenced record and appends
// those accepted by keep. Dangling index entries are skipped.
func scanIndex[T any](txn *badger.Txn, prefix string, reverse bool, recordPrefix string, keep func(*T) bool, out *[]T) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.Reverse = reverse
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := []byte(prefix)
	if reverse {
		seek = append(seek, 0xFF)
	}

	for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
		id, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}

		var rec T
		if err := getJSON(txn, recordPrefix+string(id), &rec); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		if keep(&rec) {
			*out = append(*out, rec)
		}
	}
	return nil
}

// Bounds of UnixNano; index keys clamp times outside them.
var (
	minIndexTime = time.Unix(0, math.MinInt64)
	maxIndexTime = time.Unix(0, math.MaxInt64)
)

// sortKey orders index entries by time, then id. The signed nanosecond
// timestamp is shifted into the unsigned range so times before 1970 sort
// first and every key has the same width.
func sortKey(t time.Time, id string) string {
	var nanos int64
	switch {
	case t.Before(minIndexTime):
		nanos = math.MinInt64
	case t.After(maxIndexTime):
		nanos = math.MaxInt64
	default:
		nanos = t.UnixNano()
	}
	return fmt.Sprintf("%020d:%s", uint64(nanos)^(1<<63), id)
}

// pairKey is the same for (a, b) and (b, a).
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func notificationIndexKey(n *models.Notification) string {
	return notificationIdxPrefix + n.UserID + ":" + sortKey(n.CreatedAt, n.ID)
}
