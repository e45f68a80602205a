// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ykravets/contactd/internal/filter"
	"github.com/ykravets/contactd/internal/models"
)

// ContactFilter is the filterable-field whitelist for the contacts
// resource. Built once at init and treated as immutable configuration.
var ContactFilter = filter.MustSpec("contacts", map[string]filter.FieldRule{
	"first_name": {Type: filter.String, Ops: textOps},
	"last_name":  {Type: filter.String, Ops: textOps},
	"email":      {Type: filter.String, Ops: textOps},
	"phone":      {Type: filter.String, Ops: textOps},
	"updated_at": {Type: filter.Date, Ops: dateOps},
	"created_at": {Type: filter.Date, Ops: dateOps},
	"birthday":   {Type: filter.Date, Ops: dateOps},
})

var (
	textOps = []filter.Op{filter.OpEq, filter.OpIn, filter.OpLike, filter.OpStartsWith, filter.OpContains}
	dateOps = []filter.Op{filter.OpBetween, filter.OpEq, filter.OpGt, filter.OpLt, filter.OpIn}
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the requesting user.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an insert or update trips a unique
// email constraint. Callers precheck for the friendlier message; this
// covers the write race the precheck leaves open.
var ErrDuplicateEmail = errors.New("duplicate email")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// AllUsers disables the ownership predicate on read queries. Write
// queries always require a concrete owner.
const AllUsers int64 = 0

// buildListContactsQuery renders the scoped, filtered, paginated list
// statement. Ownership is always the first predicate; filter placeholders
// start after it.
func buildListContactsQuery(userID int64, req filter.Request, skip, limit int) (string, []any) {
	if userID == AllUsers {
		where, filterArgs := filter.WhereClause(req, 1)
		n := len(filterArgs)
		query := fmt.Sprintf(
			"SELECT * FROM contacts WHERE %s ORDER BY id OFFSET $%d LIMIT $%d",
			where, n+1, n+2)
		return query, append(filterArgs, skip, limit)
	}

	where, filterArgs := filter.WhereClause(req, 2)
	args := append([]any{userID}, filterArgs...)

	n := len(args)
	query := fmt.Sprintf(
		"SELECT * FROM contacts WHERE user_id = $1 AND %s ORDER BY id OFFSET $%d LIMIT $%d",
		where, n+1, n+2)
	args = append(args, skip, limit)
	return query, args
}

// ListContacts returns the user's contacts matching the parsed filter,
// ordered by id, with offset pagination.
func (db *DB) ListContacts(ctx context.Context, userID int64, req filter.Request, skip, limit int) ([]models.Contact, error) {
	query, args := buildListContactsQuery(userID, req, skip, limit)

	contacts := []models.Contact{}
	if err := db.conn.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// GetContactByID returns one contact owned by the user, or any contact
// when userID is AllUsers.
func (db *DB) GetContactByID(ctx context.Context, contactID, userID int64) (*models.Contact, error) {
	var contact models.Contact
	var err error
	if userID == AllUsers {
		err = db.conn.GetContext(ctx, &contact,
			"SELECT * FROM contacts WHERE id = $1", contactID)
	} else {
		err = db.conn.GetContext(ctx, &contact,
			"SELECT * FROM contacts WHERE id = $1 AND user_id = $2", contactID, userID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact %d: %w", contactID, err)
	}
	return &contact, nil
}

// GetContactByEmail returns the user's contact with the given email.
func (db *DB) GetContactByEmail(ctx context.Context, email string, userID int64) (*models.Contact, error) {
	var contact models.Contact
	err := db.conn.GetContext(ctx, &contact,
		"SELECT * FROM contacts WHERE email = $1 AND user_id = $2", email, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by email: %w", err)
	}
	return &contact, nil
}

// GetContactByEmailExcludingID checks email uniqueness for updates: it
// looks for another contact of the same user already using the email.
func (db *DB) GetContactByEmailExcludingID(ctx context.Context, email string, contactID, userID int64) (*models.Contact, error) {
	var contact models.Contact
	err := db.conn.GetContext(ctx, &contact,
		"SELECT * FROM contacts WHERE email = $1 AND id <> $2 AND user_id = $3",
		email, contactID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check contact email: %w", err)
	}
	return &contact, nil
}

// CreateContact inserts a contact for the user and returns the stored row.
func (db *DB) CreateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	var created models.Contact
	err := db.conn.GetContext(ctx, &created,
		`INSERT INTO contacts (first_name, last_name, email, phone, birthday, description, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING *`,
		contact.FirstName, contact.LastName, contact.Email,
		contact.Phone, contact.Birthday, contact.Description, contact.UserID)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return &created, nil
}

// UpdateContact overwrites the mutable fields of a contact owned by the
// user and returns the stored row.
func (db *DB) UpdateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	var updated models.Contact
	err := db.conn.GetContext(ctx, &updated,
		`UPDATE contacts
		 SET first_name = $1, last_name = $2, email = $3, phone = $4,
		     birthday = $5, description = $6, updated_at = NOW()
		 WHERE id = $7 AND user_id = $8
		 RETURNING *`,
		contact.FirstName, contact.LastName, contact.Email, contact.Phone,
		contact.Birthday, contact.Description, contact.ID, contact.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update contact %d: %w", contact.ID, err)
	}
	return &updated, nil
}

// DeleteContact removes a contact owned by the user and returns the
// deleted row.
func (db *DB) DeleteContact(ctx context.Context, contactID, userID int64) (*models.Contact, error) {
	var deleted models.Contact
	err := db.conn.GetContext(ctx, &deleted,
		"DELETE FROM contacts WHERE id = $1 AND user_id = $2 RETURNING *",
		contactID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete contact %d: %w", contactID, err)
	}
	return &deleted, nil
}

// birthdayWindow computes the inclusive MM-DD bounds for a lookahead of
// days from now. When the window crosses a month boundary into a smaller
// month value (including year end), matching flips from AND to OR.
func birthdayWindow(now time.Time, days int) (start, end string, wraps bool) {
	delta := now.AddDate(0, 0, days)
	return now.Format("01-02"), delta.Format("01-02"), now.Month() > delta.Month()
}

// buildUpcomingBirthdaysQuery renders the birthday-window statement. The
// window is compared textually against to_char(birthday, 'MM-DD') so years
// never participate.
func buildUpcomingBirthdaysQuery(now time.Time, days int) (string, []string) {
	start, end, wraps := birthdayWindow(now, days)
	comb := "AND"
	if wraps {
		comb = "OR"
	}
	query := fmt.Sprintf(
		`SELECT * FROM contacts
		 WHERE user_id = $1
		   AND (to_char(birthday, 'MM-DD') >= $2 %s to_char(birthday, 'MM-DD') <= $3)
		 ORDER BY id OFFSET $4 LIMIT $5`, comb)
	return query, []string{start, end}
}

// UpcomingBirthdays returns the user's contacts whose birthday falls
// within the next days days, year-boundary wraparound included.
func (db *DB) UpcomingBirthdays(ctx context.Context, userID int64, skip, limit, days int) ([]models.Contact, error) {
	query, window := buildUpcomingBirthdaysQuery(time.Now().UTC(), days)

	contacts := []models.Contact{}
	err := db.conn.SelectContext(ctx, &contacts, query, userID, window[0], window[1], skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming birthdays: %w", err)
	}
	return contacts, nil
}
