package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

const attendanceColumns = `id, user_id, item_id, check_in_time, check_out_time, status`

func scanAttendance(row rowScanner) (*model.Attendance, error) {
	a := &model.Attendance{}
	if err := row.Scan(&a.ID, &a.UserID, &a.ItemID, &a.CheckInTime, &a.CheckOutTime, &a.Status); err != nil {
		return nil, err
	}
	return a, nil
}

func openAttendance(ctx context.Context, q Querier, userID int64) (*model.Attendance, error) {
	a, err := scanAttendance(q.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE user_id = ? AND status = ?`,
		userID, model.StatusCheckedIn,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting open attendance: %w", err)
	}
	return a, nil
}

// CheckIn opens a session for userID. A user has at most one open session;
// the partial unique index on attendance backs the check below.
func CheckIn(ctx context.Context, db *sql.DB, userID int64) (*model.Attendance, error) {
	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		open, err := openAttendance(ctx, tx, userID)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrAlreadyCheckedIn
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO attendance (user_id, check_in_time, status) VALUES (?, ?, ?)`,
			userID, time.Now().UTC(), model.StatusCheckedIn,
		)
		if isUniqueViolation(err) {
			return ErrAlreadyCheckedIn
		}
		if err != nil {
			return fmt.Errorf("checking in: %w", err)
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return GetAttendance(ctx, db, id)
}

// GetAttendance returns an attendance row by ID with its produced item.
func GetAttendance(ctx context.Context, q Querier, id int64) (*model.Attendance, error) {
	a, err := scanAttendance(q.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting attendance: %w", err)
	}
	if a.ItemID != nil {
		a.Item, err = GetItemProduced(ctx, q, *a.ItemID)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// GetCheckInStatus returns the user's open session, or nil.
func GetCheckInStatus(ctx context.Context, db *sql.DB, userID int64) (*model.Attendance, error) {
	return openAttendance(ctx, db, userID)
}

// CheckOut closes the user's open session. Wire deduction, scrap credit,
// production record and the attendance update commit together or not at all.
// The request must be normalized and validated.
func CheckOut(ctx context.Context, db *sql.DB, userID int64, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	wireItem := model.WireItem(req.WireUsedType)
	producedKg, err := model.ToKilograms(req.ItemProduced.Quantity, req.ItemProduced.Unit)
	if err != nil {
		return nil, &model.ValidationError{Fields: map[string]string{"itemProduced.unit": err.Error()}}
	}

	var attendanceID, itemID int64
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		open, err := openAttendance(ctx, tx, userID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoActiveCheckIn
		}
		attendanceID = open.ID

		if err := EnsureAvailable(ctx, tx, wireItem, req.WireUsedQuantity); err != nil {
			return err
		}

		now := time.Now().UTC()

		wire := &model.StockEntry{
			ItemName:    wireItem,
			Quantity:    req.WireUsedQuantity.Neg(),
			StockType:   model.StockTypeRaw,
			Category:    model.CategoryWire,
			AddedBy:     userID,
			AddedDate:   now,
			Description: "Wire used for production - " + req.ItemProduced.ItemName,
		}
		if err := insertEntry(ctx, tx, wire, fmt.Sprintf("checkout of attendance #%d", open.ID)); err != nil {
			return err
		}

		var scrap any
		if req.ScrapQuantity.IsPositive() {
			scrap = req.ScrapQuantity.String()
			entry := &model.StockEntry{
				ItemName:    model.ItemScrap,
				Quantity:    req.ScrapQuantity,
				StockType:   model.StockTypeRaw,
				Category:    model.CategoryScrap,
				AddedBy:     userID,
				AddedDate:   now,
				Description: "Scrap from production - " + req.ItemProduced.ItemName,
			}
			if err := insertEntry(ctx, tx, entry, fmt.Sprintf("checkout of attendance #%d", open.ID)); err != nil {
				return err
			}
		}

		var description any
		if req.Description != "" {
			description = req.Description
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO items_produced (attendance_id, user_id, item_name, quantity, unit, production_date,
			 wire_used_type, wire_used_quantity, scrap_quantity, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			open.ID, userID, req.ItemProduced.ItemName, producedKg.String(), model.UnitKilogram, now,
			req.WireUsedType, req.WireUsedQuantity.String(), scrap, description,
		)
		if err != nil {
			return fmt.Errorf("recording production: %w", err)
		}
		itemID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting production id: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE attendance SET item_id = ?, check_out_time = ?, status = ? WHERE id = ? AND status = ?`,
			itemID, now, model.StatusCheckedOut, open.ID, model.StatusCheckedIn,
		)
		if err != nil {
			return fmt.Errorf("checking out: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return ErrNoActiveCheckIn
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	attendance, err := GetAttendance(ctx, db, attendanceID)
	if err != nil {
		return nil, err
	}
	scrapAdded := decimal.Zero
	if req.ScrapQuantity.IsPositive() {
		scrapAdded = req.ScrapQuantity
	}
	return &model.CheckoutResult{
		Attendance:   attendance,
		ItemProduced: attendance.Item,
		WireUsed:     model.WireUsed{Type: wireItem, Quantity: req.WireUsedQuantity},
		ScrapAdded:   scrapAdded,
	}, nil
}

// AttendanceHistory returns a page of the user's sessions, newest first.
func AttendanceHistory(ctx context.Context, db *sql.DB, userID int64, f model.HistoryFilter) ([]model.Attendance, int, error) {
	conds := []string{"user_id = ?"}
	args := []any{userID}
	if f.StartDate != nil {
		conds = append(conds, "check_in_time >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		conds = append(conds, "check_in_time <= ?")
		args = append(args, f.EndDate.UTC())
	}
	where := whereClause(conds)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting attendance: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance`+where+` ORDER BY check_in_time DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, f.Page.Limit, f.Page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing attendance: %w", err)
	}

	history := []model.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scanning attendance: %w", err)
		}
		history = append(history, *a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range history {
		if history[i].ItemID == nil {
			continue
		}
		history[i].Item, err = GetItemProduced(ctx, db, *history[i].ItemID)
		if err != nil {
			return nil, 0, err
		}
	}
	return history, total, nil
}

const producedColumns = `p.id, p.attendance_id, p.user_id, p.item_name, p.quantity, p.unit, p.production_date,
	p.wire_used_type, p.wire_used_quantity, p.scrap_quantity, p.description, COALESCE(u.name, '')`

func scanProduced(row rowScanner) (*model.ItemProduced, error) {
	p := &model.ItemProduced{}
	var scrap decimal.NullDecimal
	var description sql.NullString
	err := row.Scan(&p.ID, &p.AttendanceID, &p.UserID, &p.ItemName, &p.Quantity, &p.Unit, &p.ProductionDate,
		&p.WireUsedType, &p.WireUsedQuantity, &scrap, &description, &p.UserName)
	if err != nil {
		return nil, err
	}
	if scrap.Valid {
		p.ScrapQuantity = &scrap.Decimal
	}
	if description.Valid {
		p.Description = &description.String
	}
	return p, nil
}

// GetItemProduced returns a production record by ID.
func GetItemProduced(ctx context.Context, q Querier, id int64) (*model.ItemProduced, error) {
	p, err := scanProduced(q.QueryRowContext(ctx,
		`SELECT `+producedColumns+` FROM items_produced p LEFT JOIN users u ON u.id = p.user_id WHERE p.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting produced item: %w", err)
	}
	return p, nil
}

// ProductionLog returns production records oldest first.
func ProductionLog(ctx context.Context, db *sql.DB, f model.ProductionFilter) ([]model.ItemProduced, error) {
	var conds []string
	var args []any
	if f.UserID != nil {
		conds = append(conds, "p.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.StartDate != nil {
		conds = append(conds, "p.production_date >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		conds = append(conds, "p.production_date <= ?")
		args = append(args, f.EndDate.UTC())
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+producedColumns+` FROM items_produced p LEFT JOIN users u ON u.id = p.user_id`+
			whereClause(conds)+` ORDER BY p.production_date, p.id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing production: %w", err)
	}
	defer rows.Close()

	items := []model.ItemProduced{}
	for rows.Next() {
		p, err := scanProduced(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning produced item: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// ProducibleItems aggregates production by item name, sorted alphabetically.
func ProducibleItems(ctx context.Context, db *sql.DB) ([]model.ProducibleItem, error) {
	rows, err := db.QueryContext(ctx, `SELECT item_name, quantity, production_date FROM items_produced`)
	if err != nil {
		return nil, fmt.Errorf("reading production: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*model.ProducibleItem)
	for rows.Next() {
		var name string
		var qty decimal.Decimal
		var produced time.Time
		if err := rows.Scan(&name, &qty, &produced); err != nil {
			return nil, fmt.Errorf("scanning production: %w", err)
		}
		agg, ok := byName[name]
		if !ok {
			agg = &model.ProducibleItem{ItemName: name, TotalProduced: decimal.Zero}
			byName[name] = agg
		}
		agg.TotalProduced = agg.TotalProduced.Add(qty)
		if produced.After(agg.LastProduced) {
			agg.LastProduced = produced
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items := make([]model.ProducibleItem, 0, len(byName))
	for _, agg := range byName {
		items = append(items, *agg)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemName < items[j].ItemName })
	return items, nil
}
