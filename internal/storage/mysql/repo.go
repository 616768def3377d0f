package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"restaurant_lives/internal/domain"
)

// rows per multi-VALUES insert
const batchSize = 500

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ReplaceFeed swaps a municipality's rows for f in one transaction.
func (r *Repo) ReplaceFeed(ctx context.Context, municipality string, f domain.Feed) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteInspectionsSQL, municipality); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, deleteBusinessesSQL, municipality); err != nil {
		return err
	}

	for start := 0; start < len(f.Businesses); start += batchSize {
		end := min(start+batchSize, len(f.Businesses))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*10)
		for _, b := range f.Businesses[start:end] {
			values = append(values, "(?,?,?,?,?,?,?,?,?,?)")
			args = append(args,
				municipality,
				b.ID,
				b.Name,
				valStr(b.Address),
				valStr(b.City),
				valStr(b.State),
				valStr(b.PostalCode),
				valF64(b.Lat),
				valF64(b.Lon),
				valStr(b.PhoneNumber),
			)
		}
		if _, err = tx.ExecContext(ctx, insertBusinessesPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}

	for start := 0; start < len(f.Inspections); start += batchSize {
		end := min(start+batchSize, len(f.Inspections))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*7)
		for i, in := range f.Inspections[start:end] {
			values = append(values, "(?,?,?,?,?,?,?)")
			args = append(args,
				municipality,
				start+i,
				in.BusinessID,
				valStr(in.Score),
				in.Date,
				valStr(in.Description),
				valStr(in.Type),
			)
		}
		if _, err = tx.ExecContext(ctx, insertInspectionsPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repo) GetBusiness(ctx context.Context, municipality, id string) (domain.Business, error) {
	row := r.db.QueryRowContext(ctx, getBusinessSQL, municipality, id)

	var b domain.Business
	var addr, city, state, zip, phone sql.NullString
	var lat, lon sql.NullFloat64
	if err := row.Scan(&b.ID, &b.Name, &addr, &city, &state, &zip, &lat, &lon, &phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Business{}, domain.ErrNotFound
		}
		return domain.Business{}, err
	}
	b.Address = nullStr(addr)
	b.City = nullStr(city)
	b.State = nullStr(state)
	b.PostalCode = nullStr(zip)
	b.PhoneNumber = nullStr(phone)
	if lat.Valid {
		f := lat.Float64
		b.Lat = &f
	}
	if lon.Valid {
		f := lon.Float64
		b.Lon = &f
	}
	return b, nil
}

func (r *Repo) ListInspections(ctx context.Context, municipality, id string, limit int) (domain.InspectionsPage, error) {
	rows, err := r.db.QueryContext(ctx, listInspectionsSQL, municipality, id, limit)
	if err != nil {
		return domain.InspectionsPage{}, err
	}
	defer rows.Close()

	var out []domain.Inspection
	for rows.Next() {
		var in domain.Inspection
		var score, desc, typ sql.NullString
		if err := rows.Scan(&in.BusinessID, &score, &in.Date, &desc, &typ); err != nil {
			return domain.InspectionsPage{}, err
		}
		in.Score = nullStr(score)
		in.Description = nullStr(desc)
		in.Type = nullStr(typ)
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return domain.InspectionsPage{}, err
	}
	return domain.InspectionsPage{Items: out}, nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
