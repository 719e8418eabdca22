package sqlite

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type masterDataRepository struct {
	q querier
}

func (r *masterDataRepository) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	var zone domain.Zone
	if err := r.q.QueryRowContext(ctx, `SELECT id, name FROM zones WHERE id=?`, id).Scan(&zone.ID, &zone.Name); err != nil {
		return nil, mapErr(err)
	}
	return &zone, nil
}

func (r *masterDataRepository) GetBranch(ctx context.Context, id string) (*domain.Branch, error) {
	var branch domain.Branch
	if err := r.q.QueryRowContext(ctx, `SELECT id, zone_id, name FROM branches WHERE id=?`, id).
		Scan(&branch.ID, &branch.ZoneID, &branch.Name); err != nil {
		return nil, mapErr(err)
	}
	return &branch, nil
}

func (r *masterDataRepository) GetLine(ctx context.Context, id string) (*domain.Line, error) {
	var line domain.Line
	if err := r.q.QueryRowContext(ctx, `SELECT id, branch_id, name FROM lines WHERE id=?`, id).
		Scan(&line.ID, &line.BranchID, &line.Name); err != nil {
		return nil, mapErr(err)
	}
	return &line, nil
}

func (r *masterDataRepository) GetFarmer(ctx context.Context, id string) (*domain.Farmer, error) {
	const query = `SELECT id, name, phone, zone_id, branch_id, line_id FROM farmers WHERE id=?`
	var farmer domain.Farmer
	if err := r.q.QueryRowContext(ctx, query, id).Scan(
		&farmer.ID,
		&farmer.Name,
		&farmer.Phone,
		&farmer.ZoneID,
		&farmer.BranchID,
		&farmer.LineID,
	); err != nil {
		return nil, mapErr(err)
	}
	return &farmer, nil
}

func (r *masterDataRepository) CreateZone(ctx context.Context, zone *domain.Zone) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO zones (id, name) VALUES (?,?)`, zone.ID, zone.Name)
	return err
}

func (r *masterDataRepository) CreateBranch(ctx context.Context, branch *domain.Branch) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO branches (id, zone_id, name) VALUES (?,?,?)`,
		branch.ID, branch.ZoneID, branch.Name)
	return err
}

func (r *masterDataRepository) CreateLine(ctx context.Context, line *domain.Line) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO lines (id, branch_id, name) VALUES (?,?,?)`,
		line.ID, line.BranchID, line.Name)
	return err
}

func (r *masterDataRepository) CreateFarmer(ctx context.Context, farmer *domain.Farmer) error {
	const query = `
		INSERT INTO farmers (id, name, phone, zone_id, branch_id, line_id)
		VALUES (?,?,?,?,?,?)`
	_, err := r.q.ExecContext(ctx, query,
		farmer.ID,
		farmer.Name,
		farmer.Phone,
		farmer.ZoneID,
		farmer.BranchID,
		farmer.LineID,
	)
	return err
}
