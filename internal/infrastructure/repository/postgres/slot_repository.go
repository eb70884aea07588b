package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/domain/slot"
	qb "github.com/ligatr/league-engine/internal/platform/querybuilder"
)

const (
	leagueSlotsTable = "league_slots"
	membershipsTable = "memberships"
)

var (
	slotColumns       = []string{"league_id", "slot_number", "team_id", "is_bot", "locked_at"}
	membershipColumns = []string{"team_id", "league_id", "slot_number", "joined_at"}
)

type SlotRepository struct {
	db *sqlx.DB
}

func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) ListByLeague(ctx context.Context, leagueID string) ([]slot.Slot, error) {
	query, args, err := qb.Select(slotColumns...).
		From(leagueSlotsTable).
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("slot_number ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list league slots query: %w", err)
	}
	return r.selectSlots(ctx, query, args, "list league slots")
}

func (r *SlotRepository) Get(ctx context.Context, leagueID string, number int) (slot.Slot, bool, error) {
	query, args, err := qb.Select(slotColumns...).
		From(leagueSlotsTable).
		Where(qb.Eq("league_id", leagueID), qb.Eq("slot_number", number)).
		ToSQL()
	if err != nil {
		return slot.Slot{}, false, fmt.Errorf("build get slot query: %w", err)
	}

	var m slotTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return slot.Slot{}, false, nil
		}
		return slot.Slot{}, false, fmt.Errorf("get slot: %w", err)
	}
	return m.toDomain(), true, nil
}

func (r *SlotRepository) FindByTeam(ctx context.Context, teamID string) ([]slot.Slot, error) {
	query, args, err := qb.Select(slotColumns...).
		From(leagueSlotsTable).
		Where(qb.Eq("team_id", teamID)).
		OrderBy("league_id ASC", "slot_number ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build find team slots query: %w", err)
	}
	return r.selectSlots(ctx, query, args, "find team slots")
}

func (r *SlotRepository) Upsert(ctx context.Context, item slot.Slot) error {
	suffix := "ON CONFLICT (league_id, slot_number) DO UPDATE SET " +
		"team_id = EXCLUDED.team_id, is_bot = EXCLUDED.is_bot, locked_at = EXCLUDED.locked_at"
	query, args, err := qb.InsertModel(leagueSlotsTable, slotModelFromDomain(item), suffix)
	if err != nil {
		return fmt.Errorf("build upsert slot query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

func (r *SlotRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	if _, err := querierFor(ctx, r.db).ExecContext(ctx,
		"DELETE FROM league_slots WHERE league_id = $1", leagueID); err != nil {
		return fmt.Errorf("delete league slots: %w", err)
	}
	return nil
}

func (r *SlotRepository) GetMembership(ctx context.Context, teamID string) (slot.Membership, bool, error) {
	query, args, err := qb.Select(membershipColumns...).
		From(membershipsTable).
		Where(qb.Eq("team_id", teamID)).
		ToSQL()
	if err != nil {
		return slot.Membership{}, false, fmt.Errorf("build get membership query: %w", err)
	}

	var m membershipTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return slot.Membership{}, false, nil
		}
		return slot.Membership{}, false, fmt.Errorf("get membership: %w", err)
	}
	return m.toDomain(), true, nil
}

func (r *SlotRepository) CreateMembership(ctx context.Context, item slot.Membership) error {
	suffix := "ON CONFLICT (team_id) DO UPDATE SET " +
		"league_id = EXCLUDED.league_id, slot_number = EXCLUDED.slot_number, joined_at = EXCLUDED.joined_at"
	query, args, err := qb.InsertModel(membershipsTable, membershipModelFromDomain(item), suffix)
	if err != nil {
		return fmt.Errorf("build create membership query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (r *SlotRepository) DeleteMembership(ctx context.Context, teamID string) error {
	if _, err := querierFor(ctx, r.db).ExecContext(ctx,
		"DELETE FROM memberships WHERE team_id = $1", teamID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func (r *SlotRepository) selectSlots(ctx context.Context, query string, args []any, op string) ([]slot.Slot, error) {
	var models []slotTableModel
	if err := querierFor(ctx, r.db).SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]slot.Slot, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}
