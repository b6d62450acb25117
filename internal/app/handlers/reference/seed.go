package reference

import (
	"context"
	"errors"
	"log/slog"
	"time"

	handlersupport "erent/internal/app/handlers/support"
	"erent/internal/app/uow"
	domainref "erent/internal/domain/reference"
)

// SeedEntry is one row of the start-up reference data.
type SeedEntry struct {
	ID          string
	Kind        domainref.Kind
	Name        string
	Code        string
	Description string
	ParentID    string
}

// Seed inserts the entries that do not exist yet. Existing rows are left
// untouched so administrators can edit them. Entries are applied in order,
// so countries must precede their cities.
func Seed(ctx context.Context, factory uow.UoWFactory, entries []SeedEntry, now time.Time, logger *slog.Logger) (int, error) {
	m, err := handlersupport.BeginUnit(ctx, factory)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	created := 0
	for _, e := range entries {
		_, err := m.Unit.Reference().ByID(m.Ctx, e.Kind, domainref.ID(e.ID))
		if err == nil {
			continue
		}
		if !errors.Is(err, domainref.ErrNotFound) {
			return 0, err
		}
		params := domainref.Params{
			ID:          domainref.ID(e.ID),
			Kind:        e.Kind,
			Name:        e.Name,
			Code:        e.Code,
			Description: e.Description,
			ParentID:    domainref.ID(e.ParentID),
			Now:         now,
		}
		if err := checkParent(m.Ctx, m.Unit, params); err != nil {
			return 0, err
		}
		entry, err := domainref.New(params)
		if err != nil {
			return 0, err
		}
		if err := m.Unit.Reference().Save(m.Ctx, entry); err != nil {
			return 0, err
		}
		created++
	}
	if err := m.Commit(); err != nil {
		return 0, err
	}
	if logger != nil {
		logger.Info("reference data seeded", "created", created, "total", len(entries))
	}
	return created, nil
}
