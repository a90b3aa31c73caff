package availability

import (
	"context"
	"log/slog"
	"time"

	"rentcore/internal/app/dto"
	"rentcore/internal/app/handlers/support"
	"rentcore/internal/app/queries"
	"rentcore/internal/app/uow"
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	PropertyID string
	From       time.Time
	To         time.Time
	Mode       string
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

// CheckAvailabilityHandler answers the availability question for one rental
// mode. Validation failures carry a reason; collaborator failures are logged
// and fail closed to unavailable.
type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityReport, error) {
	report := dto.AvailabilityReport{PropertyID: q.PropertyID, Conflicts: []dto.Conflict{}}

	wanted, err := domainproperty.ParseMode(q.Mode)
	if err != nil {
		report.Reason = err.Error()
		return report, nil
	}
	report.Mode = string(wanted)

	dr, err := daterange.New(daterange.Day(q.From), daterange.Day(q.To))
	if err != nil {
		report.Reason = err.Error()
		return report, nil
	}

	unit, owned, ctx, err := support.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.AvailabilityReport{}, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	mode, err := unit.Properties().RentalMode(ctx, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		h.logger().WarnContext(ctx, "availability check failed closed", "property_id", q.PropertyID, "error", err)
		report.Reason = "availability could not be verified"
		return report, nil
	}
	if mode != wanted {
		report.Reason = "property rental mode is " + string(mode)
		return report, nil
	}

	engine := support.Engine(unit, h.Logger, h.Now)
	conflicts, err := engine.Conflicts(ctx, domainproperty.PropertyID(q.PropertyID), dr)
	if err != nil {
		h.logger().WarnContext(ctx, "availability check failed closed", "property_id", q.PropertyID, "error", err)
		report.Reason = "availability could not be verified"
		return report, nil
	}

	report.Conflicts = dto.MapConflicts(conflicts)
	report.Available = len(conflicts) == 0
	if !report.Available {
		report.Reason = "conflicting commitments found"
	}
	return report, nil
}

func (h *CheckAvailabilityHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityReport] = (*CheckAvailabilityHandler)(nil)
