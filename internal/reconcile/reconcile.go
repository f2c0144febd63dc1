// Package reconcile restores the invariant between orders and earnings: every
// completed order owns exactly one earning and every non-legacy earning is backed
// by a completed order.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/metrics"
	"hrdesk-backend/internal/ports"
)

type Kind string

const (
	CreateMissing   Kind = "create_missing"
	DeleteDuplicate Kind = "delete_duplicate"
	DeletePhantom   Kind = "delete_phantom"
	FlagLegacy      Kind = "flag_legacy"
	ResyncGross     Kind = "resync_gross"
	// PaidDuplicate is reported only; paid money is never removed automatically.
	PaidDuplicate Kind = "paid_duplicate"
)

type Action struct {
	Kind      Kind            `json:"kind"`
	OrderID   *int64          `json:"orderId,omitempty"`
	EarningID int64           `json:"earningId,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`

	order *domain.Order
}

// Mutates reports whether applying the action writes anything.
func (a Action) Mutates() bool { return a.Kind != PaidDuplicate }

type Plan struct {
	Actions []Action `json:"actions"`
}

// Changes counts the actions that write data.
func (p Plan) Changes() int {
	n := 0
	for _, a := range p.Actions {
		if a.Mutates() {
			n++
		}
	}
	return n
}

func (p Plan) Count(kind Kind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Build compares the two ledgers and lists the repairs. It does not touch any store.
func Build(orders []domain.Order, earnings []domain.Earning) Plan {
	byID := make(map[int64]domain.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	byOrder := map[int64][]domain.Earning{}
	var actions []Action

	for _, e := range earnings {
		if e.IsLegacy {
			continue
		}
		if e.OrderID != nil {
			if o, ok := byID[*e.OrderID]; ok && o.Status == domain.OrderCompleted {
				byOrder[o.ID] = append(byOrder[o.ID], e)
				continue
			}
		}
		actions = append(actions, phantom(e, byID))
	}

	completed := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == domain.OrderCompleted {
			completed = append(completed, o)
		}
	}
	sort.Slice(completed, func(i, j int) bool { return completed[i].ID < completed[j].ID })

	for _, o := range completed {
		o := o
		orderID := o.ID
		group := byOrder[o.ID]
		if len(group) == 0 {
			actions = append(actions, Action{
				Kind: CreateMissing, OrderID: &orderID, Amount: o.TotalPrice,
				Reason: "completed order has no earning", order: &o,
			})
			continue
		}
		keep, rest := pickKeeper(group)
		for _, e := range rest {
			kind, reason := DeleteDuplicate, "duplicate unpaid earning"
			if e.Status == domain.EarningPaid {
				kind, reason = PaidDuplicate, "duplicate paid earning needs manual review"
			}
			actions = append(actions, Action{Kind: kind, OrderID: &orderID, EarningID: e.ID, Amount: e.GrossAmount, Reason: reason})
		}
		if keep.Status == domain.EarningUnpaid && !keep.GrossAmount.Equal(o.TotalPrice) {
			actions = append(actions, Action{
				Kind: ResyncGross, OrderID: &orderID, EarningID: keep.ID, Amount: o.TotalPrice,
				Reason: fmt.Sprintf("gross %s differs from order total %s", keep.GrossAmount.StringFixed(2), o.TotalPrice.StringFixed(2)),
			})
		}
	}

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Kind < actions[j].Kind })
	return Plan{Actions: actions}
}

func phantom(e domain.Earning, orders map[int64]domain.Order) Action {
	reason := "earning has no order"
	if e.OrderID != nil {
		if o, ok := orders[*e.OrderID]; ok {
			reason = "order is " + string(o.Status)
		} else {
			reason = "order " + strconv.FormatInt(*e.OrderID, 10) + " does not exist"
		}
	}
	if e.Status == domain.EarningPaid {
		return Action{Kind: FlagLegacy, OrderID: e.OrderID, EarningID: e.ID, Amount: e.GrossAmount, Reason: reason + "; paid, kept as legacy"}
	}
	return Action{Kind: DeletePhantom, OrderID: e.OrderID, EarningID: e.ID, Amount: e.GrossAmount, Reason: reason}
}

// pickKeeper keeps a paid earning when there is one, else the oldest.
func pickKeeper(group []domain.Earning) (domain.Earning, []domain.Earning) {
	sorted := append([]domain.Earning(nil), group...)
	sort.Slice(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Status == domain.EarningPaid, sorted[j].Status == domain.EarningPaid
		if pi != pj {
			return pi
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0], sorted[1:]
}

type Result struct {
	Action Action `json:"action"`
	Error  string `json:"error,omitempty"`
}

type Report struct {
	DryRun  bool     `json:"dryRun"`
	Plan    Plan     `json:"plan"`
	Applied []Result `json:"applied"`
	Failed  int      `json:"failed"`
}

// Reconciler loads both ledgers, plans the repairs and applies them.
type Reconciler struct {
	Orders   ports.OrderStore
	Earnings ports.EarningStore
	Audit    ports.AuditStore
	Logger   *slog.Logger
}

func (r Reconciler) Run(ctx context.Context, actorID *int64, dryRun bool) (*Report, error) {
	orders, err := r.Orders.ListOrders(ctx, ports.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	earnings, _, err := r.Earnings.ListEarnings(ctx, ports.EarningFilter{})
	if err != nil {
		return nil, fmt.Errorf("load earnings: %w", err)
	}
	report := &Report{DryRun: dryRun, Plan: Build(orders, earnings), Applied: []Result{}}
	if dryRun {
		return report, nil
	}
	for _, a := range report.Plan.Actions {
		if !a.Mutates() {
			continue
		}
		res := Result{Action: a}
		if err := r.apply(ctx, a); err != nil {
			res.Error = err.Error()
			report.Failed++
		} else {
			metrics.ReconcileActions.WithLabelValues(string(a.Kind)).Inc()
			r.audit(ctx, actorID, a)
		}
		report.Applied = append(report.Applied, res)
	}
	return report, nil
}

func (r Reconciler) apply(ctx context.Context, a Action) error {
	switch a.Kind {
	case CreateMissing:
		_, err := r.Earnings.CreateEarning(ctx, domain.EarningForOrder(*a.order))
		if errors.Is(err, ports.ErrDuplicate) {
			return nil
		}
		return err
	case DeleteDuplicate, DeletePhantom:
		return r.Earnings.DeleteEarning(ctx, a.EarningID)
	case FlagLegacy:
		return r.Earnings.SetEarningLegacy(ctx, a.EarningID, true)
	case ResyncGross:
		return r.Earnings.UpdateEarningGross(ctx, a.EarningID, a.Amount)
	}
	return fmt.Errorf("unknown action %s", a.Kind)
}

func (r Reconciler) audit(ctx context.Context, actorID *int64, a Action) {
	if r.Audit == nil {
		return
	}
	entityID := ""
	if a.EarningID != 0 {
		entityID = strconv.FormatInt(a.EarningID, 10)
	}
	if a.OrderID != nil {
		entityID += "/order:" + strconv.FormatInt(*a.OrderID, 10)
	}
	// audit failures never undo an applied repair
	err := r.Audit.CreateAuditLog(ctx, domain.AuditLog{
		ActorID:  actorID,
		Actor:    "reconcile",
		Action:   "reconcile." + string(a.Kind),
		Entity:   "earning",
		EntityID: entityID,
		Message:  fmt.Sprintf("%s (amount %s)", a.Reason, a.Amount.StringFixed(2)),
	})
	if err != nil {
		r.logger().WarnContext(ctx, "audit log write failed", "action", "reconcile."+string(a.Kind), "earning", entityID, "error", err)
	}
}

func (r Reconciler) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
