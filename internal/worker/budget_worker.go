// Package worker re-evaluates budgets whenever the ledger changes and
// logs every exceeded ceiling. It runs as its own process, fed by the
// change queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zhangyujiu/HouseKeeper/internal/amqp"
	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/services"
	"github.com/zhangyujiu/HouseKeeper/internal/watch"
)

// BudgetWorker listens for ledger change messages and evaluates every
// budget against its stored window.
type BudgetWorker struct {
	ledger *services.LedgerService
}

func NewBudgetWorker(ledger *services.LedgerService) *BudgetWorker {
	return &BudgetWorker{ledger: ledger}
}

// HandleChangeMessage processes one change notification. Category and
// budget changes re-evaluate too: a deleted category cascades into
// budgets, and an edited ceiling can flip the exceeded flag.
func (w *BudgetWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"entity", msg.Entity,
		"action", msg.Action,
		"id", msg.ID)

	if msg.Entity == string(watch.EntityBudget) && msg.Action == string(watch.ActionDeleted) {
		// Nothing left to evaluate for this budget.
		return nil
	}

	return w.EvaluateAll(ctx)
}

// EvaluateAll checks every budget and logs the exceeded ones.
func (w *BudgetWorker) EvaluateAll(ctx context.Context) error {
	usages, err := w.ledger.BudgetsOverview(ctx)
	if err != nil {
		return fmt.Errorf("evaluate budgets: %w", err)
	}

	exceeded := 0
	for _, u := range usages {
		if !u.Exceeded {
			continue
		}
		exceeded++
		slog.WarnContext(ctx, "Budget exceeded",
			"budget_id", u.Budget.ID,
			"category", u.Budget.Category.Name,
			"period", u.Budget.Period,
			"ceiling", core.FormatCents(u.Budget.Amount.Cents),
			"used", core.FormatCents(u.Used.Cents),
			"over_by", core.FormatCents(u.Used.Cents-u.Budget.Amount.Cents))
	}

	slog.InfoContext(ctx, "Budget evaluation completed",
		"budgets", len(usages),
		"exceeded", exceeded)
	return nil
}
