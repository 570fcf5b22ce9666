// Package notify delivers best-effort notifications after the owning
// database transaction has committed. Delivery failures are logged and
// never reach the caller.
package notify

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"resellerdesk/model"
)

type Notifier interface {
	OrderCompleted(order model.ProductOrder, reseller model.Reseller)
	Onboarding(reseller model.Reseller, order model.PackageOrder, password string)
	BalanceApproved(resellerID int64, amount decimal.Decimal)
}

type event struct {
	kind string
	send func()
}

// Dispatcher fans events out on a buffered channel so a slow sink can never
// block or abort the financial transaction that triggered it.
type Dispatcher struct {
	log    *slog.Logger
	events chan event
	done   chan struct{}
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		log:    log,
		events: make(chan event, 64),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.events {
		ev.send()
	}
}

// Close drains queued events and stops the worker.
func (d *Dispatcher) Close() {
	close(d.events)
	<-d.done
}

func (d *Dispatcher) enqueue(ev event) {
	select {
	case d.events <- ev:
	default:
		d.log.Warn("notification queue full, dropping", "kind", ev.kind)
	}
}

func (d *Dispatcher) OrderCompleted(order model.ProductOrder, reseller model.Reseller) {
	d.enqueue(event{kind: "order_completed", send: func() {
		d.log.Info("order completed",
			"order_id", order.ID,
			"reseller_id", reseller.ID,
			"product_id", order.ProductID,
			"total", order.TotalAmount.StringFixed(2),
		)
	}})
}

func (d *Dispatcher) Onboarding(reseller model.Reseller, order model.PackageOrder, password string) {
	// The generated password is handed to the delivery channel exactly once
	// and never logged.
	hasPassword := password != ""
	d.enqueue(event{kind: "onboarding", send: func() {
		d.log.Info("reseller onboarded",
			"reseller_id", reseller.ID,
			"package_order_id", order.ID,
			"generated_password", hasPassword,
		)
	}})
}

func (d *Dispatcher) BalanceApproved(resellerID int64, amount decimal.Decimal) {
	d.enqueue(event{kind: "balance_approved", send: func() {
		d.log.Info("balance request approved",
			"reseller_id", resellerID,
			"amount", amount.StringFixed(2),
		)
	}})
}
