// Package notifications delivers alert and violation messages to chat endpoints.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stop_guard/internal/models"
)

// Notifier delivers a plain-text message.
type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// Multi fans a message out to every notifier. All are attempted; errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FormatAlerts renders approaching-stop alerts. It returns "" when there is nothing to send.
func FormatAlerts(alerts []models.Alert) string {
	if len(alerts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Stop Loss Alerts (%d positions):\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(&b, "• [%s] %s: $%s (Stop: $%s, %s%% away)\n",
			a.Severity, a.Symbol,
			a.CurrentPrice.StringFixed(2), a.StopLevel.StringFixed(2),
			a.Distance.Shift(2).StringFixed(2))
	}
	return b.String()
}

// FormatViolations renders triggered stops. It returns "" when there is nothing to send.
func FormatViolations(violations []models.Violation, liquidated bool) string {
	if len(violations) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 Stops Triggered (%d positions):\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(&b, "• %s: $%s <= %s stop $%s, %s shares, est. proceeds $%s\n",
			v.Symbol, v.TriggerPrice.StringFixed(2), strings.ToLower(string(v.StopMode)),
			v.StopLevel.StringFixed(2), v.Shares.String(), v.EstimatedProceeds.StringFixed(2))
	}
	if liquidated {
		b.WriteString("Positions were sold at market.\n")
	} else {
		b.WriteString("Paper mode: closed at the trigger price, no order was sent.\n")
	}
	return b.String()
}

// FormatTargets renders reached profit targets. It returns "" when there is nothing to send.
func FormatTargets(targets []models.ProfitTarget, sold bool) string {
	if len(targets) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Profit Targets Reached (%d positions):\n", len(targets))
	for _, t := range targets {
		fmt.Fprintf(&b, "• %s: $%s >= target $%s, selling %s shares, est. proceeds $%s\n",
			t.Symbol, t.TriggerPrice.StringFixed(2), t.TargetPrice.StringFixed(2),
			t.SharesToSell.String(), t.EstimatedProceeds.StringFixed(2))
	}
	if sold {
		b.WriteString("Partial sales were sent at market.\n")
	} else {
		b.WriteString("Paper mode: sold at the trigger price, no order was sent.\n")
	}
	return b.String()
}
