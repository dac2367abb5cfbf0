// Package preference decides whether a notification may reach a recipient.
package preference

import (
	"fmt"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
)

// Reason explains a gate decision. It is used as a metric label.
type Reason string

const (
	ReasonOK               Reason = "ok"
	ReasonDefault          Reason = "default"
	ReasonKillSwitch       Reason = "kill_switch"
	ReasonCategoryDisabled Reason = "category_disabled"
	ReasonMuted            Reason = "muted"
	ReasonQuietHours       Reason = "quiet_hours"
)

type Decision struct {
	Deliver bool
	Reason  Reason
}

// Candidate is one potential notification for one recipient. LocalTime must
// already be in the recipient's timezone.
type Candidate struct {
	RecipientUID      string
	Category          model.Category
	ConversationMuted bool
	LocalTime         time.Time
}

// Gate holds the static policy. It has no side effects.
type Gate struct {
	critical map[model.Category]bool
}

func NewGate(criticalCategories []string) (*Gate, error) {
	g := &Gate{critical: make(map[model.Category]bool, len(criticalCategories))}
	for _, s := range criticalCategories {
		if s == "" {
			continue
		}
		c, err := model.ParseCategory(s)
		if err != nil {
			return nil, fmt.Errorf("critical categories: %w", err)
		}
		g.critical[c] = true
	}
	return g, nil
}

func (g *Gate) IsCritical(c model.Category) bool {
	return g.critical[c]
}

// Decide applies, in order: kill switch, category toggle, conversation mute,
// quiet hours. A nil prefs means the user never saved settings and everything
// is delivered.
func (g *Gate) Decide(prefs *model.NotificationPreferences, c Candidate) Decision {
	if prefs != nil && prefs.Disabled {
		return Decision{Reason: ReasonKillSwitch}
	}
	if prefs != nil && !prefs.CategoryEnabled(c.Category) {
		return Decision{Reason: ReasonCategoryDisabled}
	}
	if c.Category == model.CategoryMessage && c.ConversationMuted {
		return Decision{Reason: ReasonMuted}
	}
	if prefs == nil {
		return Decision{Deliver: true, Reason: ReasonDefault}
	}
	if prefs.QuietHoursEnabled && !g.critical[c.Category] {
		if w, err := ParseWindow(prefs.QuietStart, prefs.QuietEnd); err == nil && w.Contains(c.LocalTime) {
			return Decision{Reason: ReasonQuietHours}
		}
	}
	return Decision{Deliver: true, Reason: ReasonOK}
}
