package store

import (
	"casal/src-server/model"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xyedo/rrule"
)

// An unbounded recurrence rule would otherwise expand forever.
const maxOccurrences = 500

// shouldCollapseGroup decides whether saving an event must delete its
// periodic siblings. A save that turns IsPeriodic off while the event
// still carries a group id collapses the group down to the saved event;
// a periodic save or a group-less save never deletes anything. The
// resulting id is only known once the save has settled, which is why
// the check runs after the gateway call and before the reload.
func shouldCollapseGroup(isPeriodic bool, groupID string, resultingID int64) bool {
	return !isPeriodic && groupID != "" && resultingID != 0
}

// ExpandPeriodic turns a base event plus a recurrence rule into the
// occurrences of a new periodic group. Every occurrence shares a fresh
// group id and keeps the base event's day span.
func ExpandPeriodic(base model.Event, rruleStr string) ([]model.Event, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("ExpandPeriodic: %w", err)
	}
	if rruleStr == "" {
		return nil, fmt.Errorf("ExpandPeriodic: rrule is blank")
	}

	rruleSet, err := rrule.StrToRRuleSet(rruleStr)
	if err != nil {
		return nil, fmt.Errorf("ExpandPeriodic: invalid rrule: %w", err)
	}

	span := base.End().Sub(base.Start())
	groupID := uuid.NewString()

	occurrences := make([]model.Event, 0)
	for _, date := range rruleSet.All() {
		if len(occurrences) >= maxOccurrences {
			break
		}
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		occurrence := base
		occurrence.ID = 0
		occurrence.StartDate = day.Format(model.DateLayout)
		occurrence.EndDate = day.Add(span).Format(model.DateLayout)
		occurrence.PeriodicGroupID = groupID
		occurrence.IsPeriodic = true
		occurrences = append(occurrences, occurrence)
	}
	if len(occurrences) == 0 {
		return nil, fmt.Errorf("ExpandPeriodic: rrule produced no occurrences")
	}

	return occurrences, nil
}
