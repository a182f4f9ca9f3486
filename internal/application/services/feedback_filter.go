package services

import (
	"fmt"
	"time"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

const dayLayout = "2006-01-02"

// Date presets accepted by FeedbackFilter.Preset
const (
	Preset10Days    = "10days"
	Preset30Days    = "30days"
	Preset90Days    = "90days"
	PresetThisMonth = "thisMonth"
	PresetLastMonth = "lastMonth"
	PresetThisYear  = "thisYear"
	PresetLastYear  = "lastYear"
)

// Presets lists every preset name
var Presets = []string{
	Preset10Days, Preset30Days, Preset90Days,
	PresetThisMonth, PresetLastMonth, PresetThisYear, PresetLastYear,
}

// FeedbackFilter narrows the feedback table. Dates are YYYY-MM-DD and are
// compared against created_at in UTC. Date wins over Preset, and Preset
// wins over From/To.
type FeedbackFilter struct {
	Board  int64
	Status entities.FeedbackStatus
	Date   string
	Preset string
	From   string
	To     string
}

// PresetRange returns the inclusive day range a preset covers relative to now
func PresetRange(preset string, now time.Time) (string, string, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start, end := today, today

	switch preset {
	case Preset10Days:
		start = today.AddDate(0, 0, -10)
	case Preset30Days:
		start = today.AddDate(0, 0, -30)
	case Preset90Days:
		start = today.AddDate(0, 0, -90)
	case PresetThisMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	case PresetLastMonth:
		start = time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(today.Year(), today.Month(), 0, 0, 0, 0, 0, time.UTC)
	case PresetThisYear:
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	case PresetLastYear:
		start = time.Date(today.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(today.Year()-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		return "", "", apperrors.NewValidationError(fmt.Sprintf("unknown date preset %q", preset))
	}
	return start.Format(dayLayout), end.Format(dayLayout), nil
}

// Apply returns the items that match every set criterion, in input order
func (f FeedbackFilter) Apply(items []entities.Feedback, now time.Time) ([]entities.Feedback, error) {
	from, to := f.From, f.To
	switch {
	case f.Date != "":
		if err := checkDay(f.Date); err != nil {
			return nil, err
		}
		from, to = f.Date, f.Date
	case f.Preset != "":
		var err error
		if from, to, err = PresetRange(f.Preset, now); err != nil {
			return nil, err
		}
	default:
		for _, day := range []string{from, to} {
			if day == "" {
				continue
			}
			if err := checkDay(day); err != nil {
				return nil, err
			}
		}
	}

	out := make([]entities.Feedback, 0, len(items))
	for _, item := range items {
		if f.Board != 0 && item.Board != f.Board {
			continue
		}
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		day := item.CreatedAt.UTC().Format(dayLayout)
		if from != "" && day < from {
			continue
		}
		if to != "" && day > to {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func checkDay(day string) error {
	if _, err := time.Parse(dayLayout, day); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", day))
	}
	return nil
}
