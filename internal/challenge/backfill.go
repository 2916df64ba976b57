package challenge

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("invalid start date")

// StartResult is the synthesized state for a freshly started challenge.
type StartResult struct {
	History       History
	CompletedDays DaySet
	CurrentDay    int
}

// StartChallenge begins a challenge at startDate, observed from now. A start
// date in the past backfills every elapsed day with Target synthesized
// events and marks it complete; today itself is never backfilled, so the
// user always starts today at zero repetitions.
//
// Backfill is clamped at ChallengeLength elapsed days: the challenge is 30
// days long, and synthesizing beyond day 30 has no meaning.
func StartChallenge(startDate, now string) (StartResult, error) {
	start, err := time.Parse(DayFormat, startDate)
	if err != nil {
		return StartResult{}, ErrInvalidDate
	}
	today, err := time.Parse(DayFormat, now)
	if err != nil {
		return StartResult{}, ErrInvalidDate
	}
	if start.After(today) {
		return StartResult{}, ErrInvalidDate
	}

	daysPassed := int(today.Sub(start).Hours() / 24)
	if daysPassed > ChallengeLength {
		daysPassed = ChallengeLength
	}

	res := StartResult{
		History:       History{},
		CompletedDays: NewDaySet(),
		CurrentDay:    daysPassed,
	}

	for i := 0; i < daysPassed; i++ {
		d := start.AddDate(0, 0, i)
		day := Day(d)
		// Synthesized events get distinct timestamps so the merge
		// deduplication never collapses them.
		base := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
		for j := 0; j < Target; j++ {
			res.History = append(res.History, RepetitionEvent{
				Date:      day,
				Timestamp: base.Add(time.Duration(j) * time.Second),
			})
		}
		res.CompletedDays.Add(day)
	}

	return res, nil
}
