// Package fixtures is the static participant directory used in development
// and tests when no database is configured.
package fixtures

import "github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"

const (
	SelfID    = "me"
	AlexID    = "alex"
	BlairID   = "blair"
	CaseyID   = "casey"
	DevonID   = "devon"
	Monday    = 1
	Wednesday = 3
	Friday    = 5
)

// Participants returns a fresh copy of the fixture directory.
//
// Weekdays: Alex is free 9, 10, 14, 15 and tentative at 16, except Wednesday
// 14 which is blocked. Blair is free 10, 11, 15, 16, except Friday 15.
// Casey is free 8 to 17. Devon is only free on weekends. Self is free 8 to 20.
func Participants() []schedule.Participant {
	alex := schedule.Participant{ID: AlexID, Name: "Alex"}
	blair := schedule.Participant{ID: BlairID, Name: "Blair"}
	casey := schedule.Participant{ID: CaseyID, Name: "Casey"}
	devon := schedule.Participant{ID: DevonID, Name: "Devon"}
	self := schedule.Participant{ID: SelfID, Name: "Me"}

	for day := Monday; day <= Friday; day++ {
		fill(&alex.Schedule, day, schedule.StatusUnavailable, 0, 24)
		for _, h := range []int{9, 10, 14, 15} {
			alex.Schedule.Set(day, h, schedule.StatusFree)
		}
		alex.Schedule.Set(day, 16, schedule.StatusTentative)

		// Blair records only the hours that matter; the rest stay unknown.
		for _, h := range []int{10, 11, 15, 16} {
			blair.Schedule.Set(day, h, schedule.StatusFree)
		}
		blair.Schedule.Set(day, 12, schedule.StatusUnavailable)

		fill(&casey.Schedule, day, schedule.StatusFree, 8, 17)
		fill(&self.Schedule, day, schedule.StatusFree, 8, 20)
	}
	alex.Schedule.Set(Wednesday, 14, schedule.StatusUnavailable)
	blair.Schedule.Set(Friday, 15, schedule.StatusUnavailable)

	for _, day := range []int{schedule.Sunday, schedule.Saturday} {
		fill(&devon.Schedule, day, schedule.StatusFree, 10, 18)
		fill(&self.Schedule, day, schedule.StatusFree, 11, 15)
	}

	return []schedule.Participant{self, alex, blair, casey, devon}
}

func fill(w *schedule.Week, day int, status schedule.Status, from, to int) {
	for h := from; h < to; h++ {
		w.Set(day, h, status)
	}
}
