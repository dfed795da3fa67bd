package trend

// JobSeries is the per-day series of one job.
type JobSeries struct {
	Job  string
	Days DailySeries
}

// lastKnown is the forward-fill state of one job while walking the dates.
type lastKnown struct {
	vector Vector
	seen   bool
}

// MergeJobs combines the per-day series of several jobs into per-day totals.
//
// The result covers the union of all dates. On a date where a job has no
// vector, the job's most recent earlier vector is carried forward; before a
// job's first date it contributes nothing. Components are summed by name, so
// jobs may report different component sets.
func MergeJobs(jobs []JobSeries) DailySeries {
	union := make(map[Date]struct{})
	for _, job := range jobs {
		for d := range job.Days {
			union[d] = struct{}{}
		}
	}
	dates := make([]Date, 0, len(union))
	for d := range union {
		dates = append(dates, d)
	}
	sortDates(dates)

	totals := make(DailySeries, len(dates))
	for _, job := range jobs {
		var last lastKnown
		for _, d := range dates {
			if v, ok := job.Days[d]; ok {
				last = lastKnown{vector: v, seen: true}
			}
			if !last.seen {
				continue
			}
			totals[d] = addByName(totals[d], last.vector)
		}
	}
	return totals
}
