package trend

import "github.com/panbanda/trendline/pkg/models"

// SelectWindow consumes runs (newest first) and returns the runs that make
// up the configured window, in the order they were read.
//
// The age cutoff is checked before a run is accepted and excludes the
// boundary run. The build count cutoff is checked after a run is accepted
// and includes the boundary run. Runs rejected by the parameter filter are
// skipped without being counted. With neither bound defined the whole
// iterator is consumed.
func SelectWindow(cfg WindowConfig, runs models.RunIterator, age AgePredicate) []models.Run {
	var selected []models.Run
	name, value := cfg.ParameterFilter()
	count := 0
	for {
		run, ok := runs.Next()
		if !ok {
			break
		}
		if age.IsTooOld(cfg, run) {
			break
		}
		if name != "" && !hasParameter(run, name, value) {
			continue
		}
		selected = append(selected, run)

		if cfg.IsBuildCountDefined() {
			count++
			if count >= cfg.BuildCount() {
				break
			}
		}
	}
	return selected
}

func hasParameter(run models.Run, name, value string) bool {
	p, ok := run.(models.Parameterized)
	if !ok {
		return false
	}
	v, ok := p.Parameter(name)
	return ok && v == value
}
