// Package trend turns a history of analysis runs into chart-ready datasets.
//
// A dataset is built in four steps: the run window is bounded by build count
// and age (SelectWindow), every accepted run is mapped to a Vector by a
// caller-supplied SeriesExtractor, the vectors are aligned on either the
// build-number axis or the calendar-date axis (averaging same-day runs), and
// for several jobs the per-day series are merged with forward fill
// (MergeJobs). Builder wires the steps together.
//
// Everything in this package is synchronous and free of shared state. Given a
// fixed "today" and location, a dataset is a pure function of its inputs.
package trend
