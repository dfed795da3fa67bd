package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeDataset() string {
	return `Builds the trend dataset of one job from its history of analysis runs.

USE WHEN:
- Checking whether the issue count of a job is going up or down
- Reviewing the effect of recent builds on warnings
- Preparing numbers for a chart of one job

INTERPRETING RESULTS:
- Columns are build numbers (#n) or calendar dates (YYYY-MM-DD) in ascending order
- Date columns average all builds of the same day (integer average, truncated)
- Each series is one stacked component of the graph type (e.g. low, normal, high)
- direction "rising" means the fitted slope is positive: more issues over time
- r_squared near 1 means the trend is steady, near 0 means it is noisy

METRICS RETURNED:
- dataset: domain, labels, series with one value per label
- stats per series: min, max, mean, median, first, latest, slope, r_squared, direction`
}

func describeAggregate() string {
	return `Combines the per-day series of several jobs into one dataset of daily totals.

USE WHEN:
- Tracking issues across all modules of a product
- Comparing the overall trend of a group of jobs
- Building a dashboard that spans several pipelines

INTERPRETING RESULTS:
- Columns are the calendar dates on which any job had a build
- A job without a build on a date contributes its last known value
- A job contributes nothing before its first build in the window
- Series missing in one job count as 0 for that job

METRICS RETURNED:
- dataset: date labels and summed series
- stats per series, as for trend_dataset`
}

func describeGraphCheck() string {
	return `Validates a serialized graph configuration and shows the configuration that would be used.

USE WHEN:
- A dataset does not use the window or graph type you expected
- Writing a graph configuration by hand
- Listing the available graph types

INTERPRETING RESULTS:
- valid false lists every problem; invalid values fall back to the defaults
- Format: width!height!buildCount!dayCount!graphType!useBuildDate!parameterName!parameterValue
- width and height lie strictly between 25 and 2000
- buildCount is 0 (no limit) or greater than 1; dayCount is 0 (no limit) or more
- useBuildDate is 1 for a date axis and 0 for a build number axis

METRICS RETURNED:
- valid, problems, effective (serialized), settings, graph_types`
}
