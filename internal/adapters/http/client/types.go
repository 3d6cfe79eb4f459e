package client

// Response payloads are owned by the backend. They are decoded into loose
// shapes and handed back unmodified.

// KPIAverages is the body of GET /kpis/averages/.
type KPIAverages map[string]any

// BusinessSummaries is the body of GET /summaries/, one object per business.
type BusinessSummaries []map[string]any

// Insights is the body of GET /insights/deep-dive/.
type Insights map[string]any

// KPIDrilldown is the body of GET /kpis/drilldown/{kpi_name}.
type KPIDrilldown map[string]any

// FilterOptions combines the dropdown values of both filter endpoints.
type FilterOptions struct {
	BusinessGroups []string `json:"businessGroups"`
	Functions      []string `json:"functions"`
}
