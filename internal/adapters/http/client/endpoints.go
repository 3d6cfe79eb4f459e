package client

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointKPIAverages          = "kpi_averages"
	EndpointBusinessSummaries    = "business_summaries"
	EndpointAIInsights           = "ai_insights"
	EndpointKPIDrilldown         = "kpi_drilldown"
	EndpointFilterBusinessGroups = "filter_business_groups"
	EndpointFilterFunctions      = "filter_functions"
)

// Backend paths, relative to the base URL.
const (
	PathKPIAverages          = "/kpis/averages/"
	PathBusinessSummaries    = "/summaries/"
	PathAIInsights           = "/insights/deep-dive/"
	PathKPIDrilldown         = "/kpis/drilldown/"
	PathFilterBusinessGroups = "/filters/business-groups"
	PathFilterFunctions      = "/filters/functions"
)

const msgFilterOptions = "failed to fetch filter options"

// GetKPIAverages fetches the aggregated KPI averages for the main dashboard.
func (c *Client) GetKPIAverages(ctx context.Context, f Filters) (KPIAverages, error) {
	var out KPIAverages
	err := c.getJSON(ctx, request{
		endpoint: EndpointKPIAverages,
		path:     PathKPIAverages,
		query:    f.Query(),
		failMsg:  "failed to fetch KPI averages",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBusinessSummaries fetches the per-business summary rows. It takes no
// filters and never sends a query string.
func (c *Client) GetBusinessSummaries(ctx context.Context) (BusinessSummaries, error) {
	var out BusinessSummaries
	err := c.getJSON(ctx, request{
		endpoint: EndpointBusinessSummaries,
		path:     PathBusinessSummaries,
		failMsg:  "failed to fetch business summaries",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAIInsights fetches the AI-derived insights for the main dashboard.
func (c *Client) GetAIInsights(ctx context.Context, f Filters) (Insights, error) {
	var out Insights
	err := c.getJSON(ctx, request{
		endpoint: EndpointAIInsights,
		path:     PathAIInsights,
		query:    f.Query(),
		failMsg:  "failed to fetch AI insights",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetKPIDrilldown fetches the drilldown view of one KPI. kpiName is the
// snake_case KPI identifier, e.g. "time_to_fill".
func (c *Client) GetKPIDrilldown(ctx context.Context, kpiName string, f Filters) (KPIDrilldown, error) {
	if kpiName == "" {
		return nil, ErrEmptyKPIName
	}
	var out KPIDrilldown
	err := c.getJSON(ctx, request{
		endpoint: EndpointKPIDrilldown,
		path:     PathKPIDrilldown + url.PathEscape(kpiName),
		query:    f.Query(),
		failMsg:  fmt.Sprintf("failed to fetch drilldown for %s", kpiName),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetFilterOptions fetches the business group and function dropdown values
// concurrently. The first failure cancels the other request and is returned;
// a non-2xx status is reported as a *RequestError whose Endpoint names the
// sub-request that failed.
func (c *Client) GetFilterOptions(ctx context.Context) (FilterOptions, error) {
	var opts FilterOptions

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, request{
			endpoint: EndpointFilterBusinessGroups,
			path:     PathFilterBusinessGroups,
			failMsg:  msgFilterOptions,
		}, &opts.BusinessGroups)
	})
	g.Go(func() error {
		return c.getJSON(gctx, request{
			endpoint: EndpointFilterFunctions,
			path:     PathFilterFunctions,
			failMsg:  msgFilterOptions,
		}, &opts.Functions)
	})
	if err := g.Wait(); err != nil {
		return FilterOptions{}, err
	}
	return opts, nil
}
