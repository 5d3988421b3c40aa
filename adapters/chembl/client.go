// Package chembl supplies raw bioactivity records from the ChEMBL REST API.
package chembl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chemhits/domain/bioactivity"
	"chemhits/internal"
	apperrors "chemhits/internal/errors"
	"chemhits/ports"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// activityFields is the field projection requested from the activity resource
var activityFields = []string{
	bioactivity.ColMoleculeID,
	bioactivity.ColCanonicalSmiles,
	bioactivity.ColStandardType,
	bioactivity.ColStandardValue,
	bioactivity.ColStandardUnits,
	bioactivity.ColAssayType,
	bioactivity.ColConfidenceScore,
}

// Client fetches activity records page by page
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *internal.Logger
}

var _ ports.RecordSupplier = (*Client)(nil)

// NewClient creates a ChEMBL client
func NewClient(config ClientConfig, logger *internal.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:     logger.WithComponent("ChEMBLClient"),
	}, nil
}

// Name identifies the supplier in run manifests
func (c *Client) Name() string {
	return "chembl-rest"
}

// FetchBioactivities retrieves up to q.Limit activity records for the target
func (c *Client) FetchBioactivities(ctx context.Context, q ports.ActivityQuery) (*bioactivity.RawTable, error) {
	q = q.WithDefaults()
	if q.TargetID == "" {
		return nil, apperrors.InvalidInput("target id is required")
	}

	startTime := time.Now()
	next, err := c.buildURL(q)
	if err != nil {
		return nil, err
	}

	table := &bioactivity.RawTable{Records: make([]bioactivity.RawRecord, 0, q.Limit)}
	page := 0
	for next != "" && len(table.Records) < q.Limit {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}

		activities := gjson.GetBytes(body, "activities")
		if !activities.IsArray() {
			return nil, apperrors.ExternalServiceError("chembl", fmt.Errorf("response has no activities array"))
		}
		activities.ForEach(func(_, value gjson.Result) bool {
			rec, hasConfidence := parseActivity(value)
			if hasConfidence {
				table.HasConfidenceScore = true
			}
			table.Records = append(table.Records, rec)
			return len(table.Records) < q.Limit
		})

		page++
		c.logger.Debug("page %d: %d records so far", page, len(table.Records))

		next, err = c.resolveNext(gjson.GetBytes(body, "page_meta.next"))
		if err != nil {
			return nil, err
		}
	}

	c.logger.Info("fetched %d activities for %s in %d pages (%.0fms)",
		len(table.Records), q.TargetID, page, float64(time.Since(startTime).Microseconds())/1e3)
	return table, nil
}

// buildURL constructs the first page request
func (c *Client) buildURL(q ports.ActivityQuery) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + "/activity.json")
	if err != nil {
		return "", apperrors.ConfigInvalid(fmt.Sprintf("invalid chembl base url: %v", err))
	}

	pageSize := c.config.PageSize
	if q.Limit < pageSize {
		pageSize = q.Limit
	}

	params := url.Values{}
	params.Set("target_chembl_id", q.TargetID.String())
	params.Set("standard_type__in", strings.Join(q.StandardTypes, ","))
	params.Set("only", strings.Join(activityFields, ","))
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("offset", "0")
	if q.Debug {
		params.Set("confidence_score__gte", strconv.Itoa(ports.DebugMinConfidence))
		params.Set("assay_type", ports.DebugAssayType)
	}

	base.RawQuery = params.Encode()
	return base.String(), nil
}

// resolveNext turns page_meta.next, usually a server-relative path, into an absolute URL
func (c *Client) resolveNext(next gjson.Result) (string, error) {
	if !next.Exists() || next.Type == gjson.Null || next.String() == "" {
		return "", nil
	}
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", apperrors.ConfigInvalid(fmt.Sprintf("invalid chembl base url: %v", err))
	}
	ref, err := url.Parse(next.String())
	if err != nil {
		return "", apperrors.ExternalServiceError("chembl", fmt.Errorf("invalid next page link %q: %w", next.String(), err))
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ExternalServiceError("chembl", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ExternalServiceError("chembl", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("GET %s returned %d", target, resp.StatusCode)
		return nil, apperrors.ExternalServiceError("chembl",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}
	return body, nil
}

// parseActivity maps one activity object to a raw record. standard_value is
// passed through untyped; the second result reports whether the object
// carried a confidence_score key at all.
func parseActivity(v gjson.Result) (bioactivity.RawRecord, bool) {
	rec := bioactivity.RawRecord{
		MoleculeID:      v.Get(bioactivity.ColMoleculeID).String(),
		CanonicalSmiles: v.Get(bioactivity.ColCanonicalSmiles).String(),
		StandardType:    v.Get(bioactivity.ColStandardType).String(),
		StandardUnits:   v.Get(bioactivity.ColStandardUnits).String(),
		AssayType:       v.Get(bioactivity.ColAssayType).String(),
	}

	switch value := v.Get(bioactivity.ColStandardValue); value.Type {
	case gjson.String:
		rec.StandardValue = value.String()
	case gjson.Number:
		rec.StandardValue = json.Number(value.Raw)
	}

	confidence := v.Get(bioactivity.ColConfidenceScore)
	if !confidence.Exists() {
		return rec, false
	}
	switch confidence.Type {
	case gjson.Number:
		rec.ConfidenceScore = bioactivity.Int(int(confidence.Int()))
	case gjson.String:
		if n, err := strconv.Atoi(strings.TrimSpace(confidence.String())); err == nil {
			rec.ConfidenceScore = bioactivity.Int(n)
		}
	}
	return rec, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
