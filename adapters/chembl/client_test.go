package chembl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"chemhits/domain/core"
	"chemhits/internal"
	apperrors "chemhits/internal/errors"
	"chemhits/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.BaseURL = serverURL + "/chembl/api/data"
	cfg.PageSize = 2
	cfg.RequestsPerSecond = 1000

	logger := internal.NewLogger(internal.LogLevelError).WithOutput(log.New(io.Discard, "", 0))
	c, err := NewClient(cfg, logger)
	require.NoError(t, err)
	return c
}

// pagedServer serves total activities in pages of the requested limit, linking
// pages with a server-relative page_meta.next like the real API does
func pagedServer(t *testing.T, total int, withConfidence bool, seen *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chembl/api/data/activity.json", r.URL.Path)
		*seen = append(*seen, r.URL.RawQuery)

		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		activities := []map[string]interface{}{}
		for i := offset; i < offset+limit && i < total; i++ {
			a := map[string]interface{}{
				"molecule_chembl_id": fmt.Sprintf("CHEMBL%d", i),
				"canonical_smiles":   "CCO",
				"standard_type":      "IC50",
				"standard_value":     fmt.Sprintf("%d.0", 100+i),
				"standard_units":     "nM",
				"assay_type":         "B",
			}
			if withConfidence {
				a["confidence_score"] = 9
			}
			activities = append(activities, a)
		}

		var next interface{}
		if offset+limit < total {
			nq := r.URL.Query()
			nq.Set("offset", strconv.Itoa(offset+limit))
			next = r.URL.Path + "?" + nq.Encode()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"activities": activities,
			"page_meta": map[string]interface{}{
				"limit":       limit,
				"offset":      offset,
				"next":        next,
				"total_count": total,
			},
		})
	}))
}

func TestFetchBioactivities_FollowsPages(t *testing.T) {
	var seen []string
	srv := pagedServer(t, 5, true, &seen)
	defer srv.Close()

	table, err := testClient(t, srv.URL).FetchBioactivities(context.Background(), ports.ActivityQuery{
		TargetID:      core.TargetID("CHEMBL204"),
		StandardTypes: []string{"IC50", "Ki"},
	})
	require.NoError(t, err)

	assert.Len(t, table.Records, 5)
	assert.Len(t, seen, 3)
	assert.True(t, table.HasConfidenceScore)
	assert.Equal(t, "CHEMBL0", table.Records[0].MoleculeID)
	assert.Equal(t, "100.0", table.Records[0].StandardValue)
	require.NotNil(t, table.Records[0].ConfidenceScore)
	assert.Equal(t, 9, *table.Records[0].ConfidenceScore)
	assert.Contains(t, seen[0], "target_chembl_id=CHEMBL204")
	assert.Contains(t, seen[0], "standard_type__in=IC50%2CKi")
	assert.NotContains(t, seen[0], "confidence_score__gte")
}

func TestFetchBioactivities_StopsAtLimit(t *testing.T) {
	var seen []string
	srv := pagedServer(t, 50, false, &seen)
	defer srv.Close()

	table, err := testClient(t, srv.URL).FetchBioactivities(context.Background(), ports.ActivityQuery{
		TargetID: "CHEMBL204",
		Limit:    3,
	})
	require.NoError(t, err)

	assert.Len(t, table.Records, 3)
	assert.Len(t, seen, 2)
	assert.False(t, table.HasConfidenceScore)
	assert.Contains(t, seen[0], "standard_type__in=IC50")
}

func TestFetchBioactivities_DebugFilters(t *testing.T) {
	var seen []string
	srv := pagedServer(t, 1, true, &seen)
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchBioactivities(context.Background(), ports.ActivityQuery{
		TargetID: "CHEMBL204",
		Debug:    true,
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Contains(t, seen[0], "confidence_score__gte=8")
	assert.Contains(t, seen[0], "assay_type=B")
}

func TestFetchBioactivities_ValueShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"activities":[
			{"molecule_chembl_id":"A","standard_type":"IC50","standard_value":12.5,"standard_units":"nM","assay_type":"B","confidence_score":"8"},
			{"molecule_chembl_id":"B","standard_type":"IC50","standard_value":null,"standard_units":"nM","assay_type":"B","confidence_score":null},
			{"molecule_chembl_id":"C","standard_type":"IC50","standard_value":"n/a","standard_units":"nM","assay_type":"B"}
		],"page_meta":{"next":null}}`)
	}))
	defer srv.Close()

	table, err := testClient(t, srv.URL).FetchBioactivities(context.Background(), ports.ActivityQuery{TargetID: "CHEMBL1"})
	require.NoError(t, err)
	require.Len(t, table.Records, 3)

	assert.Equal(t, json.Number("12.5"), table.Records[0].StandardValue)
	require.NotNil(t, table.Records[0].ConfidenceScore)
	assert.Equal(t, 8, *table.Records[0].ConfidenceScore)

	assert.Nil(t, table.Records[1].StandardValue)
	assert.Nil(t, table.Records[1].ConfidenceScore)

	assert.Equal(t, "n/a", table.Records[2].StandardValue)
	assert.True(t, table.HasConfidenceScore)
}

func TestFetchBioactivities_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchBioactivities(context.Background(), ports.ActivityQuery{TargetID: "CHEMBL204"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "503")
}

func TestFetchBioactivities_RequiresTarget(t *testing.T) {
	c := testClient(t, "http://127.0.0.1:1")
	_, err := c.FetchBioactivities(context.Background(), ports.ActivityQuery{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestClientConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultClientConfig().Validate())

	cfg := DefaultClientConfig()
	cfg.PageSize = 5000
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(cfg.Validate()))

	cfg = DefaultClientConfig()
	cfg.RequestsPerSecond = 0
	assert.Error(t, cfg.Validate())
}
