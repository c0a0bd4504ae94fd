package overpass

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/geo"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/lib/network"
)

// DefaultEndpoint is the public Overpass API interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// Client fetches road-network data from the Overpass API. Acquisition
// runs strictly before routing; the routing core never touches this
// client.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates an Overpass client. Empty endpoint uses
// DefaultEndpoint; zero timeout defaults to 60s (Overpass queries over
// a 5km radius routinely take tens of seconds).
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the Overpass API URL the client queries.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchRoadNetwork downloads all highway ways within radiusMeters of
// center and assembles them into a road graph.
func (c *Client) FetchRoadNetwork(ctx context.Context, center geo.Point, radiusMeters float64) (*network.Graph, error) {
	query := fmt.Sprintf(
		"[out:json][timeout:%d];way[\"highway\"](around:%.0f,%.6f,%.6f);(._;>;);out body;",
		int(c.httpClient.Timeout.Seconds()),
		radiusMeters, center.Latitude, center.Longitude,
	)

	body := url.Values{"data": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d from Overpass endpoint %s", resp.StatusCode, c.endpoint)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Overpass response: %w", err)
	}

	return ParseRoadNetwork(data)
}
