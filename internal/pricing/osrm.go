package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ride-hail/internal/models"
)

// OSRMRouter performs route lookups against an OSRM-compatible HTTP server.
type OSRMRouter struct {
	Endpoint string
	Client   *http.Client
}

func NewOSRMRouter(endpoint string) *OSRMRouter {
	return &OSRMRouter{Endpoint: endpoint, Client: &http.Client{Timeout: 2 * time.Second}}
}

// Route queries /route between points and returns distance and duration.
func (o *OSRMRouter) Route(ctx context.Context, from, to models.Coord) (float64, float64, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false", o.Endpoint, from.Lon, from.Lat, to.Lon, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	var out struct {
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, err
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return 0, 0, fmt.Errorf("osrm no route: %v", out.Code)
	}
	return out.Routes[0].Distance, out.Routes[0].Duration, nil
}
