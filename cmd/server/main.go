package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/dpup/prefab"

	"github.com/mukutarmanekka/smart-evacuation-router/internal/cache"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/clients/overpass"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/config"
	"github.com/mukutarmanekka/smart-evacuation-router/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	// Caches: one for per-zone filtered graphs, one for downloaded road
	// networks. Both are cleaned up in the background.
	zoneCache := cache.New()
	graphCache := cache.New()
	zoneCache.StartPeriodicCleanup(context.Background(), 10*time.Minute)
	graphCache.StartPeriodicCleanup(context.Background(), 10*time.Minute)

	// Road-network source (OpenStreetMap via Overpass)
	overpassClient := overpass.NewClient(appConfig.Overpass.Endpoint, appConfig.Overpass.Timeout)

	// Routing facade and HTTP handler
	evacuationService := services.NewEvacuationService(zoneCache, appConfig.Routing, appConfig.Network)
	routesHandler := services.NewRoutesHandler(evacuationService, overpassClient, appConfig.Overpass, graphCache)

	log.Printf("Evacuation routing server starting")
	log.Printf("Overpass endpoint: %s", overpassClient.Endpoint())

	// Create Prefab server
	// Server configuration (port, etc.) will be loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/evacuation/routes", routesHandler.Handle),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system
// Configuration is loaded from prefab.yaml and environment variables with PF__ prefix
func loadConfig() *config.Config {
	appConfig := &config.Config{}

	if err := prefab.Config.Unmarshal("routing", &appConfig.Routing); err != nil {
		log.Fatalf("Failed to unmarshal routing section: %v", err)
	}

	if err := prefab.Config.Unmarshal("network", &appConfig.Network); err != nil {
		log.Fatalf("Failed to unmarshal network section: %v", err)
	}

	if err := prefab.Config.Unmarshal("overpass", &appConfig.Overpass); err != nil {
		log.Fatalf("Failed to unmarshal overpass section: %v", err)
	}

	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>smart-evacuation-router</title>
    <style>
        body { 
            font-family: 'Courier New', Consolas, monospace; 
            background: #000; 
            color: #0f0; 
            padding: 20px; 
            line-height: 1.4; 
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
        .section { margin: 20px 0; }
    </style>
</head>
<body>
<pre>
<span class="header">smart-evacuation-router</span>

Evacuation routing API. Given people and circular disaster zones, finds
each person in danger a safe road route out of the zone, avoiding
water-covered ways.

<span class="header">API Endpoints:</span>

  POST /api/v1/evacuation/routes            - Compute evacuation routes
  POST /api/v1/evacuation/routes?format=kml - Same, rendered as KML

<span class="header">Request Body:</span>
  {
    "people": [{"id": "p1", "point": {"lat": 28.6139, "lng": 77.2090}}],
    "zones":  [{"center": {"lat": 28.6139, "lng": 77.2090}, "radius_meters": 1000}]
  }

<span class="header">Data Sources:</span>
  • OpenStreetMap (Overpass API) - Road network and water features

<span class="header">Example Usage:</span>
  curl -X POST -d @request.json http://localhost:8000/api/v1/evacuation/routes
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
