// Package capabilities discovers map layers from a GeoServer instance by
// fetching and parsing its WMS GetCapabilities document. Parsing is tolerant:
// the document shape varies between WMS 1.1.1 and 1.3.0 and between
// namespaced and plain markup, so layer and bbox extraction work through
// ordered fallback chains of queries.
package capabilities

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/sirupsen/logrus"
)

// Tile request defaults, matching a mid-zoom tile over the service's usual
// coverage so that probes hit a real tile.
const (
	DefaultTileMatrixSet = "WebMercatorQuad"
	DefaultTileFormat    = "image/png"
	DefaultZoomLevel     = 8
	DefaultTileRow       = 84
	DefaultTileCol       = 133
)

const requestTimeout = 30 * time.Second

// worldExtent3857 is the GetMap fallback when a layer has no parsed bbox.
//
//nolint:gochecknoglobals
var worldExtent3857 = [4]int{-20037508, -20037508, 20037508, 20037508}

// Client talks to one GeoServer instance.
type Client struct {
	baseURL    string
	wmsURL     string
	wmtsURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewClient returns a Client for the GeoServer at baseURL (e.g.
// "https://example.com/geoserver", without a trailing slash requirement).
func NewClient(baseURL string, logger logrus.FieldLogger) *Client {
	base := trimTrailingSlash(baseURL)
	return &Client{
		baseURL:    base,
		wmsURL:     base + "/wms",
		wmtsURL:    base + "/gwc/service/wmts",
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.WithField("component", "capabilities"),
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// BaseURL returns the normalized server URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Discover fetches the capabilities document and returns the layer directory
// and service metadata. It fails with a DiscoveryError of kind ErrNetwork on
// transport or non-success status problems and kind ErrParse on malformed
// markup.
func (c *Client) Discover(ctx context.Context) ([]LayerInfo, ServiceInfo, error) {
	capabilitiesURL := c.wmsURL + "?SERVICE=WMS&REQUEST=GetCapabilities&VERSION=1.3.0"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, capabilitiesURL, nil)
	if err != nil {
		return nil, ServiceInfo{}, networkError(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ServiceInfo{}, networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ServiceInfo{}, networkError(fmt.Errorf("unexpected status %s from %s", resp.Status, capabilitiesURL))
	}

	doc, err := xmlquery.Parse(resp.Body)
	if err != nil {
		return nil, ServiceInfo{}, parseError(err)
	}

	layers := ParseLayers(doc)
	info := ParseServiceInfo(doc)
	c.logger.WithField("layers", len(layers)).Debug("Parsed capabilities document")
	return layers, info, nil
}

// ProbeLayerAccess issues a single minimal tile request for the layer and
// reports whether it is reachable. It never returns an error; unreachable
// servers report as (false, 0).
func (c *Client) ProbeLayerAccess(ctx context.Context, layerName string) (bool, int) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TileURL(layerName, DefaultZoomLevel, DefaultTileRow, DefaultTileCol), nil)
	if err != nil {
		return false, 0
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, 0
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, resp.StatusCode
}

// TileURL builds the WMTS GetTile URL used both for accessibility probes and
// as the load-test target.
func (c *Client) TileURL(layerName string, zoom, row, col int) string {
	return fmt.Sprintf(
		"%s?SERVICE=WMTS&REQUEST=GetTile&VERSION=1.0.0&LAYER=%s&STYLE=&TILEMATRIXSET=%s&TILEMATRIX=%d&TILEROW=%d&TILECOL=%d&FORMAT=%s",
		c.wmtsURL, layerName, DefaultTileMatrixSet, zoom, row, col, DefaultTileFormat,
	)
}

// MapURL builds a WMS GetMap preview URL for the layer, using its bbox when
// one was parsed and the world extent otherwise.
func (c *Client) MapURL(layerName string, bbox *BoundingBox, width, height int) string {
	var bboxStr string
	if bbox != nil {
		bboxStr = fmt.Sprintf("%g,%g,%g,%g", bbox.MinX, bbox.MinY, bbox.MaxX, bbox.MaxY)
	} else {
		bboxStr = fmt.Sprintf("%d,%d,%d,%d",
			worldExtent3857[0], worldExtent3857[1], worldExtent3857[2], worldExtent3857[3])
	}
	return fmt.Sprintf(
		"%s?SERVICE=WMS&VERSION=1.1.0&REQUEST=GetMap&LAYERS=%s&STYLES=&SRS=EPSG:3857&BBOX=%s&WIDTH=%d&HEIGHT=%d&FORMAT=%s",
		c.wmsURL, layerName, bboxStr, width, height, DefaultTileFormat,
	)
}
