package capabilities

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestClientDiscover(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geoserver/wms", r.URL.Path)
		require.Equal(t, "WMS", r.URL.Query().Get("SERVICE"))
		require.Equal(t, "GetCapabilities", r.URL.Query().Get("REQUEST"))
		require.Equal(t, "1.3.0", r.URL.Query().Get("VERSION"))
		_, _ = w.Write([]byte(capabilities130))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/geoserver/", testLogger())
	layers, info, err := client.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, "CAS:AfstandTotKoelte", layers[0].Name)
	assert.Equal(t, "Climate Adaptation Services", info.Title)
}

func TestClientDiscoverNetworkError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	_, _, err := client.Discover(context.Background())
	require.Error(t, err)

	var derr *DiscoveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, ErrNetwork, derr.Kind)
}

func TestClientDiscoverUnreachable(t *testing.T) {
	t.Parallel()
	// Port 1 on loopback refuses connections immediately.
	client := NewClient("http://127.0.0.1:1", testLogger())
	_, _, err := client.Discover(context.Background())

	var derr *DiscoveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, ErrNetwork, derr.Kind)
}

func TestClientDiscoverParseError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<WMS_Capabilities><unclosed"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	_, _, err := client.Discover(context.Background())
	require.Error(t, err)

	var derr *DiscoveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, ErrParse, derr.Kind)
}

func TestProbeLayerAccess(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gwc/service/wmts", r.URL.Path)
		require.Equal(t, "GetTile", r.URL.Query().Get("REQUEST"))
		switch r.URL.Query().Get("LAYER") {
		case "good":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())

	ok, status := client.ProbeLayerAccess(context.Background(), "good")
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, status)

	ok, status = client.ProbeLayerAccess(context.Background(), "missing")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProbeLayerAccessUnreachable(t *testing.T) {
	t.Parallel()
	client := NewClient("http://127.0.0.1:1", testLogger())
	ok, status := client.ProbeLayerAccess(context.Background(), "any")
	assert.False(t, ok)
	assert.Zero(t, status)
}

func TestTileURL(t *testing.T) {
	t.Parallel()
	client := NewClient("https://example.com/geoserver", testLogger())
	assert.Equal(t,
		"https://example.com/geoserver/gwc/service/wmts?SERVICE=WMTS&REQUEST=GetTile&VERSION=1.0.0"+
			"&LAYER=CAS:roads&STYLE=&TILEMATRIXSET=WebMercatorQuad&TILEMATRIX=5&TILEROW=10&TILECOL=16&FORMAT=image/png",
		client.TileURL("CAS:roads", 5, 10, 16))
}

func TestMapURL(t *testing.T) {
	t.Parallel()
	client := NewClient("https://example.com/geoserver", testLogger())

	withBBox := client.MapURL("roads", &BoundingBox{MinX: 3.05, MinY: 50.73, MaxX: 7.35, MaxY: 53.72}, 600, 400)
	assert.Contains(t, withBBox, "BBOX=3.05,50.73,7.35,53.72")
	assert.Contains(t, withBBox, "WIDTH=600&HEIGHT=400")

	withoutBBox := client.MapURL("roads", nil, 600, 400)
	assert.Contains(t, withoutBBox, "BBOX=-20037508,-20037508,20037508,20037508")
}
