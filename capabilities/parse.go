package capabilities

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// LayerInfo is one requestable layer from a capabilities document. Values are
// immutable once parsed.
type LayerInfo struct {
	Name     string
	Title    string
	Abstract string
	Keywords []string
	BBox     *BoundingBox
	SRSList  []string
}

// BoundingBox is a WGS84 extent normalized to minx/miny/maxx/maxy regardless
// of which capabilities shape it was parsed from.
type BoundingBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// ServiceInfo is the best-effort service metadata from the capabilities
// document; any field may be empty.
type ServiceInfo struct {
	Title    string
	Abstract string
	Version  string
	Name     string
}

// layerQuery is one strategy for locating layer elements. The document's root
// namespace and nesting vary by WMS version, so no single query is correct
// for every server; strategies are tried in order and the first one that
// yields any matches wins.
type layerQuery struct {
	name string
	find func(doc *xmlquery.Node) []*xmlquery.Node
}

//nolint:gochecknoglobals
var layerQueries = []layerQuery{
	{"namespaced nested layers", xpathAll(".//wms:Layer/wms:Layer")},
	{"nested layers", xpathAll(".//Layer/Layer")},
	{"namespaced named layers", xpathAll(".//wms:Layer[wms:Name]")},
	{"named layers", xpathAll(".//Layer[Name]")},
	{"layer tag suffix scan", suffixScan},
}

func xpathAll(expr string) func(*xmlquery.Node) []*xmlquery.Node {
	return func(doc *xmlquery.Node) []*xmlquery.Node {
		nodes, err := xmlquery.QueryAll(doc, expr)
		if err != nil {
			return nil
		}
		return nodes
	}
}

// suffixScan is the last-resort strategy: any element whose tag ends in
// "Layer" and which has a child tag ending in "Name".
func suffixScan(doc *xmlquery.Node) []*xmlquery.Node {
	var matches []*xmlquery.Node
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				if strings.HasSuffix(child.Data, "Layer") && hasNamedChild(child) {
					matches = append(matches, child)
				}
				walk(child)
			}
		}
	}
	walk(doc)
	return matches
}

func hasNamedChild(n *xmlquery.Node) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && strings.HasSuffix(child.Data, "Name") {
			return true
		}
	}
	return false
}

// ParseLayers extracts the layer directory from a parsed capabilities
// document. Layers without a name are dropped, not failed.
func ParseLayers(doc *xmlquery.Node) []LayerInfo {
	var elements []*xmlquery.Node
	for _, q := range layerQueries {
		if found := q.find(doc); len(found) > 0 {
			elements = found
			break
		}
	}

	layers := make([]LayerInfo, 0, len(elements))
	for _, el := range elements {
		if layer, ok := parseLayer(el); ok {
			layers = append(layers, layer)
		}
	}
	return layers
}

func parseLayer(el *xmlquery.Node) (LayerInfo, bool) {
	name := childText(el, "Name")
	if name == "" {
		return LayerInfo{}, false
	}

	title := childText(el, "Title")
	if title == "" {
		title = name
	}

	srsList := collectText(el, ".//SRS")
	srsList = append(srsList, collectText(el, ".//CRS")...)

	return LayerInfo{
		Name:     name,
		Title:    title,
		Abstract: childText(el, "Abstract"),
		Keywords: dedupe(collectText(el, ".//Keyword")),
		BBox:     parseBBox(el),
		SRSList:  dedupe(srsList),
	}, true
}

// parseBBox tries the WMS-version-specific bounding box shapes in order and
// returns the first one that parses. A missing bbox is not an error.
func parseBBox(el *xmlquery.Node) *BoundingBox {
	if bbox, ok := parseGeographicBBox(el); ok {
		return bbox
	}
	if bbox, ok := parseAttrBBox(el, ".//LatLonBoundingBox"); ok {
		return bbox
	}
	if bbox, ok := parseAttrBBox(el, `.//BoundingBox[@SRS='EPSG:4326' or @CRS='EPSG:4326']`); ok {
		return bbox
	}
	return nil
}

// parseGeographicBBox handles the WMS 1.3.0 EX_GeographicBoundingBox element
// with four named bound children.
func parseGeographicBBox(el *xmlquery.Node) (*BoundingBox, bool) {
	box := findOne(el, ".//EX_GeographicBoundingBox")
	if box == nil {
		return nil, false
	}
	west, okW := childFloat(box, "westBoundLongitude")
	east, okE := childFloat(box, "eastBoundLongitude")
	south, okS := childFloat(box, "southBoundLatitude")
	north, okN := childFloat(box, "northBoundLatitude")
	if !okW || !okE || !okS || !okN {
		return nil, false
	}
	return &BoundingBox{MinX: west, MinY: south, MaxX: east, MaxY: north}, true
}

// parseAttrBBox handles the flat WMS 1.1.1 bbox elements carrying
// minx/miny/maxx/maxy attributes.
func parseAttrBBox(el *xmlquery.Node, expr string) (*BoundingBox, bool) {
	box := findOne(el, expr)
	if box == nil {
		return nil, false
	}
	minx, okMinX := attrFloat(box, "minx")
	miny, okMinY := attrFloat(box, "miny")
	maxx, okMaxX := attrFloat(box, "maxx")
	maxy, okMaxY := attrFloat(box, "maxy")
	if !okMinX || !okMinY || !okMaxX || !okMaxY {
		return nil, false
	}
	return &BoundingBox{MinX: minx, MinY: miny, MaxX: maxx, MaxY: maxy}, true
}

// ParseServiceInfo extracts the top-level service metadata. All fields are
// best-effort.
func ParseServiceInfo(doc *xmlquery.Node) ServiceInfo {
	svc := findOne(doc, ".//Service")
	if svc == nil {
		return ServiceInfo{}
	}
	return ServiceInfo{
		Title:    childText(svc, "Title"),
		Abstract: childText(svc, "Abstract"),
		Version:  childText(svc, "Version"),
		Name:     childText(svc, "Name"),
	}
}

// Per-field lookups run the wms:-prefixed form of the query before the plain
// one. An unprefixed xpath name test only matches elements carrying no
// prefix, so both forms are needed to cover prefixed and plain documents.

// wmsVariant rewrites a single-step query to its wms:-prefixed form.
func wmsVariant(expr string) string {
	if rest, ok := strings.CutPrefix(expr, ".//"); ok {
		return ".//wms:" + rest
	}
	return "wms:" + expr
}

func findOne(n *xmlquery.Node, expr string) *xmlquery.Node {
	if el := xmlquery.FindOne(n, wmsVariant(expr)); el != nil {
		return el
	}
	return xmlquery.FindOne(n, expr)
}

func childText(n *xmlquery.Node, local string) string {
	el := findOne(n, local)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.InnerText())
}

func childFloat(n *xmlquery.Node, local string) (float64, bool) {
	text := childText(n, local)
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func attrFloat(n *xmlquery.Node, name string) (float64, bool) {
	raw := n.SelectAttr(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func collectText(n *xmlquery.Node, expr string) []string {
	var out []string
	for _, e := range []string{wmsVariant(expr), expr} {
		nodes, err := xmlquery.QueryAll(n, e)
		if err != nil {
			continue
		}
		for _, node := range nodes {
			if text := strings.TrimSpace(node.InnerText()); text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

// dedupe drops repeated values, keeping first-seen order.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
