package stac

import (
	"encoding/json"
	"time"
)

// SearchRequest is the body of a STAC /search POST.
type SearchRequest struct {
	Collections []string         `json:"collections"`
	BBox        []float64        `json:"bbox,omitempty"`
	Datetime    string           `json:"datetime,omitempty"`
	Query       map[string]Range `json:"query,omitempty"`
	Limit       int              `json:"limit,omitempty"`
}

// Range is a STAC query operator clause. Only the operators the workflow
// uses are modelled.
type Range struct {
	LT *float64 `json:"lt,omitempty"`
	GT *float64 `json:"gt,omitempty"`
}

// Item is one STAC item (a single Sentinel-2 scene acquisition).
type Item struct {
	ID         string     `json:"id"`
	BBox       []float64  `json:"bbox"`
	Properties Properties `json:"properties"`
}

// Properties holds the subset of Sentinel-2 L2A item properties the
// workflow consumes. Percentage fields are in the range 0-100.
type Properties struct {
	Datetime string `json:"datetime"`

	CloudCover   float64 `json:"eo:cloud_cover"`
	Vegetation   float64 `json:"s2:vegetation_percentage"`
	NoData       float64 `json:"s2:nodata_pixel_percentage"`
	CloudShadow  float64 `json:"s2:cloud_shadow_percentage"`
	SnowIce      float64 `json:"s2:snow_ice_percentage"`
	WaterPct     float64 `json:"s2:water_percentage"`
	NotVegetated float64 `json:"s2:not_vegetated_percentage"`
}

// Time parses the item's acquisition timestamp. STAC mandates RFC 3339.
func (p Properties) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, p.Datetime)
}

// ItemCollection is one page of search results.
type ItemCollection struct {
	Features      []Item `json:"features"`
	Links         []Link `json:"links"`
	NumberMatched int    `json:"numberMatched"`
}

// Link is a STAC hypermedia link; pagination uses rel="next".
// POST-style next links carry the body to resubmit verbatim.
type Link struct {
	Rel    string          `json:"rel"`
	Href   string          `json:"href"`
	Method string          `json:"method,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// next returns the pagination link for the following page, if any.
func (c *ItemCollection) next() (Link, bool) {
	for _, l := range c.Links {
		if l.Rel == "next" {
			return l, true
		}
	}
	return Link{}, false
}
