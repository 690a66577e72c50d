package provider

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/agentdesk-api/internal/criteria"
)

// homeReview expects one comma-joined statuses parameter and limit/offset
// paging, and answers {properties, count}.
type homeReview struct{}

var homeReviewVocabulary = vocabulary{
	criteria.MinPrice:         "minPrice",
	criteria.MaxPrice:         "maxPrice",
	criteria.MinBeds:          "minBeds",
	criteria.MaxBeds:          "maxBeds",
	criteria.MinBaths:         "minBaths",
	criteria.MinSqft:          "minSqft",
	criteria.MaxSqft:          "maxSqft",
	criteria.MinLotSize:       "minLotSize",
	criteria.MaxLotSize:       "maxLotSize",
	criteria.MinYearBuilt:     "minYearBuilt",
	criteria.MaxYearBuilt:     "maxYearBuilt",
	criteria.MinGarage:        "minGarageSpaces",
	criteria.ClosedWithinDays: "soldWithinDays",
	criteria.PropertyType:     "propertyType",
	criteria.Cities:           "city",
	criteria.Subdivisions:     "subdivision",
	criteria.PostalCodes:      "postalCode",
	criteria.Schools:          "school",
	criteria.Pool:             "pool",
	criteria.Waterfront:       "waterfront",
}

func (homeReview) ID() ID             { return HomeReview }
func (homeReview) SearchPath() string { return "/api/homereview/properties" }
func (homeReview) HealthPath() string { return "/api/homereview/health" }

func (homeReview) Encode(c criteria.Criteria) url.Values {
	q := url.Values{}
	if st := c.StatusSet(); len(st) > 0 {
		names := make([]string, len(st))
		for i, s := range st {
			names[i] = string(s)
		}
		q.Set("statuses", strings.Join(names, ","))
	}
	homeReviewVocabulary.encode(q, c)
	return q
}

func (homeReview) Paginate(q url.Values, p Page) {
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset()))
}

func (homeReview) Decode(raw []byte) (Result, error) {
	type hrProperty struct {
		ID          stringNumber `json:"id"`
		ListingID   stringNumber `json:"listingId"`
		Address     string       `json:"address"`
		City        string       `json:"city"`
		State       string       `json:"state"`
		Zip         string       `json:"zip"`
		PostalCode  string       `json:"postalCode"`
		Subdivision string       `json:"subdivision"`
		ListPrice   stringNumber `json:"listPrice"`
		ClosePrice  stringNumber `json:"closePrice"`
		Beds        stringNumber `json:"beds"`
		Baths       stringNumber `json:"baths"`
		Sqft        stringNumber `json:"sqft"`
		LivingArea  stringNumber `json:"livingArea"`
		LotSize     stringNumber `json:"lotSize"`
		YearBuilt   stringNumber `json:"yearBuilt"`
		Status      string       `json:"status"`
		Photos      []string     `json:"photos"`
		Latitude    stringNumber `json:"latitude"`
		Longitude   stringNumber `json:"longitude"`
	}
	var root struct {
		Properties []hrProperty `json:"properties"`
		Count      int          `json:"count"`
	}
	if err := json.Unmarshal(raw, &root); err != nil {
		return Result{}, err
	}
	out := make([]Property, 0, len(root.Properties))
	for _, p := range root.Properties {
		area := p.LivingArea.Float()
		if area == 0 {
			area = p.Sqft.Float()
		}
		out = append(out, Property{
			ID:          firstNonEmpty(string(p.ID), string(p.ListingID)),
			Address:     p.Address,
			City:        p.City,
			State:       p.State,
			PostalCode:  firstNonEmpty(p.PostalCode, p.Zip),
			Subdivision: p.Subdivision,
			ListPrice:   p.ListPrice.Float(),
			ClosePrice:  p.ClosePrice.Float(),
			Beds:        p.Beds.Float(),
			Baths:       p.Baths.Float(),
			LivingArea:  area,
			LotSize:     p.LotSize.Float(),
			YearBuilt:   p.YearBuilt.Int(),
			Status:      mapStatus(p.Status),
			Photos:      nonEmptyStrings(p.Photos),
			Lat:         p.Latitude.Coord(),
			Lon:         p.Longitude.Coord(),
			Source:      string(HomeReview),
		})
	}
	total := root.Count
	if total < len(out) {
		total = len(out)
	}
	return Result{Properties: out, Total: total, Source: string(HomeReview)}, nil
}
