package provider

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/yourorg/agentdesk-api/internal/criteria"
)

// mlsGrid speaks RESO field names: repeated standardStatus values,
// limit/offset paging, {properties, total, hasMore, source} responses.
type mlsGrid struct{}

var mlsGridStatus = map[criteria.Status]string{
	criteria.StatusActive:        "Active",
	criteria.StatusUnderContract: "ActiveUnderContract",
	criteria.StatusClosed:        "Closed",
}

var mlsGridVocabulary = vocabulary{
	criteria.MinPrice:         "minListPrice",
	criteria.MaxPrice:         "maxListPrice",
	criteria.MinBeds:          "minBedroomsTotal",
	criteria.MaxBeds:          "maxBedroomsTotal",
	criteria.MinBaths:         "minBathroomsTotal",
	criteria.MinSqft:          "minLivingArea",
	criteria.MaxSqft:          "maxLivingArea",
	criteria.MinLotSize:       "minLotSizeSquareFeet",
	criteria.MaxLotSize:       "maxLotSizeSquareFeet",
	criteria.MinYearBuilt:     "minYearBuilt",
	criteria.MaxYearBuilt:     "maxYearBuilt",
	criteria.MinGarage:        "minGarageSpaces",
	criteria.ClosedWithinDays: "closeDateWithinDays",
	criteria.PropertyType:     "propertySubType",
	criteria.Cities:           "city",
	criteria.Subdivisions:     "subdivisionName",
	criteria.PostalCodes:      "postalCode",
	criteria.Schools:          "schoolName",
	criteria.Pool:             "poolPrivateYN",
	criteria.Waterfront:       "waterfrontYN",
}

func (mlsGrid) ID() ID             { return MLSGrid }
func (mlsGrid) SearchPath() string { return "/api/mlsgrid/search" }
func (mlsGrid) HealthPath() string { return "/api/health" }

func (mlsGrid) Encode(c criteria.Criteria) url.Values {
	q := url.Values{}
	for _, s := range c.StatusSet() {
		q.Add("standardStatus", mlsGridStatus[s])
	}
	mlsGridVocabulary.encode(q, c)
	return q
}

func (mlsGrid) Paginate(q url.Values, p Page) {
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset()))
}

func (mlsGrid) Decode(raw []byte) (Result, error) {
	type media struct {
		MediaURL string `json:"MediaURL"`
	}
	type resoProperty struct {
		ListingKey            stringNumber `json:"ListingKey"`
		ListingID             stringNumber `json:"ListingId"`
		UnparsedAddress       string       `json:"UnparsedAddress"`
		City                  string       `json:"City"`
		StateOrProvince       string       `json:"StateOrProvince"`
		PostalCode            string       `json:"PostalCode"`
		SubdivisionName       string       `json:"SubdivisionName"`
		ListPrice             stringNumber `json:"ListPrice"`
		ClosePrice            stringNumber `json:"ClosePrice"`
		BedroomsTotal         stringNumber `json:"BedroomsTotal"`
		BathroomsTotalInteger stringNumber `json:"BathroomsTotalInteger"`
		BathroomsTotalDecimal stringNumber `json:"BathroomsTotalDecimal"`
		LivingArea            stringNumber `json:"LivingArea"`
		LotSizeSquareFeet     stringNumber `json:"LotSizeSquareFeet"`
		YearBuilt             stringNumber `json:"YearBuilt"`
		StandardStatus        string       `json:"StandardStatus"`
		Media                 []media      `json:"Media"`
		Latitude              stringNumber `json:"Latitude"`
		Longitude             stringNumber `json:"Longitude"`
	}
	var root struct {
		Properties []resoProperty `json:"properties"`
		Total      int            `json:"total"`
		HasMore    bool           `json:"hasMore"`
		Source     string         `json:"source"`
	}
	if err := json.Unmarshal(raw, &root); err != nil {
		return Result{}, err
	}
	out := make([]Property, 0, len(root.Properties))
	for _, p := range root.Properties {
		baths := p.BathroomsTotalDecimal.Float()
		if baths == 0 {
			baths = p.BathroomsTotalInteger.Float()
		}
		photos := make([]string, 0, len(p.Media))
		for _, m := range p.Media {
			if m.MediaURL != "" {
				photos = append(photos, m.MediaURL)
			}
		}
		out = append(out, Property{
			ID:          firstNonEmpty(string(p.ListingKey), string(p.ListingID)),
			Address:     p.UnparsedAddress,
			City:        p.City,
			State:       p.StateOrProvince,
			PostalCode:  p.PostalCode,
			Subdivision: p.SubdivisionName,
			ListPrice:   p.ListPrice.Float(),
			ClosePrice:  p.ClosePrice.Float(),
			Beds:        p.BedroomsTotal.Float(),
			Baths:       baths,
			LivingArea:  p.LivingArea.Float(),
			LotSize:     p.LotSizeSquareFeet.Float(),
			YearBuilt:   p.YearBuilt.Int(),
			Status:      mapStatus(p.StandardStatus),
			Photos:      photos,
			Lat:         p.Latitude.Coord(),
			Lon:         p.Longitude.Coord(),
			Source:      string(MLSGrid),
		})
	}
	return Result{
		Properties: out,
		Total:      root.Total,
		HasMore:    root.HasMore,
		Source:     firstNonEmpty(root.Source, string(MLSGrid)),
	}, nil
}
