package provider

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/agentdesk-api/internal/criteria"
)

// repliersImageBase prefixes the relative image paths Repliers returns.
const repliersImageBase = "https://cdn.repliers.io/"

// repliers uses single-letter status codes, page-number paging and answers
// {properties, total, page, totalPages}.
type repliers struct{}

var repliersStatus = map[criteria.Status]string{
	criteria.StatusActive:        "A",
	criteria.StatusUnderContract: "U",
	criteria.StatusClosed:        "S",
}

var repliersVocabulary = vocabulary{
	criteria.MinPrice:         "minPrice",
	criteria.MaxPrice:         "maxPrice",
	criteria.MinBeds:          "minBedrooms",
	criteria.MaxBeds:          "maxBedrooms",
	criteria.MinBaths:         "minBaths",
	criteria.MinSqft:          "minSqft",
	criteria.MaxSqft:          "maxSqft",
	criteria.MinLotSize:       "minLotSizeSqft",
	criteria.MaxLotSize:       "maxLotSizeSqft",
	criteria.MinYearBuilt:     "minYearBuilt",
	criteria.MaxYearBuilt:     "maxYearBuilt",
	criteria.MinGarage:        "minGarageSpaces",
	criteria.ClosedWithinDays: "minSoldDaysAgo",
	criteria.PropertyType:     "propertyType",
	criteria.Cities:           "city",
	criteria.Subdivisions:     "neighborhood",
	criteria.PostalCodes:      "zip",
	criteria.Schools:          "school",
	criteria.Pool:             "swimmingPool",
	criteria.Waterfront:       "waterfront",
}

func (repliers) ID() ID             { return Repliers }
func (repliers) SearchPath() string { return "/api/repliers/listings" }
func (repliers) HealthPath() string { return "/api/health" }

func (repliers) Encode(c criteria.Criteria) url.Values {
	q := url.Values{}
	for _, s := range c.StatusSet() {
		q.Add("status", repliersStatus[s])
	}
	repliersVocabulary.encode(q, c)
	return q
}

func (repliers) Paginate(q url.Values, p Page) {
	q.Set("pageNum", strconv.Itoa(p.Number))
	q.Set("resultsPerPage", strconv.Itoa(p.Limit))
}

func (repliers) Decode(raw []byte) (Result, error) {
	type rAddress struct {
		StreetNumber string `json:"streetNumber"`
		StreetName   string `json:"streetName"`
		StreetSuffix string `json:"streetSuffix"`
		UnitNumber   string `json:"unitNumber"`
		City         string `json:"city"`
		State        string `json:"state"`
		Zip          string `json:"zip"`
		Neighborhood string `json:"neighborhood"`
	}
	type rListing struct {
		MlsNumber  stringNumber `json:"mlsNumber"`
		Address    rAddress     `json:"address"`
		ListPrice  stringNumber `json:"listPrice"`
		SoldPrice  stringNumber `json:"soldPrice"`
		Status     string       `json:"status"`
		LastStatus string       `json:"lastStatus"`
		Details    struct {
			NumBedrooms  stringNumber `json:"numBedrooms"`
			NumBathrooms stringNumber `json:"numBathrooms"`
			Sqft         stringNumber `json:"sqft"`
			YearBuilt    stringNumber `json:"yearBuilt"`
		} `json:"details"`
		Lot struct {
			SquareFeet stringNumber `json:"squareFeet"`
		} `json:"lot"`
		Images []string `json:"images"`
		Map    struct {
			Latitude  stringNumber `json:"latitude"`
			Longitude stringNumber `json:"longitude"`
		} `json:"map"`
	}
	var root struct {
		Properties []rListing `json:"properties"`
		Total      int        `json:"total"`
		Page       int        `json:"page"`
		TotalPages int        `json:"totalPages"`
	}
	if err := json.Unmarshal(raw, &root); err != nil {
		return Result{}, err
	}
	out := make([]Property, 0, len(root.Properties))
	for _, l := range root.Properties {
		street := joinNonEmpty(" ", l.Address.StreetNumber, l.Address.StreetName, l.Address.StreetSuffix)
		if l.Address.UnitNumber != "" {
			street = joinNonEmpty(" #", street, l.Address.UnitNumber)
		}
		photos := make([]string, 0, len(l.Images))
		for _, img := range nonEmptyStrings(l.Images) {
			if !strings.HasPrefix(img, "http://") && !strings.HasPrefix(img, "https://") {
				img = repliersImageBase + strings.TrimLeft(img, "/")
			}
			photos = append(photos, img)
		}
		out = append(out, Property{
			ID:          string(l.MlsNumber),
			Address:     street,
			City:        l.Address.City,
			State:       l.Address.State,
			PostalCode:  l.Address.Zip,
			Subdivision: l.Address.Neighborhood,
			ListPrice:   l.ListPrice.Float(),
			ClosePrice:  l.SoldPrice.Float(),
			Beds:        l.Details.NumBedrooms.Float(),
			Baths:       l.Details.NumBathrooms.Float(),
			LivingArea:  l.Details.Sqft.Float(),
			LotSize:     l.Lot.SquareFeet.Float(),
			YearBuilt:   l.Details.YearBuilt.Int(),
			Status:      repliersListingStatus(l.Status, l.LastStatus),
			Photos:      photos,
			Lat:         l.Map.Latitude.Coord(),
			Lon:         l.Map.Longitude.Coord(),
			Source:      string(Repliers),
		})
	}
	return Result{
		Properties: out,
		Total:      root.Total,
		Page:       root.Page,
		TotalPages: root.TotalPages,
		HasMore:    root.Page > 0 && root.Page < root.TotalPages,
		Source:     string(Repliers),
	}, nil
}

// A sold listing comes back as status U with lastStatus Sld.
func repliersListingStatus(status, lastStatus string) criteria.Status {
	if strings.EqualFold(lastStatus, "Sld") {
		return criteria.StatusClosed
	}
	return mapStatus(status)
}
