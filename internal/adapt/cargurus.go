package adapt

import (
	"net/url"
	"strconv"
	"strings"

	"carhunt-engine/internal/domain"
)

// CarGurus enums are SCREAMING_SNAKE where CarMax uses human strings.
var cargurusDrivetrains = map[string]string{
	"four wheel drive":  "FOUR_WHEEL_DRIVE",
	"4wd":               "FOUR_WHEEL_DRIVE",
	"4x4":               "FOUR_WHEEL_DRIVE",
	"all wheel drive":   "ALL_WHEEL_DRIVE",
	"awd":               "ALL_WHEEL_DRIVE",
	"front wheel drive": "FRONT_WHEEL_DRIVE",
	"fwd":               "FRONT_WHEEL_DRIVE",
	"rear wheel drive":  "REAR_WHEEL_DRIVE",
	"rwd":               "REAR_WHEEL_DRIVE",
}

var cargurusFuelTypes = map[string]string{
	"gas":      "GASOLINE",
	"gasoline": "GASOLINE",
	"diesel":   "DIESEL",
	"electric": "ELECTRIC",
	"hybrid":   "HYBRID",
}

// AdaptCarGurus has no make/model path scheme to deep-link into (inventory
// pages key on internal entity ids), so it always searches by text and
// attaches whatever filters CarGurus has parameters for.
func AdaptCarGurus(q domain.StructuredQuery) SourceParams {
	p := SourceParams{Source: SourceCarGurus, Query: q.Keywords()}

	v := url.Values{}
	v.Set("searchText", p.Query)
	if dt, ok := cargurusDrivetrains[strings.ToLower(strings.TrimSpace(q.Drivetrain))]; ok {
		v.Set("driveTrain", dt)
	}
	if ft, ok := cargurusFuelTypes[strings.ToLower(strings.TrimSpace(q.FuelType))]; ok {
		v.Set("fuelType", ft)
	}
	if q.MaxPrice > 0 {
		v.Set("maxPrice", strconv.Itoa(int(q.MaxPrice)))
	}
	if q.MinPrice > 0 {
		v.Set("minPrice", strconv.Itoa(int(q.MinPrice)))
	}
	if q.Location.Zip != "" {
		v.Set("zip", q.Location.Zip)
	}

	if p.Query == "" {
		p.Arg = ""
		return p
	}

	p.URL = "https://www.cargurus.com/Cars/searchresults.action?" + v.Encode()
	p.Arg = p.URL
	return p
}
