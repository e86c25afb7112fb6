package adapt

import (
	"strconv"
	"strings"

	"carhunt-engine/internal/domain"
)

// TrueCar inventory URLs filter through an mmt parameter shaped
// make_model-series_trim (gmc_sierra-3500hd_denali-ultimate). Unlike CarMax
// and AutoTrader, TrueCar keeps the HD qualifier on the series.
var truecarDrivetrains = map[string]string{
	"four wheel drive":  "4WD",
	"4wd":               "4WD",
	"4x4":               "4WD",
	"all wheel drive":   "4WD",
	"awd":               "4WD",
	"rear wheel drive":  "2WD",
	"rwd":               "2WD",
	"front wheel drive": "2WD",
	"fwd":               "2WD",
}

var truecarFuelTypes = map[string]string{
	"diesel":   "Diesel",
	"electric": "Electric",
	"hybrid":   "Hybrid",
}

func truecarBodyStyle(bodyType string) string {
	b := strings.ToLower(bodyType)
	switch {
	case strings.Contains(b, "truck") || strings.Contains(b, "pickup"):
		return "truck"
	case strings.Contains(b, "suv"):
		return "suv"
	case strings.Contains(b, "sedan"):
		return "sedan"
	}
	return ""
}

func AdaptTrueCar(q domain.StructuredQuery) SourceParams {
	p := SourceParams{Source: SourceTrueCar, Query: q.Keywords()}

	make_, model := q.Make(), q.Model()
	if make_ == "" || model == "" {
		p.Arg = p.Query
		return p
	}

	base, series := splitModelSeries(model)
	mmt := slug(make_) + "_" + slug(base)
	if series != "" {
		mmt += "-" + slug(series) // HD stays
	}
	if t := q.Trim(); t != "" {
		mmt += "_" + slug(t)
	}

	// url.Values would escape the [] in parameter names; TrueCar wants them
	// literal, so the query string is assembled by hand.
	params := []string{"mmt[]=" + mmt, "searchRadius=5000"}

	state, city := q.Location.State, q.Location.City
	if state == "" {
		state, city = "ca", "south san francisco"
	}
	params = append(params, "state="+slug(state))
	if city != "" {
		params = append(params, "city="+slug(city))
	}

	switch {
	case q.Year > 0:
		params = append(params, "yearLow="+strconv.Itoa(q.Year), "yearHigh="+strconv.Itoa(q.Year))
	default:
		if q.YearMin > 0 {
			params = append(params, "yearLow="+strconv.Itoa(q.YearMin))
		}
		if q.YearMax > 0 {
			params = append(params, "yearHigh="+strconv.Itoa(q.YearMax))
		}
	}
	if q.MaxPrice > 0 {
		params = append(params, "price_high="+strconv.Itoa(int(q.MaxPrice)), "price_low=2000")
	}
	if bs := truecarBodyStyle(q.BodyType); bs != "" {
		params = append(params, "bodyStyles[]="+bs)
	}
	if dt, ok := truecarDrivetrains[strings.ToLower(strings.TrimSpace(q.Drivetrain))]; ok {
		params = append(params, "driveTrain[]="+dt)
	}
	if ft, ok := truecarFuelTypes[strings.ToLower(strings.TrimSpace(q.FuelType))]; ok {
		params = append(params, "fuelType[]="+ft)
	}

	p.URL = "https://www.truecar.com/used-cars-for-sale/listings/inventory/?" + strings.Join(params, "&")
	p.Arg = p.URL
	return p
}
