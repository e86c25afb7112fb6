package adapt

import (
	"fmt"
	"net/url"
	"strconv"

	"carhunt-engine/internal/domain"
)

// autotraderDefaultArea is where searches land when the query has no
// location. The scraper needs some city-state segment to return inventory.
const autotraderDefaultArea = "san-mateo-ca"

// AdaptAutoTrader builds /cars-for-sale/<make>/<model>/<city-state> listing
// URLs. Like CarMax, AutoTrader drops the HD qualifier from heavy-duty
// series (sierra-3500, not sierra-3500hd).
func AdaptAutoTrader(q domain.StructuredQuery) SourceParams {
	p := SourceParams{Source: SourceAutoTrader, Query: q.Keywords()}

	make_, model := q.Make(), q.Model()
	if make_ == "" || model == "" {
		p.Arg = p.Query
		return p
	}

	base, series := splitModelSeries(model)
	modelSlug := slug(base)
	if series != "" {
		modelSlug += "-" + slug(stripHD(series))
	}

	area := autotraderDefaultArea
	if q.Location.City != "" && q.Location.State != "" {
		area = slug(q.Location.City) + "-" + slug(q.Location.State)
	}

	v := url.Values{}
	radius := q.Location.Distance
	if radius <= 0 {
		radius = 500
	}
	v.Set("searchRadius", strconv.Itoa(radius))
	if q.Year > 0 {
		v.Set("startYear", strconv.Itoa(q.Year))
		v.Set("endYear", strconv.Itoa(q.Year))
	} else {
		if q.YearMin > 0 {
			v.Set("startYear", strconv.Itoa(q.YearMin))
		}
		if q.YearMax > 0 {
			v.Set("endYear", strconv.Itoa(q.YearMax))
		}
	}
	if q.MaxPrice > 0 {
		v.Set("maxPrice", strconv.Itoa(int(q.MaxPrice)))
	}
	if q.Location.Zip != "" {
		v.Set("zip", q.Location.Zip)
	}

	p.URL = fmt.Sprintf("https://www.autotrader.com/cars-for-sale/%s/%s/%s?%s",
		slug(make_), modelSlug, area, v.Encode())
	p.Arg = p.URL
	return p
}
