package adapt

import (
	"strings"

	"carhunt-engine/internal/domain"
)

// CarMax filter vocabulary is human-readable strings ("Four Wheel Drive",
// "Pickup Trucks") which map onto URL path segments. Unknown values are
// dropped, never errors.
var carmaxDrivetrains = map[string]string{
	"four wheel drive":  "four-wheel-drive",
	"4wd":               "four-wheel-drive",
	"4x4":               "four-wheel-drive",
	"all wheel drive":   "all-wheel-drive",
	"awd":               "all-wheel-drive",
	"front wheel drive": "front-wheel-drive",
	"fwd":               "front-wheel-drive",
	"rear wheel drive":  "rear-wheel-drive",
	"rwd":               "rear-wheel-drive",
}

var carmaxFuelTypes = map[string]string{
	"gas":            "gas",
	"gasoline":       "gas",
	"diesel":         "diesel",
	"electric":       "electric",
	"hybrid":         "hybrid",
	"plug-in hybrid": "plug-in-hybrid",
}

// AdaptCarMax builds a CarMax browse URL when make and model are known:
// /cars/gmc/sierra-3500 plus optional filter path segments. CarMax files
// heavy-duty series under the base number, so the trailing HD is stripped.
func AdaptCarMax(q domain.StructuredQuery) SourceParams {
	p := SourceParams{Source: SourceCarMax, Query: q.Keywords()}

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

	segs := []string{"https://www.carmax.com/cars", slug(make_), modelSlug}
	if dt, ok := carmaxDrivetrains[strings.ToLower(strings.TrimSpace(q.Drivetrain))]; ok {
		segs = append(segs, dt)
	}
	if ft, ok := carmaxFuelTypes[strings.ToLower(strings.TrimSpace(q.FuelType))]; ok {
		segs = append(segs, ft)
	}
	if q.ExteriorColor != "" {
		segs = append(segs, slug(q.ExteriorColor))
	}

	p.URL = strings.Join(segs, "/")
	p.Arg = p.URL
	return p
}
