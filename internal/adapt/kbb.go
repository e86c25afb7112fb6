package adapt

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"carhunt-engine/internal/domain"
)

// AdaptKBB builds /cars-for-sale/<condition>/<make>/<model> browse URLs.
// KBB only distinguishes used vs new in the path; every other filter rides
// in the query string, and fields KBB has no parameter for are dropped.
func AdaptKBB(q domain.StructuredQuery) SourceParams {
	p := SourceParams{Source: SourceKBB, Query: q.Keywords()}

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

	v := url.Values{}
	if q.Location.Zip != "" {
		v.Set("zip", q.Location.Zip)
	}
	if q.Location.City != "" {
		v.Set("city", q.Location.City)
	}
	if q.Location.State != "" {
		v.Set("state", strings.ToUpper(q.Location.State))
	}
	if q.Location.Distance > 0 {
		v.Set("searchRadius", strconv.Itoa(q.Location.Distance))
	}

	u := fmt.Sprintf("https://www.kbb.com/cars-for-sale/used/%s/%s", slug(make_), modelSlug)
	if enc := v.Encode(); enc != "" {
		u += "?" + enc
	}

	p.URL = u
	p.Arg = u
	return p
}
