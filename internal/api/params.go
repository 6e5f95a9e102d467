package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/genotiles/server/internal/tileset"
)

// Output formats accepted by the chrom-sizes endpoint.
const (
	formatJSON = "json"
	formatTSV  = "tsv"
)

func parsePagination(q url.Values) (page, pageSize int, err error) {
	page, err = intParam(q, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("page must be >= 1, got %d", page)
	}

	pageSize, err = intParam(q, "page_size", tileset.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if pageSize < 1 || pageSize > tileset.MaxPageSize {
		return 0, 0, fmt.Errorf("page_size must be between 1 and %d, got %d", tileset.MaxPageSize, pageSize)
	}
	return page, pageSize, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", name, raw)
	}
	return v, nil
}

// parseListQuery reads ac, t, dt, o, r, page and page_size.
func parseListQuery(q url.Values) (tileset.ListQuery, error) {
	page, pageSize, err := parsePagination(q)
	if err != nil {
		return tileset.ListQuery{}, err
	}

	order, ok := tileset.ParseSortKey(strings.TrimSpace(q.Get("o")))
	if !ok {
		return tileset.ListQuery{}, fmt.Errorf("invalid o: unknown sort field %q", q.Get("o"))
	}

	reverse := false
	if raw := strings.TrimSpace(q.Get("r")); raw != "" {
		reverse, err = strconv.ParseBool(raw)
		if err != nil {
			return tileset.ListQuery{}, fmt.Errorf("invalid r: %q is not a boolean", raw)
		}
	}

	return tileset.ListQuery{
		Autocomplete: q.Get("ac"),
		Filetype:     q.Get("t"),
		Datatypes:    nonEmpty(q["dt"]),
		OrderBy:      order,
		Reverse:      reverse,
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// requiredList returns the non-empty values of a repeatable parameter.
func requiredList(q url.Values, name string) ([]string, error) {
	values := nonEmpty(q[name])
	if len(values) == 0 {
		return nil, fmt.Errorf("missing required query param: %s", name)
	}
	return values, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type chromSizesParams struct {
	id         string
	format     string
	cumulative bool
}

func parseChromSizesParams(q url.Values) (chromSizesParams, error) {
	p := chromSizesParams{
		id:     strings.TrimSpace(q.Get("id")),
		format: formatJSON,
	}
	if p.id == "" {
		return p, fmt.Errorf("missing required query param: id")
	}

	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		switch strings.ToLower(raw) {
		case formatJSON, formatTSV:
			p.format = strings.ToLower(raw)
		default:
			return p, fmt.Errorf("invalid type %q: expected json or tsv", raw)
		}
	}

	switch raw := strings.TrimSpace(q.Get("cum")); raw {
	case "", "0":
	case "1":
		p.cumulative = true
	default:
		return p, fmt.Errorf("invalid cum %q: expected 0 or 1", raw)
	}
	return p, nil
}
