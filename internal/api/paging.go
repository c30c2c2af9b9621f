package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jacentio/recipes/model"
)

type pageParamError struct {
	param string
	value string
}

func (e *pageParamError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.param, e.value)
}

// parsePageRequest reads page, size and sort=id,asc|desc. Without size the
// request is unpaged.
func parsePageRequest(q url.Values) (model.PageRequest, error) {
	var req model.PageRequest
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, &pageParamError{"size", v}
		}
		req.Size = n
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, &pageParamError{"page", v}
		}
		req.Page = n
	}
	if v := q.Get("sort"); v != "" {
		field, dir, _ := strings.Cut(v, ",")
		if field != "id" {
			return req, &pageParamError{"sort", v}
		}
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			req.Desc = true
		default:
			return req, &pageParamError{"sort", v}
		}
	}
	return req, nil
}

// linkHeader returns RFC 5988 navigation links for a paged request, or "" when unpaged.
func linkHeader(u *url.URL, req model.PageRequest, total int) string {
	if req.Unpaged() {
		return ""
	}
	last := 0
	if total > 0 {
		last = (total - 1) / req.Size
	}

	var links []string
	add := func(page int, rel string) {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(req.Size))
		links = append(links, fmt.Sprintf("<%s?%s>; rel=%q", u.Path, q.Encode(), rel))
	}
	if req.Page < last {
		add(req.Page+1, "next")
	}
	if req.Page > 0 {
		prev := req.Page - 1
		if prev > last {
			prev = last
		}
		add(prev, "prev")
	}
	add(last, "last")
	add(0, "first")
	return strings.Join(links, ",")
}
