// Package pagination reads list windows from query strings and wraps list
// responses.
package pagination

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a list window.
type Params struct {
	Limit  int
	Offset int
}

func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

// FromContext reads ?limit= and ?offset=. A 1-based ?page= is honoured
// when offset is absent. Bad values fall back to the defaults.
func FromContext(c echo.Context) Params {
	p := Params{Limit: queryInt(c, "limit"), Offset: queryInt(c, "offset")}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	if p.Offset <= 0 {
		p.Offset = 0
		if page := queryInt(c, "page"); page > 1 {
			p.Offset = (page - 1) * p.Limit
		}
	}
	return p
}

// Optional is FromContext for lists that are returned whole unless the
// caller asks for a window. ok is false, with a zero Limit, when none of
// limit, offset or page is present.
func Optional(c echo.Context) (p Params, ok bool) {
	q := c.QueryParams()
	if !q.Has("limit") && !q.Has("offset") && !q.Has("page") {
		return Params{}, false
	}
	return FromContext(c), true
}

// HeaderTotalCount carries the unwindowed size of a bare-array list.
const HeaderTotalCount = "X-Total-Count"

// WriteList sends items as a bare JSON array. A windowed list also reports
// the full count in X-Total-Count.
func WriteList(c echo.Context, items interface{}, total int, windowed bool) error {
	if windowed {
		c.Response().Header().Set(HeaderTotalCount, strconv.Itoa(total))
	}
	return c.JSON(http.StatusOK, items)
}

// Response is the envelope returned by the paged list endpoints.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"hasMore"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{Data: data, Total: total, Limit: limit, Offset: offset, HasMore: offset+limit < total}
}
