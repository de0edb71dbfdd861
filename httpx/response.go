package httpx

import "github.com/adeilh/go-rakh-starter/apperr"

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Data    any           `json:"data"`
	Error   *apperr.Error `json:"error"`
	Message string        `json:"message"`
	Links   []Link        `json:"links"`
}

// Link points a client at a related resource.
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method"`
}

func NewLink(rel, href, method string) Link {
	return Link{Rel: rel, Href: href, Method: method}
}

// OK wraps a successful payload.
func OK(data any) *Response {
	return &Response{Data: data, Links: []Link{}}
}

// Failure wraps an error.
func Failure(err *apperr.Error) *Response {
	return &Response{Error: err, Links: []Link{}}
}

func (r *Response) WithMessage(message string) *Response {
	r.Message = message
	return r
}

func (r *Response) WithLink(link Link) *Response {
	r.Links = append(r.Links, link)
	return r
}

// JSON writes the envelope with the given status code.
func (r *Response) JSON(c Context, code int) error {
	return c.JSON(code, r)
}
