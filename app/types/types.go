package types

import (
	"context"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
)

type Method string

const (
	Get    Method = "GET"
	Post   Method = "POST"
	Put    Method = "PUT"
	Patch  Method = "PATCH"
	Delete Method = "DELETE"
)

// Handler produces the response for one dispatched request. Route parameters
// extracted by the router are available on req.Params.
type Handler func(ctx context.Context, req *request.Request) *response.Response
