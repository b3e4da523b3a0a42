package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
	xhttp "github.com/remita/exchange-gateway/pkg/http"
)

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps the domain error taxonomy onto transport codes.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch model.KindOf(err) {
	case model.KindValidation:
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	case model.KindNotFound:
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case model.KindConflict:
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case model.KindUnauthorized:
		writeError(ctx, xhttp.StatusUnauthorized, err.Error())
	case model.KindUpstream:
		writeError(ctx, xhttp.StatusBadGateway, err.Error())
	default:
		writeError(ctx, xhttp.StatusInternalServerError, "internal error")
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

// ownerID reads the authenticated account from the X-User-ID header the edge
// proxy injects after token validation. Absent header means guest.
func ownerID(ctx *xhttp.RequestCtx) *int64 {
	raw := string(ctx.Request.Header.Peek("X-User-ID"))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
