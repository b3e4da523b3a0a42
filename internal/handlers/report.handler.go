package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/remita/exchange-gateway/internal/model"
	xhttp "github.com/remita/exchange-gateway/pkg/http"
)

type ReportService interface {
	Revenue(ctx context.Context, f model.StatsFilter) (*model.RevenueReport, error)
	Statistics(ctx context.Context, f model.StatsFilter) (*model.Statistics, error)
	HistoryByMonth(ctx context.Context, month, year int, userID *int64) ([]model.HistoryDay, error)
	HistoryByYear(ctx context.Context, year int, userID *int64) ([]model.HistoryMonth, error)
	AvailableYears(ctx context.Context) ([]int, error)
}

type ReportHandler struct {
	svc ReportService
}

func RegisterReportRoutes(e *router.Group, h *ReportHandler) {
	e.GET("/reports/revenue", h.Revenue)
	e.GET("/reports/statistics", h.Statistics)
	e.GET("/reports/history/month", h.HistoryByMonth)
	e.GET("/reports/history/year", h.HistoryByYear)
	e.GET("/reports/history/years", h.AvailableYears)
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{
		svc: svc,
	}
}

type historyDaysResponse struct {
	Days []model.HistoryDay `json:"days"`
}

type historyMonthsResponse struct {
	Months []model.HistoryMonth `json:"months"`
}

type yearsResponse struct {
	Years []int `json:"years"`
}

/* --------------------------------- Routes ----------------------------------- */

func statsFilter(ctx *xhttp.RequestCtx) model.StatsFilter {
	var f model.StatsFilter
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	f.UserID = ownerID(ctx)
	return f
}

func (h *ReportHandler) Revenue(ctx *xhttp.RequestCtx) {
	report, err := h.svc.Revenue(ctx, statsFilter(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, report)
}

func (h *ReportHandler) Statistics(ctx *xhttp.RequestCtx) {
	stats, err := h.svc.Statistics(ctx, statsFilter(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, stats)
}

func (h *ReportHandler) HistoryByMonth(ctx *xhttp.RequestCtx) {
	month, err := strconv.Atoi(query(ctx, "month"))
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid month")
		return
	}
	year, err := strconv.Atoi(query(ctx, "year"))
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid year")
		return
	}

	days, err := h.svc.HistoryByMonth(ctx, month, year, ownerID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, historyDaysResponse{Days: days})
}

func (h *ReportHandler) HistoryByYear(ctx *xhttp.RequestCtx) {
	year, err := strconv.Atoi(query(ctx, "year"))
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid year")
		return
	}

	months, err := h.svc.HistoryByYear(ctx, year, ownerID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, historyMonthsResponse{Months: months})
}

func (h *ReportHandler) AvailableYears(ctx *xhttp.RequestCtx) {
	years, err := h.svc.AvailableYears(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, yearsResponse{Years: years})
}
