package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mkowalczyk/reactions-bot/internal/service"
)

// ReportHandler exposes the reporting queries over the admin HTTP surface.
type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type TopMessageResponse struct {
	MessageID int64 `json:"messageId"`
	Count     int64 `json:"count"`
}

func (h *ReportHandler) GetRanking(c echo.Context) error {
	chatID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid chat id"))
	}
	days, err := daysParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid days"))
	}

	ranking, err := h.reports.Ranking(c.Request().Context(), chatID, days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to compute ranking"))
	}
	return c.JSON(http.StatusOK, ranking)
}

func (h *ReportHandler) GetTopMessages(c echo.Context) error {
	chatID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid chat id"))
	}
	days, err := daysParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid days"))
	}

	count := service.DefaultTopMessageCount
	if raw := c.QueryParam("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > service.MaxTopMessageCount {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid count"))
		}
	}

	rows, err := h.reports.TopMessages(c.Request().Context(), chatID, days, count, c.QueryParam("author"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to compute top messages"))
	}

	resp := make([]TopMessageResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, TopMessageResponse{MessageID: row.OriginalID, Count: row.Count})
		if len(resp) >= count {
			break
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func daysParam(c echo.Context) (int, error) {
	days := service.DefaultRankingDays
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, echo.ErrBadRequest
		}
		days = parsed
	}
	return days, nil
}
