package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/jmehdipour/rfm-dashboard/internal/dashboard"
	"github.com/jmehdipour/rfm-dashboard/internal/model"
	"github.com/labstack/echo/v4"
)

type filtersReq struct {
	Segment     string `json:"segment"`
	MinMonetary string `json:"min_monetary"`
}

type cityReq struct {
	City string `json:"city"`
}

func snapshotHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, dash.Snapshot())
	}
}

func applyFiltersHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req filtersReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if err := dash.ApplyFilters(c.Request().Context(), req.Segment, req.MinMonetary); err != nil {
			st := dash.Snapshot().Status
			msg := st[dashboard.ResourceFilters].Error
			if msg == "" {
				msg = st[dashboard.ResourceAnalysis].Error
			}
			return writeError(c, err, msg)
		}
		return c.JSON(http.StatusOK, dash.Snapshot())
	}
}

func setCityHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req cityReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if err := dash.SetCity(c.Request().Context(), req.City); err != nil {
			return writeError(c, err, dash.Snapshot().Status[dashboard.ResourceRanking].Error)
		}
		return c.JSON(http.StatusOK, dash.Snapshot())
	}
}

func uploadHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please select a CSV or Excel file first."})
		}
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		defer f.Close()

		msg, err := dash.Upload(c.Request().Context(), fh.Filename, f)
		if err != nil && msg == "" {
			return writeError(c, err, dash.Snapshot().Status[dashboard.ResourceUpload].Error)
		}
		// accepted; a failed reload shows up in the dashboard status instead
		return c.JSON(http.StatusOK, map[string]string{"message": msg})
	}
}

func listFilesHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := dash.RefreshFiles(c.Request().Context()); err != nil {
			return writeError(c, err, dash.Snapshot().Status[dashboard.ResourceFiles].Error)
		}
		return c.JSON(http.StatusOK, map[string]any{"files": dash.Snapshot().Files})
	}
}

func downloadHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		}

		name := fmt.Sprintf("upload-%d", id)
		for _, f := range dash.Snapshot().Files {
			if f.ID == id && f.OriginalFilename != "" {
				name = filepath.Base(f.OriginalFilename)
			}
		}

		res := c.Response()
		res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
		res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		// echo commits the 200 on the first written byte, so a failure before
		// any data can still answer with an error status
		if _, err := dash.DownloadFile(c.Request().Context(), id, res); err != nil {
			if res.Committed {
				return nil
			}
			res.Header().Del(echo.HeaderContentDisposition)
			return writeError(c, err, "")
		}
		if !res.Committed {
			res.WriteHeader(http.StatusOK)
		}
		return nil
	}
}

func openModalHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind, ok := model.ParseModalKind(c.Param("kind"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown analytics modal"})
		}
		if kind == model.ModalRevenue {
			period, ok := model.ParseRevenuePeriod(c.QueryParam("period"))
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid period"})
			}
			dash.SetRevenuePeriod(period)
		}

		// the bundle error is part of the snapshot; the modal stays open
		_ = dash.OpenModal(c.Request().Context(), kind)
		snap := dash.Snapshot()
		return c.JSON(http.StatusOK, map[string]any{
			"modal":   snap.Modals[kind],
			"bundles": snap.Bundles,
		})
	}
}

func closeModalHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind, ok := model.ParseModalKind(c.Param("kind"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown analytics modal"})
		}
		dash.CloseModal(kind)
		return c.NoContent(http.StatusNoContent)
	}
}

func insightsHandler(dash *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		text, err := dash.GenerateInsights(c.Request().Context())
		if err != nil {
			return writeError(c, err, dash.Snapshot().Status[dashboard.ResourceInsights].Error)
		}
		return c.JSON(http.StatusOK, map[string]string{"insights": text})
	}
}
