package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/parser"
	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/report"
)

// reportRequest parses from, to and type. to is inclusive through the end
// of its day in the server's report timezone.
func (s *Server) reportRequest(c *gin.Context) (report.Request, error) {
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" || toStr == "" {
		return report.Request{}, fmt.Errorf("%w: from and to are required", models.ErrInvalidDateRange)
	}
	typ, err := report.ParseType(c.Query("type"))
	if err != nil {
		return report.Request{}, err
	}
	from, to, err := parser.ParseRange(fromStr, toStr, s.loc, s.clock.Now())
	if err != nil {
		return report.Request{}, err
	}
	return report.Request{From: from, To: to, Type: typ}, nil
}

func (s *Server) handleReport(c *gin.Context) {
	req, err := s.reportRequest(c)
	if err != nil {
		s.writeError(c, "invalid report parameters", err)
		return
	}
	r, err := s.reports.Generate(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, "failed to generate report", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleExport(c *gin.Context) {
	req, err := s.reportRequest(c)
	if err != nil {
		s.writeError(c, "invalid report parameters", err)
		return
	}
	r, err := s.reports.Generate(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, "failed to generate report", err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, r); err != nil {
		s.writeError(c, "failed to encode report", err)
		return
	}
	if r.Partial() {
		c.Header("X-Failed-Partitions", fmt.Sprint(r.FailedPartitions))
	}
	filename := report.Filename(req.Type, req.From, req.To, s.loc)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
