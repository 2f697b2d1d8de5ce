package controllers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/gatepass-backend/api/responses"
	"github.com/angelmondragon/gatepass-backend/api/validators"
	"github.com/angelmondragon/gatepass-backend/internal/exports"
	"github.com/angelmondragon/gatepass-backend/internal/gatepasses"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
)

// Exporter renders gate passes as a workbook.
type Exporter interface {
	Export(ctx context.Context, w io.Writer, filter gatepasses.ListFilter) error
}

// AdminExportGatePasses downloads the filtered pass list as XLSX.
func AdminExportGatePasses(exp Exporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := validators.ParseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// render fully before writing so failures still get a JSON envelope
		var buf bytes.Buffer
		if err := exp.Export(r.Context(), &buf, gatepasses.ListFilter{Status: status}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("gatepasses-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		responses.WriteBinary(w, exports.ContentType, int64(buf.Len()), &buf)
	}
}
