package validators

import (
	"errors"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
)

const multipartMemory = 8 << 20

// ScanForm is the decoded multipart body of a gate scan.
type ScanForm struct {
	PassNumber string
	Photo      []byte
}

// DecodeScanForm reads passNumber and the optional photo part. A missing
// photo yields an empty slice and is judged by the lifecycle engine.
func DecodeScanForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*ScanForm, error) {
	if maxBytes > 0 {
		// room for the other form fields
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo exceeds maximum upload size").
				WithDetails(map[string]any{"maxBytes": maxBytes})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := &ScanForm{PassNumber: strings.TrimSpace(r.FormValue("passNumber"))}
	if form.PassNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"passNumber": "is required"})
	}

	file, _, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid photo part")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read photo")
	}
	form.Photo = data
	return form, nil
}
