package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/qrforge/qrforge/qr"
	"github.com/qrforge/qrforge/store"
)

// handleQRImage serves GET /qr: query parameters in, raw image out.
// Parameters: data (required), size (module size px), border (modules),
// level (L/M/Q/H), format (png/jpeg/bmp), caption.
func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data := q.Get("data")
	if data == "" {
		writeError(w, http.StatusBadRequest, "missing data parameter")
		return
	}
	if s.MaxDataLen > 0 && len(data) > s.MaxDataLen {
		writeError(w, http.StatusRequestEntityTooLarge, "data exceeds the configured maximum length")
		return
	}

	opts := s.Defaults
	opts.Caption = q.Get("caption")
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 64 {
			writeError(w, http.StatusBadRequest, "size must be an integer between 1 and 64")
			return
		}
		opts.ModuleSize = n
	}
	if v := q.Get("border"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 32 {
			writeError(w, http.StatusBadRequest, "border must be an integer between 0 and 32")
			return
		}
		opts.Border = n
	}
	if v := q.Get("level"); v != "" {
		level, err := qr.ParseLevel(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Level = level
	}

	format := qr.FormatPNG
	if v := q.Get("format"); v != "" {
		f, err := qr.ParseFormat(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	code, err := qr.Encode(data, opts)
	if err != nil {
		s.writeEncodeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := code.EncodeTo(&buf, format); err != nil {
		s.Log.Error("image encoding failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "image encoding failed")
		return
	}

	s.record(code, string(format))

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Cache-Control", "max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type qrRequest struct {
	Data       string `json:"data"`
	ModuleSize int    `json:"module_size,omitempty"`
	Border     *int   `json:"border,omitempty"` // pointer so border 0 is expressible
	Level      string `json:"level,omitempty"`
	Caption    string `json:"caption,omitempty"`
}

type qrResponse struct {
	PNGBase64 string `json:"png_base64"`
	DataURI   string `json:"data_uri"`
	Width     int    `json:"width"`
}

// handleQRJSON serves POST /qr: JSON request in, base64 PNG out. The data
// URI form can be dropped straight into an img tag.
func (s *Server) handleQRJSON(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Data == "" {
		writeError(w, http.StatusBadRequest, "missing data field")
		return
	}
	if s.MaxDataLen > 0 && len(req.Data) > s.MaxDataLen {
		writeError(w, http.StatusRequestEntityTooLarge, "data exceeds the configured maximum length")
		return
	}

	opts := s.Defaults
	opts.Caption = req.Caption
	if req.ModuleSize != 0 {
		if req.ModuleSize < 1 || req.ModuleSize > 64 {
			writeError(w, http.StatusBadRequest, "module_size must be between 1 and 64")
			return
		}
		opts.ModuleSize = req.ModuleSize
	}
	if req.Border != nil {
		if *req.Border < 0 || *req.Border > 32 {
			writeError(w, http.StatusBadRequest, "border must be between 0 and 32")
			return
		}
		opts.Border = *req.Border
	}
	if req.Level != "" {
		level, err := qr.ParseLevel(req.Level)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Level = level
	}

	code, err := qr.Encode(req.Data, opts)
	if err != nil {
		s.writeEncodeError(w, err)
		return
	}

	png, err := code.PNG()
	if err != nil {
		s.Log.Error("image encoding failed", "error", err)
		writeError(w, http.StatusInternalServerError, "image encoding failed")
		return
	}

	s.record(code, string(qr.FormatPNG))

	encoded := base64.StdEncoding.EncodeToString(png)
	writeJSON(w, http.StatusOK, qrResponse{
		PNGBase64: encoded,
		DataURI:   "data:image/png;base64," + encoded,
		Width:     code.Image().Bounds().Dx(),
	})
}

// writeEncodeError maps qr.Encode failures onto HTTP statuses.
func (s *Server) writeEncodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, qr.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, qr.ErrContentTooLong):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		s.Log.Error("encode failed", "error", err)
		writeError(w, http.StatusInternalServerError, "QR encoding failed")
	}
}

// record stores a history entry for a served code. History is best effort;
// failures are logged and the response is unaffected.
func (s *Server) record(code *qr.Code, format string) {
	if s.Store == nil {
		return
	}
	opts := code.Options()
	entry := &store.Entry{
		Content:    code.Content(),
		Format:     format,
		Level:      opts.Level.String(),
		ModuleSize: opts.ModuleSize,
		Border:     opts.Border,
		WidthPx:    (code.Size() + 2*opts.Border) * opts.ModuleSize,
	}
	if err := s.Store.Record(entry); err != nil {
		s.Log.Warn("history record failed", "error", err)
	}
}

func contentType(f qr.Format) string {
	switch f {
	case qr.FormatJPEG:
		return "image/jpeg"
	case qr.FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}
