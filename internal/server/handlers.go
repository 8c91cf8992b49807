// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/pkg/types"
)

// Form field names accepted by the upload endpoints.
const (
	fieldFile    = "file"
	fieldFiles   = "files"
	fieldTarget  = "target_format"
	fieldRanges  = "ranges"
	fieldQuality = "quality"
)

// statusClientClosed is reported when the caller went away mid-request.
const statusClientClosed = 499

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Status string          `json:"status"`
	Kind   types.ErrorKind `json:"kind"`
	Detail string          `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	table, err := s.svc.Formats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	up, err := formUpload(r, fieldFile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target := r.FormValue(fieldTarget)
	if target == "" {
		s.writeError(w, r, types.Errorf(types.ErrInvalidRequest, "target_format is required"))
		return
	}

	out, err := s.svc.Convert(requestContext(r), types.ConversionRequest{Source: up, Target: types.ParseFormat(target)})
	s.respond(w, r, out, err)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	var inputs []types.Upload
	for _, fh := range r.MultipartForm.File[fieldFiles] {
		f, err := fh.Open()
		if err != nil {
			s.writeError(w, r, types.WrapError(types.ErrInvalidRequest, err, "reading upload"))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeError(w, r, types.WrapError(types.ErrInvalidRequest, err, "reading upload"))
			return
		}
		inputs = append(inputs, types.Upload{Filename: fh.Filename, Data: data})
	}

	out, err := s.svc.Merge(requestContext(r), types.MergeRequest{Inputs: inputs})
	s.respond(w, r, out, err)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	up, err := formUpload(r, fieldFile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.svc.Split(requestContext(r), types.SplitRequest{Input: up, Ranges: r.FormValue(fieldRanges)})
	s.respond(w, r, out, err)
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	up, err := formUpload(r, fieldFile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.svc.Compress(requestContext(r), types.CompressRequest{
		Input:   up,
		Quality: types.Quality(r.FormValue(fieldQuality)),
	})
	s.respond(w, r, out, err)
}

// parseForm reads the multipart body, mapping an exceeded body limit to
// PayloadTooLarge.
func (s *Server) parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return types.WrapError(types.ErrPayloadTooLarge, err,
				"file is too large, maximum supported size is "+strconv.FormatInt(s.maxBytes>>20, 10)+" MB")
		}
		return types.WrapError(types.ErrInvalidRequest, err, "expected a multipart/form-data body")
	}
	return nil
}

func formUpload(r *http.Request, field string) (types.Upload, error) {
	f, fh, err := r.FormFile(field)
	if err != nil {
		return types.Upload{}, types.WrapError(types.ErrInvalidRequest, err, "missing form file "+strconv.Quote(field))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return types.Upload{}, types.WrapError(types.ErrInvalidRequest, err, "reading upload")
	}
	return types.Upload{Filename: fh.Filename, Data: data}, nil
}

// requestContext carries chi's request id into the engine.
func requestContext(r *http.Request) context.Context {
	return convert.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, out *types.Outcome, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", out.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Payload)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Payload); err != nil {
		s.log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Warn("writing response failed")
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind types.ErrorKind) int {
	switch kind {
	case types.ErrUnsupportedExtension:
		return http.StatusUnsupportedMediaType
	case types.ErrUnsupportedConversion, types.ErrInvalidPdfInput, types.ErrInvalidPageRange,
		types.ErrInvalidQuality, types.ErrInvalidRequest:
		return http.StatusBadRequest
	case types.ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case types.ErrConversionTimeout:
		return http.StatusGatewayTimeout
	case types.ErrBusy:
		return http.StatusTooManyRequests
	case types.ErrCanceled:
		return statusClientClosed
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := types.KindOf(err)
	status := StatusFor(kind)
	if status == statusClientClosed {
		w.WriteHeader(status)
		return
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"kind":       kind,
		}).Error("request failed")
	}
	if kind == types.ErrBusy {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, ErrorResponse{Status: "error", Kind: kind, Detail: types.PublicDetail(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
