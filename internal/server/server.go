// Server exposes the codec and the filter pipeline over HTTP
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/anas-shakeel/planar-bmp/internal/bmp"
	"github.com/anas-shakeel/planar-bmp/internal/pipeline"
	"github.com/gorilla/mux"
)

// Largest request body accepted, in bytes
const MaxBodySize = 64 << 20

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InfoResponse struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	TopDown     bool   `json:"top_down"`
	BitCount    uint16 `json:"bit_count"`
	FileSize    uint32 `json:"file_size"`
	PixelOffset uint32 `json:"pixel_offset"`
	Stride      int    `json:"stride"`
}

// NewRouter wires every route. Set debug to log per-request timings.
func NewRouter(debug bool) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods("GET")
	r.HandleFunc("/v1/filters", handleListFilters).Methods("GET")
	r.HandleFunc("/v1/filters/{name}", handleFilter(debug)).Methods("POST")
	r.HandleFunc("/v1/info", handleInfo).Methods("POST")
	return r
}

// NewServer returns an http.Server serving NewRouter on addr
func NewServer(addr string, debug bool) *http.Server {
	return &http.Server{
		Handler:      NewRouter(debug),
		Addr:         addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleListFilters(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"filters": pipeline.Names()})
}

func handleFilter(debug bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		name := mux.Vars(r)["name"]

		// Query parameters become step arguments
		args := make(map[string]interface{})
		for key, values := range r.URL.Query() {
			args[key] = values[0]
		}
		steps := []pipeline.Step{{Name: name, Args: args}}
		if err := pipeline.Validate(steps); err != nil {
			sendErrorResponse(w, "unknown_filter", err.Error(), http.StatusNotFound)
			return
		}

		p, err := decodeBody(w, r)
		if err != nil {
			sendDecodeError(w, err)
			return
		}
		decoded := time.Since(start)

		out, err := pipeline.Apply(p, steps)
		if errors.Is(err, bmp.ErrAllocation) {
			sendErrorResponse(w, "too_large", err.Error(), http.StatusRequestEntityTooLarge)
			return
		} else if err != nil {
			sendErrorResponse(w, "filter_error", err.Error(), http.StatusBadRequest)
			return
		}

		var buf bytes.Buffer
		if err := bmp.Encode(&buf, out); err != nil {
			sendErrorResponse(w, "encode_error", err.Error(), http.StatusInternalServerError)
			return
		}

		if debug {
			log.Printf("[DEBUG] %s %dx%d: decode %v, total %v", name, p.Width, p.Height, decoded, time.Since(start))
		}

		w.Header().Set("Content-Type", "image/bmp")
		w.Write(buf.Bytes())
	}
}

func handleInfo(w http.ResponseWriter, r *http.Request) {
	conf, err := bmp.DecodeConfig(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		sendDecodeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(InfoResponse{
		Width:       conf.Width,
		Height:      conf.Height,
		TopDown:     conf.TopDown,
		BitCount:    conf.Info.BitCount,
		FileSize:    conf.File.Size,
		PixelOffset: conf.File.OffBits,
		Stride:      conf.Stride,
	})
}

// Reads the whole body before decoding, so a header claiming more pixels
// than the body holds is rejected without allocating planes for them.
func decodeBody(w http.ResponseWriter, r *http.Request) (*bmp.Planes, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, err
	}

	conf, err := bmp.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if need := conf.DataSize(); int64(len(body)) < need {
		return nil, fmt.Errorf("%w: body holds %d bytes, headers need %d", bmp.ErrFormat, len(body), need)
	}

	return bmp.Decode(bytes.NewReader(body))
}

func sendDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		sendErrorResponse(w, "too_large", err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, bmp.ErrAllocation):
		sendErrorResponse(w, "too_large", err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, bmp.ErrFormat):
		sendErrorResponse(w, "invalid_image", err.Error(), http.StatusBadRequest)
	default:
		sendErrorResponse(w, "read_error", err.Error(), http.StatusBadRequest)
	}
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	})
}
