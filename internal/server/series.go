package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/series"
)

func userIDFrom(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeSeriesRequest(r *http.Request) (domain.GenerateSeriesRequest, error) {
	var req domain.GenerateSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.New("invalid request body")
	}
	if req.TopicDetail == "" {
		return req, errors.New("topicDetail is required")
	}
	if req.NumPosts <= 0 {
		return req, errors.New("numPosts must be positive")
	}
	return req, nil
}

func seriesErrorStatus(err error) int {
	switch {
	case errors.Is(err, series.ErrInvalidPlatform):
		return http.StatusBadRequest
	case errors.Is(err, series.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleGenerateSeries(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "missing or invalid X-User-Id header")
		return
	}
	req, err := decodeSeriesRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.series.Generate(r.Context(), userID, req)
	if err != nil {
		s.logger.Error("Series generation failed", "userID", userID, "error", err)
		s.respondError(w, seriesErrorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"seriesId": result.SeriesID,
		"postIds":  result.PostIDs,
	})
}

// handleGenerateSeriesStream emits newline-delimited JSON: one seriesId line,
// then one line per persisted post, then an error line if generation stopped
// early. Each line is flushed as soon as it is written so clients see posts
// as they are produced.
func (s *Server) handleGenerateSeriesStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "missing or invalid X-User-Id header")
		return
	}
	req, err := decodeSeriesRequest(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	enc := json.NewEncoder(w)
	started := false
	headerSent := false

	// The NDJSON headers go out with the first line, so validation failures
	// that happen before anything is generated still get a real status code.
	writeLine := func(v any) error {
		if !started {
			started = true
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	seriesID, err := s.series.GenerateStream(r.Context(), userID, req,
		func(seriesID int64, post *domain.Post) error {
			if !headerSent {
				headerSent = true
				if err := writeLine(map[string]int64{"seriesId": seriesID}); err != nil {
					return err
				}
			}
			return writeLine(map[string]any{"post": post})
		})
	if err != nil {
		s.logger.Error("Series stream stopped", "userID", userID, "error", err)
		if !started && seriesID == 0 {
			s.respondError(w, seriesErrorStatus(err), err.Error())
			return
		}
		if !headerSent && seriesID != 0 {
			_ = writeLine(map[string]int64{"seriesId": seriesID})
		}
		_ = writeLine(map[string]string{"error": err.Error()})
	}
}
