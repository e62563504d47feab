package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/postpilot/postpilot/internal/repositories/post"
	seriesrepo "github.com/postpilot/postpilot/internal/repositories/series"
)

func (s *Server) handleTriggerPublish(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Manual publish run triggered")
	if err := s.runner.Run(r.Context()); err != nil {
		s.logger.Error("Publish run failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "publish run failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "publish run completed"})
}

func (s *Server) handlePostLogs(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	logs, err := s.publishLogRepo.ListByPost(r.Context(), postID)
	if err != nil {
		s.logger.Error("Failed to list publish logs", "postID", postID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list publish logs")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	p, err := s.postRepo.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "post not found")
			return
		}
		s.logger.Error("Failed to load post", "postID", postID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load post")
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid series id")
		return
	}

	sr, err := s.seriesRepo.GetByID(r.Context(), seriesID)
	if err != nil {
		if errors.Is(err, seriesrepo.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "series not found")
			return
		}
		s.logger.Error("Failed to load series", "seriesID", seriesID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load series")
		return
	}
	s.respondJSON(w, http.StatusOK, sr)
}
