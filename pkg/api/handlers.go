package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hwinsight/hic/pkg/assess"
	"github.com/hwinsight/hic/pkg/discovery"
	"github.com/hwinsight/hic/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListHosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := s.store.ListHosts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hosts == nil {
		hosts = []store.Host{}
	}
	writeJSON(w, http.StatusOK, hosts)
}

type createHostRequest struct {
	Hostname        string   `json:"hostname"`
	Address         string   `json:"address,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	AllowPrivileged *bool    `json:"allow_privileged,omitempty"`
}

func (s *Server) handleCreateHost(w http.ResponseWriter, r *http.Request) {
	var req createHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Hostname == "" {
		writeError(w, http.StatusBadRequest, "hostname is required")
		return
	}

	now := time.Now().UTC()
	allowPrivileged := true
	if req.AllowPrivileged != nil {
		allowPrivileged = *req.AllowPrivileged
	}
	host := &store.Host{
		Hostname:        req.Hostname,
		Address:         req.Address,
		Tags:            req.Tags,
		Notes:           req.Notes,
		IsActive:        true,
		AllowPrivileged: allowPrivileged,
		LastSeenAt:      &now,
	}

	if err := s.store.CreateHost(r.Context(), host); err != nil {
		if errors.Is(err, store.ErrHostExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, host)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []store.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

type createJobRequest struct {
	HostID string `json:"host_id"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.HostID == "" {
		writeError(w, http.StatusBadRequest, "host_id is required")
		return
	}

	job, err := s.store.CreateJob(r.Context(), req.HostID)
	if err != nil {
		if errors.Is(err, store.ErrHostNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.runner.Enqueue(job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.store.GetReportByJobID(r.Context(), r.PathValue("job_id"))
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	session := assess.NewSession(s.logger)
	d := discovery.New(session, s.logger,
		s.cfg.Discovery.AvahiServiceType,
		s.cfg.Discovery.SSHConfigPaths,
		s.cfg.Discovery.BrowseTimeoutD)
	writeJSON(w, http.StatusOK, d.Discover())
}
