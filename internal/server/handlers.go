package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/msalah0e/ontoview/internal/assist"
	"github.com/msalah0e/ontoview/internal/docs"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/ontology"
	"github.com/msalah0e/ontoview/internal/session"
)

const (
	maxOntologyBytes = 32 << 20
	maxRequestBytes  = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// sessionError maps session failures onto status codes.
func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, session.ErrNoOntology):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	m := s.sess.Model()
	if m == nil {
		m = graph.NewBuilder().Build("")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, m.ExportHTML(graph.HTMLOptions{Title: s.cfg.Title, Live: true}))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Status   string       `json:"status"`
	Version  string       `json:"version"`
	Port     int          `json:"port"`
	Uptime   string       `json:"uptime"`
	Requests int64        `json:"requests"`
	Clients  int          `json:"clients"`
	Loaded   bool         `json:"loaded"`
	Stats    *graph.Stats `json:"stats,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:   "running",
		Version:  s.cfg.Version,
		Port:     s.cfg.Port,
		Uptime:   time.Since(s.startedAt).Round(time.Second).String(),
		Requests: s.requests.Load(),
		Clients:  s.hub.Len(),
	}
	if m := s.sess.Model(); m != nil {
		st := m.GetStats()
		resp.Loaded = true
		resp.Stats = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	m := s.sess.Model()
	if m == nil {
		s.sessionError(w, session.ErrNoOntology)
		return
	}
	data, err := m.ExportJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOntologyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	err = s.sess.Load(string(body))
	s.metrics.loads.WithLabelValues(result(err == nil)).Inc()
	if err != nil {
		if errors.Is(err, ontology.ErrMalformed) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Stats)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Save(); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return
	}
	v, err := s.sess.Describe(id)
	if err != nil {
		if errors.Is(err, session.ErrNoOntology) || errors.Is(err, session.ErrClosed) {
			s.sessionError(w, err)
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type selectRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.sess.Select(req.ID)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if req.ID != "" && !ok {
		writeError(w, http.StatusNotFound, "node not found: "+req.ID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"selected": ok})
}

type searchRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	n, ok, err := s.sess.Search(req.Text)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.metrics.searches.WithLabelValues(map[bool]string{true: "found", false: "miss"}[ok]).Inc()
	if !ok {
		writeError(w, http.StatusNotFound, "Node not found.")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type pointRequest struct {
	Type string  `json:"type"`
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	End  bool    `json:"end"`
}

type clickResponse struct {
	ID  string `json:"id,omitempty"`
	Hit bool   `json:"hit"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	id, hit, err := s.sess.Click(req.X, req.Y)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{ID: id, Hit: hit})
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	var err error
	hit := false
	switch req.Type {
	case "down":
		hit, err = s.sess.PointerDown(req.X, req.Y)
	case "move":
		err = s.sess.PointerMove(req.X, req.Y)
	case "up":
		err = s.sess.PointerUp()
	default:
		writeError(w, http.StatusBadRequest, "pointer type must be down, move or up")
		return
	}
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{Hit: hit})
}

// handleDrag drags a node by id in world coordinates.
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	if req.End {
		if err := s.sess.DragEnd(); err != nil {
			s.sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clickResponse{})
		return
	}
	ok, err := s.sess.DragNode(req.ID, req.X, req.Y)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "node not found: "+req.ID)
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{ID: req.ID, Hit: true})
}

type cameraRequest struct {
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Factor float64 `json:"factor"`
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	var req cameraRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Factor == 0 {
		req.Factor = 1
	}
	if req.Factor < 0 {
		writeError(w, http.StatusBadRequest, "factor must be positive")
		return
	}
	if err := s.sess.PanZoom(req.DX, req.DY, req.Factor, req.CX, req.CY); err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Transform)
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	if err := s.sess.Resize(req.Width, req.Height); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assistRequest struct {
	Expr     string `json:"expr"`
	Question string `json:"question"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Expr == "" {
		writeError(w, http.StatusBadRequest, "expr is required")
		return
	}
	reply, err := s.sess.Query(r.Context(), req.Expr)
	s.assistReply(w, assist.ModeQuery, reply, err)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	reply, err := s.sess.Ask(r.Context(), req.Question)
	s.assistReply(w, assist.ModeChat, reply, err)
}

func (s *Server) assistReply(w http.ResponseWriter, mode assist.Mode, reply *assist.Reply, err error) {
	s.metrics.assistantCalls.WithLabelValues(string(mode), result(err == nil)).Inc()
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, reply)
	case errors.Is(err, assist.ErrUnavailable), errors.Is(err, assist.ErrMalformedResponse):
		s.logger.Warn("assistant request failed", zap.String("mode", string(mode)), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.sessionError(w, err)
	}
}

var docContentTypes = map[string]string{
	"":     "text/plain; charset=utf-8",
	"text": "text/plain; charset=utf-8",
	"json": "application/json",
	"yaml": "application/yaml",
	"yml":  "application/yaml",
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	ct, ok := docContentTypes[format]
	if !ok {
		writeError(w, http.StatusBadRequest, "format must be text, json or yaml")
		return
	}
	m := s.sess.Model()
	if m == nil {
		s.sessionError(w, session.ErrNoOntology)
		return
	}
	d, err := docs.Generate(m.Markup())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out, err := d.Render(format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(out)
}
