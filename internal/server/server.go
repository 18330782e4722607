// Package server exposes the glimmerd daemon over HTTP: the eye
// tracker session endpoints the reading client drives, the narration
// endpoints, the pictures library, and a websocket feed for observers.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/zekun-wu/EyeReadDemo/internal/config"
	"github.com/zekun-wu/EyeReadDemo/internal/device"
	"github.com/zekun-wu/EyeReadDemo/internal/gallery"
	"github.com/zekun-wu/EyeReadDemo/internal/narration"
)

// maxUploadBytes caps direct page uploads.
const maxUploadBytes = 10 << 20

type Server struct {
	cfg         config.ServerConfig
	device      *device.Service
	narrator    *narration.Service
	broadcaster *Broadcaster
	log         *slog.Logger
	started     time.Time

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(cfg config.ServerConfig, dev *device.Service, narrator *narration.Service, broadcaster *Broadcaster, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		cfg:            cfg,
		device:         dev,
		narrator:       narrator,
		broadcaster:    broadcaster,
		log:            log,
		started:        time.Now(),
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}
	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}
	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/eye-tracking/connect", s.handleConnect)
	mux.HandleFunc("/eye-tracking/set-context", s.handleSetContext)
	mux.HandleFunc("/eye-tracking/start", s.handleStart)
	mux.HandleFunc("/eye-tracking/stop", s.handleStop)
	mux.HandleFunc("/eye-tracking/gaze", s.handleGaze)
	mux.HandleFunc("/eye-tracking/status", s.handleStatus)
	mux.HandleFunc("/api/pictures", s.handlePictures)
	mux.HandleFunc("/generate", s.handleGenerate)
	mux.HandleFunc("/generate-from-filename", s.handleGenerateFromFilename)
	mux.HandleFunc("/cleanup", s.handleCleanup)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/static/", http.StripPrefix("/static/",
		cacheControl("public, max-age=3600", http.FileServer(http.Dir(s.cfg.StaticDir)))))
	mux.Handle("/pictures/", http.StripPrefix("/pictures/", http.FileServer(http.Dir(s.cfg.PicturesDir))))
}

// actionResponse is the shared reply shape of the session lifecycle
// endpoints. Failures travel in-band as success=false so the client
// can fold them into its own outcome handling.
type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type gazeResponse struct {
	Success  bool         `json:"success"`
	Position *GazePayload `json:"current_position,omitempty"`
	Message  string       `json:"message,omitempty"`
}

type statusResponse struct {
	device.Status
	Observers     int     `json:"ws_clients"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.device.Connect(); err != nil {
		writeJSON(w, actionResponse{Success: false, Message: err.Error()})
		return
	}
	s.publishSession()
	writeJSON(w, actionResponse{Success: true, Message: fmt.Sprintf("Connected to %s", s.device.Info().Name)})
}

func (s *Server) handleSetContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, actionResponse{Success: false, Message: "invalid form data"})
		return
	}
	name := strings.TrimSpace(r.FormValue("image_filename"))
	if name == "" {
		writeJSON(w, actionResponse{Success: false, Message: "image_filename is required"})
		return
	}
	s.device.SetImageContext(name)
	s.publishSession()
	writeJSON(w, actionResponse{Success: true, Message: fmt.Sprintf("Context set to %s", name)})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.device.Start(); err != nil {
		writeJSON(w, actionResponse{Success: false, Message: err.Error()})
		return
	}
	s.publishSession()
	writeJSON(w, actionResponse{Success: true, Message: "Eye tracking started"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.device.Stop(); err != nil {
		writeJSON(w, actionResponse{Success: false, Message: err.Error()})
		return
	}
	s.publishSession()
	writeJSON(w, actionResponse{Success: true, Message: "Eye tracking stopped"})
}

func (s *Server) handleGaze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pos, ok := s.device.CurrentPosition()
	if !ok {
		writeJSON(w, gazeResponse{Success: false, Message: "no gaze data available"})
		return
	}
	payload := PositionPayload(pos)
	writeJSON(w, gazeResponse{Success: true, Position: &payload})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{
		Status:        s.device.Status(),
		Observers:     s.broadcaster.ClientCount(),
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		resp.CPUPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemoryPercent = vm.UsedPercent
	}
	writeJSON(w, resp)
}

func (s *Server) handlePictures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names, err := gallery.List(s.cfg.PicturesDir)
	if err != nil {
		s.log.Error("list pictures", "dir", s.cfg.PicturesDir, "error", err)
		http.Error(w, "cannot list pictures", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, PicturesPayload{Pictures: names, Count: len(names)})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		http.Error(w, "file must be an image", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		http.Error(w, "cannot read upload", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadBytes {
		http.Error(w, "image too large (max 10MB)", http.StatusBadRequest)
		return
	}

	age, language, err := narrationParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := s.narrator.Generate(r.Context(), narration.Image{Data: data}, age, language)
	if err != nil {
		s.writeNarrationError(w, err)
		return
	}
	writeJSON(w, n)
}

func (s *Server) handleGenerateFromFilename(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	age, language, err := narrationParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	names := strings.Split(r.FormValue("image_filenames"), ",")
	n, err := s.narrator.GenerateFromFiles(r.Context(), names, age, language)
	if err != nil {
		s.writeNarrationError(w, err)
		return
	}
	writeJSON(w, n)
}

func (s *Server) writeNarrationError(w http.ResponseWriter, err error) {
	if errors.Is(err, narration.ErrInvalidRequest) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Error("narration failed", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func narrationParams(r *http.Request) (age int, language string, err error) {
	age = 5
	if v := strings.TrimSpace(r.FormValue("age")); v != "" {
		age, err = strconv.Atoi(v)
		if err != nil {
			return 0, "", errors.New("age must be a number")
		}
	}
	language = strings.TrimSpace(r.FormValue("language"))
	if language == "" {
		language = "en-US"
	}
	return age, language, nil
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	deleted, err := s.SweepAudio(time.Hour)
	if err != nil {
		http.Error(w, fmt.Sprintf("cleanup failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"message": fmt.Sprintf("Cleaned up %d files", deleted)})
}

// SweepAudio removes generated narration audio older than maxAge and
// reports how many files went away. The cleanup endpoint and the
// daemon's janitor both use it.
func (s *Server) SweepAudio(maxAge time.Duration) (int, error) {
	paths, err := filepath.Glob(filepath.Join(s.cfg.StaticDir, "narration_*.mp3"))
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(p); err != nil {
			s.log.Warn("sweep audio file", "file", p, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		s.log.Warn("observer rejected", "remote", r.RemoteAddr, "error", err)
		conn.Close()
		return
	}
	s.log.Info("observer connected", "remote", r.RemoteAddr)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.log.Info("observer disconnected", "remote", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "message": "GlimmerRead API is running!"})
}

func (s *Server) publishSession() {
	s.broadcaster.PublishSession(s.device.Status())
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := parsed.Host
	if host == "" {
		return false
	}
	if host == r.Host {
		return true
	}
	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// cacheControl marks responses cacheable. Generated audio never changes
// under a given name, so observers can hold it for the sweep interval.
func cacheControl(value string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func ListenAndServe(host string, port int, mux *http.ServeMux, log *slog.Logger) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Info("daemon listening", "addr", addr)
	return http.ListenAndServe(addr, securityHeaders(mux))
}
