// Package api serves the internal HTTP surface used by the web console
// backend. It is bound to loopback and guarded by a shared secret; it is
// never exposed publicly.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"

	"github.com/valyala/fasthttp"

	"github.com/TonsaiX/XerlBot/internal/logging"
	"github.com/TonsaiX/XerlBot/internal/massrole"
	"github.com/TonsaiX/XerlBot/internal/metrics"
)

const secretHeader = "X-Internal-Secret"

// Spawn starts a mass-role job without blocking the request.
type Spawn func(job *massrole.Job)

// Server is the internal fasthttp API.
type Server struct {
	addr   string
	secret string
	spawn  Spawn
	stats  *metrics.Registry
	srv    *fasthttp.Server
}

func NewServer(addr, secret string, spawn Spawn, stats *metrics.Registry) *Server {
	s := &Server{
		addr:   addr,
		secret: secret,
		spawn:  spawn,
		stats:  stats,
	}
	s.srv = &fasthttp.Server{
		Handler:            s.route,
		Name:               "xerl-internal",
		MaxRequestBodySize: 64 * 1024,
	}
	return s
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	logging.Info("[API] internal API listening on %s", s.addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		if err := s.srv.Shutdown(); err != nil {
			logging.Warn("[API] shutdown: %v", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return fmt.Errorf("serve internal API: %w", err)
	}
}

// Serve runs the handler on an existing listener. Used by tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/internal/healthz":
		s.handleHealthz(ctx)
	case "/internal/metrics":
		s.handleMetrics(ctx)
	case "/internal/massrole":
		s.handleMassRole(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleHealthz(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"ok":true}`)
}

func (s *Server) handleMetrics(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorized(ctx) {
		writeError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
		return
	}
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(s.stats.Export())
}

// massRoleRequest mirrors the console backend's job payload.
type massRoleRequest struct {
	GuildID         string `json:"guildId"`
	RoleID          string `json:"roleId"`
	Mode            string `json:"mode"`
	UserID          string `json:"userId"`
	IncludeBots     bool   `json:"includeBots"`
	NotifyChannelID string `json:"notifyChannelId"`
	RequestedBy     string `json:"requestedByUserId"`
}

func (s *Server) handleMassRole(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.authorized(ctx) {
		writeError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
		return
	}

	var req massRoleRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
		return
	}

	mode := massrole.Mode(req.Mode)
	switch {
	case req.GuildID == "" || req.RoleID == "":
		writeError(ctx, fasthttp.StatusBadRequest, "guildId and roleId are required")
		return
	case req.NotifyChannelID == "":
		writeError(ctx, fasthttp.StatusBadRequest, "notifyChannelId is required")
		return
	case mode != massrole.ModeAll && mode != massrole.ModeOne:
		writeError(ctx, fasthttp.StatusBadRequest, "mode must be ALL or ONE")
		return
	case mode == massrole.ModeOne && req.UserID == "":
		writeError(ctx, fasthttp.StatusBadRequest, "userId is required for mode ONE")
		return
	}

	job := &massrole.Job{
		GuildID:         req.GuildID,
		RoleID:          req.RoleID,
		Mode:            mode,
		TargetUserID:    req.UserID,
		IncludeBots:     req.IncludeBots,
		NotifyChannelID: req.NotifyChannelID,
		RequestedBy:     req.RequestedBy,
	}

	logging.Info("[API] massrole request: guild=%s role=%s mode=%s", req.GuildID, req.RoleID, req.Mode)
	s.spawn(job)

	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"ok":true}`)
}

func (s *Server) authorized(ctx *fasthttp.RequestCtx) bool {
	if s.secret == "" {
		return false
	}
	got := ctx.Request.Header.Peek(secretHeader)
	return subtle.ConstantTimeCompare(got, []byte(s.secret)) == 1
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(map[string]interface{}{"ok": false, "error": msg})
	ctx.SetBody(body)
}
