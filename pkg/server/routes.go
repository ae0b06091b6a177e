package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/giftgraph/pkg/buildinfo"
	"github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/gift"
	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/pipeline"
	"github.com/matzehuels/giftgraph/pkg/render"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", s.listUsers)
		r.Route("/gifts", func(r chi.Router) {
			r.Get("/", s.listGifts)
			r.Post("/", s.createGift)
			r.Put("/{id}", s.updateGift)
			r.Delete("/{id}", s.deleteGift)
			r.Post("/{id}/comments", s.addComment)
			r.Post("/{id}/tips", s.tipGift)
		})
		r.Get("/graph", s.getGraph)
		r.Get("/layout", s.getLayout)
	})
	r.Get("/graph.{format}", s.getArtifact)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(snap.Users))
}

// feedItem is a gift with the names and relative age the feed displays.
type feedItem struct {
	gift.Gift
	SenderName   string `json:"sender_name"`
	ReceiverName string `json:"receiver_name"`
	Age          string `json:"age"`
}

func (s *Server) listGifts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	users := snap.UserByID()
	now := s.now()
	gifts := gift.Search(snap.Gifts, snap.Users, r.URL.Query().Get("q"))
	items := make([]feedItem, len(gifts))
	for i, g := range gifts {
		items[i] = feedItem{
			Gift:         g,
			SenderName:   users[g.SenderID].Name,
			ReceiverName: users[g.ReceiverID].Name,
			Age:          gift.FormatAge(g.Timestamp, now),
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createGift(w http.ResponseWriter, r *http.Request) {
	var req gift.GiveRequest
	if !s.decode(w, r, &req) {
		return
	}
	g, err := s.svc.Give(r.Context(), req.Sender, req.Receiver, req.Item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) updateGift(w http.ResponseWriter, r *http.Request) {
	var req gift.GiveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.svc.Edit(r.Context(), chi.URLParam(r, "id"), req.Sender, req.Receiver, req.Item); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteGift(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var req gift.CommentRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.svc.Comment(r.Context(), chi.URLParam(r, "id"), req.User, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) tipGift(w http.ResponseWriter, r *http.Request) {
	tips, err := s.svc.Tip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"tips": tips})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g := s.runner.Build(r.Context(), snap)
	w.Header().Set("ETag", strconv.Quote(g.Hash()))
	writeJSON(w, http.StatusOK, graph.FromCirculation(g))
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.layoutOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), s.runner.Build(r.Context(), snap), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) getArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.layoutOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	if engine := r.URL.Query().Get("engine"); engine != "" {
		opts.Engine = engine
	}

	res, err := s.runner.Execute(r.Context(), s.svc.Store(), opts)
	if stderrors.Is(err, render.ErrConverterMissing) {
		err = errors.Wrap(errors.ErrCodeUnsupported, err, "%s output is not available on this server", format)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("ETag", strconv.Quote(res.GraphHash))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// layoutOptions overlays width, height, seed and seed_mode query
// parameters on the server defaults.
func (s *Server) layoutOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Formats = nil
	q := r.URL.Query()

	parseFloat := func(name string, dst *float64) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s: not a number: %q", name, v)
		}
		*dst = f
		return nil
	}
	if err := parseFloat("width", &opts.Width); err != nil {
		return opts, err
	}
	if err := parseFloat("height", &opts.Height); err != nil {
		return opts, err
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "seed: not an integer: %q", v)
		}
		opts.Seed = seed
	}
	if v := q.Get("seed_mode"); v != "" {
		opts.SeedMode = v
	}
	if err := opts.ValidateForLayout(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return false
	}
	return true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
