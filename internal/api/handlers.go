package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/storybox/pkg/buildinfo"
	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/render/nodelink"
	"github.com/matzehuels/storybox/pkg/resolve"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
	"github.com/matzehuels/storybox/pkg/storyio"
)

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleStory writes the package snapshot, cached per story version.
func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pkg, err := s.pkg(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := s.keyer.SnapshotKey(pkg.ID(), pkg.Info().StoryVersion, "json")
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("snapshot cache read failed", "story", pkg.ID(), "err", err)
	} else if ok {
		writeRaw(w, "application/json", data)
		return
	}

	var buf bytes.Buffer
	if err := storyio.WriteJSON(pkg, &buf); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot"))
		return
	}
	if err := s.cache.Set(ctx, key, buf.Bytes(), s.ttl); err != nil {
		s.logger.Warn("snapshot cache write failed", "story", pkg.ID(), "err", err)
	}
	writeRaw(w, "application/json", buf.Bytes())
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.pkg(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detailed := r.URL.Query().Get("detailed") == "true"
	writeRaw(w, "text/vnd.graphviz", []byte(nodelink.ToDOT(pkg, nodelink.Options{Detailed: detailed})))
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.pkg(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detailed := r.URL.Query().Get("detailed") == "true"
	svg, err := nodelink.RenderSVG(r.Context(), nodelink.ToDOT(pkg, nodelink.Options{Detailed: detailed}))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render graph"))
		return
	}
	writeRaw(w, "image/svg+xml", svg)
}

type nodeResponse struct {
	Index       int                  `json:"index"`
	ID          string               `json:"id"`
	Name        string               `json:"name,omitempty"`
	Kind        string               `json:"kind"`
	Root        bool                 `json:"root,omitempty"`
	Controls    story.Controls       `json:"controls"`
	Image       string               `json:"image,omitempty"`
	Audio       string               `json:"audio,omitempty"`
	Transitions []transitionResponse `json:"transitions"`
}

type transitionResponse struct {
	Condition string `json:"condition"`
	Target    int    `json:"target"`
	Entry     int    `json:"entry"`
	Default   bool   `json:"default,omitempty"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	pkg, n, err := s.node(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := nodeResponse{
		Index:       n.Index,
		ID:          n.ID,
		Name:        n.Name,
		Kind:        n.Kind.String(),
		Root:        n.Index == pkg.Graph().RootIndex(),
		Controls:    n.Controls,
		Transitions: make([]transitionResponse, 0, len(n.Transitions)),
	}
	if n.Image != nil {
		resp.Image = n.Image.Locator()
	}
	if n.Audio != nil {
		resp.Audio = n.Audio.Locator()
	}
	for _, t := range n.Transitions {
		resp.Transitions = append(resp.Transitions, transitionResponse{
			Condition: t.Condition.String(),
			Target:    t.Target,
			Entry:     t.Entry,
			Default:   t.Default,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	var kind story.AssetKind
	switch chi.URLParam(r, "kind") {
	case "image":
		kind = story.AssetImage
	case "audio":
		kind = story.AssetAudio
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "asset kind must be image or audio"))
		return
	}

	pkg, n, err := s.node(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	src := resolve.NewCaching(
		resolve.New(pkg, storage.Dir(pkg.Path()), resolve.WithLogger(s.logger)),
		s.cache, s.ttl,
		resolve.WithKeyer(s.keyer),
		resolve.WithCacheLogger(s.logger),
	)
	data, err := resolve.Asset(r.Context(), src, n, kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, http.DetectContentType(data), data)
}

func (s *Server) node(r *http.Request) (*story.Package, story.Node, error) {
	pkg, err := s.pkg(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, story.Node{}, err
	}
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return nil, story.Node{}, errors.New(errors.ErrCodeInvalidInput, "node index %q is not a number", raw)
	}
	n, ok := pkg.Graph().Node(i)
	if !ok {
		return nil, story.Node{}, errors.New(errors.ErrCodeNotFound, "story %s has no node %d", pkg.ID(), i)
	}
	return pkg, n, nil
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeAssetMissing:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeFormat, errors.ErrCodeUnknownFormat, errors.ErrCodeTruncatedData,
		errors.ErrCodeEmptyPackage, errors.ErrCodeCorruptData, errors.ErrCodeIntegrity,
		errors.ErrCodeDanglingReference, errors.ErrCodeDanglingTransition,
		errors.ErrCodeAssetCorrupt, errors.ErrCodeKey, errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
