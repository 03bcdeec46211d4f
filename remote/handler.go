package remote

import (
	"net/http"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// maxBody bounds the size of a request.
const maxBody = 32 << 20

// Handler serves an engine to Client over HTTP.
type Handler struct {
	engine engine.Engine
	logger *logrus.Logger
}

// NewHandler returns a handler for eng. A nil logger discards everything below Warn.
func NewHandler(eng engine.Engine, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Handler{engine: eng, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reply(w, http.StatusMethodNotAllowed, &response{Error: &wireError{Message: "method not allowed"}})
		return
	}

	var req request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		h.reply(w, http.StatusBadRequest, &response{Error: &wireError{Message: "invalid JSON: " + err.Error()}})
		return
	}
	log := h.logger.WithField("fn", req.Function)

	x, err := decode(req.X)
	if err != nil {
		h.fail(w, log, http.StatusBadRequest, err)
		return
	}
	kw, err := decodeKwargs(req.Kwargs)
	if err != nil {
		h.fail(w, log, http.StatusBadRequest, err)
		return
	}

	out, err := h.engine.Call(r.Context(), req.Function, x, kw)
	if err != nil {
		h.fail(w, log, http.StatusUnprocessableEntity, err)
		return
	}
	env, err := encode(out)
	if err != nil {
		h.fail(w, log, http.StatusInternalServerError, err)
		return
	}
	log.Debug("call served")
	h.reply(w, http.StatusOK, &response{Value: env})
}

func (h *Handler) fail(w http.ResponseWriter, log *logrus.Entry, status int, err error) {
	log.WithError(err).WithField("status", status).Debug("call failed")
	h.reply(w, status, &response{Error: &wireError{Message: err.Error(), Code: codeOf(err)}})
}

func (h *Handler) reply(w http.ResponseWriter, status int, resp *response) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.WithError(err).Warn("writing reply")
	}
}
