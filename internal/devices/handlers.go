package devices

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"devmgmt/internal/logs"
	"devmgmt/internal/models"

	"github.com/gorilla/mux"
)

// maxBodySize caps request bodies (1MB).
const maxBodySize = 1 << 20

// createRequest takes id as raw JSON so that any id a client sends, string
// or not, is dropped instead of failing the decode.
type createRequest struct {
	ID             json.RawMessage       `json:"id,omitempty"`
	SerialNumber   string                `json:"serialNumber"`
	LifeCycleState models.LifeCycleState `json:"lifeCycleState"`
}

type HTTP struct{ svc *Service }

func NewHTTP(svc *Service) *HTTP { return &HTTP{svc: svc} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	// POST /devices  { serialNumber, lifeCycleState }
	r.HandleFunc("/devices", h.createDevice).Methods(http.MethodPost)
	// GET  /devices/{id}
	r.HandleFunc("/devices/{id}", h.getDevice).Methods(http.MethodGet)
}

func (h *HTTP) createDevice(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid body (need {serialNumber, lifeCycleState})")
		return
	}
	input, err := FromDTO(DeviceDTO{SerialNumber: in.SerialNumber, LifeCycleState: in.LifeCycleState})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.svc.CreateDevice(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Location is the current request path plus the new id, so a mount
	// prefix in front of /devices is kept.
	loc := strings.TrimSuffix(r.URL.Path, "/") + "/" + url.PathEscape(d.ID)
	w.Header().Set("Location", loc)
	writeJSON(w, http.StatusCreated, ToDTO(d))
}

func (h *HTTP) getDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := h.svc.GetDevice(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(d))
}

func (h *HTTP) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logs.FromContext(r.Context()).WithError(err).Errorf("%s %s", r.Method, r.URL.Path)
		writeJSONError(w, code, "internal error")
		return
	}
	writeJSONError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
