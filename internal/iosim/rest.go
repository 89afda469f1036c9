package iosim

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fisaks/lightedge/internal/ports"
)

// Handler exposes the module over a small REST API:
//
//	GET  /state
//	PUT  /analog/{channel}             {"value": N}   channel: ldr | pot
//	PUT  /button/{button}              {"pressed": b} button: toggle | mode
//	POST /button/{button}/press/{mode} mode: tap | hold1 | hold2
func (m *Module) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", m.getState)
	mux.HandleFunc("PUT /analog/{channel}", m.setAnalog)
	mux.HandleFunc("PUT /button/{button}", m.setButton)
	mux.HandleFunc("POST /button/{button}/press/{mode}", m.pressButton)
	return mux
}

func readJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseChannel(s string) (ports.AnalogChannel, bool) {
	switch s {
	case "ldr":
		return ports.LightSensor, true
	case "pot":
		return ports.Potentiometer, true
	}
	return 0, false
}

func parseButton(s string) (ports.DigitalInput, bool) {
	switch s {
	case "toggle":
		return ports.ToggleButton, true
	case "mode":
		return ports.ModeButton, true
	}
	return 0, false
}

func (m *Module) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (m *Module) setAnalog(w http.ResponseWriter, r *http.Request) {
	ch, ok := parseChannel(r.PathValue("channel"))
	if !ok {
		fail(w, http.StatusNotFound, "channel must be ldr or pot")
		return
	}
	var payload struct {
		Value uint16 `json:"value"`
	}
	if err := readJSON(r, &payload); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	_ = m.SetAnalog(ch, payload.Value)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (m *Module) setButton(w http.ResponseWriter, r *http.Request) {
	in, ok := parseButton(r.PathValue("button"))
	if !ok {
		fail(w, http.StatusNotFound, "button must be toggle or mode")
		return
	}
	var payload struct {
		Pressed bool `json:"pressed"`
	}
	if err := readJSON(r, &payload); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	_ = m.SetButton(in, payload.Pressed)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (m *Module) pressButton(w http.ResponseWriter, r *http.Request) {
	in, ok := parseButton(r.PathValue("button"))
	if !ok {
		fail(w, http.StatusNotFound, "button must be toggle or mode")
		return
	}
	mode := r.PathValue("mode")
	var d time.Duration
	switch mode {
	case "tap":
		d = 500 * time.Millisecond
	case "hold1":
		d = 1 * time.Second
	case "hold2":
		d = 2 * time.Second
	default:
		fail(w, http.StatusBadRequest, "mode must be one of: tap, hold1, hold2")
		return
	}
	_ = m.Press(in, d)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "scheduled",
		"button": in.String(),
		"ms":     d.Milliseconds(),
	})
}
