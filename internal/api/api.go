package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/datadog"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
	"github.com/thatsimonsguy/senseo-controller/internal/mqtt"
	"github.com/thatsimonsguy/senseo-controller/internal/senseo"
)

const (
	MessagePoweringOn  = "Powering on..."
	MessagePoweringOff = "Powering off..."
	MessageNothingToDo = "Nothing to do."
)

// Machine is the part of the controller the API drives.
type Machine interface {
	Status(ctx context.Context) (model.Status, error)
	SetPower(ctx context.Context, on bool) (model.PowerChange, error)
	Brew(ctx context.Context, size int) error
}

// Notifier interface for sending notifications
type Notifier interface {
	Send(title, message string) error
}

type Server struct {
	machine   Machine
	publisher mqtt.Publisher
	notifier  Notifier
	now       func() time.Time

	httpServer *http.Server
}

type StatusResponse struct {
	PoweredOn bool `json:"is_powered_on"`
	Ready     bool `json:"is_ready"`
}

type PowerRequest struct {
	PowerOn *bool `json:"power_on"`
}

type CoffeeRequest struct {
	Size *int `json:"size"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

// NewServer wires the handlers. publisher and notifier may be nil.
func NewServer(machine Machine, publisher mqtt.Publisher, notifier Notifier) *Server {
	if publisher == nil {
		publisher = mqtt.NoopPublisher{}
	}
	s := &Server{
		machine:   machine,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/senseo/", s.handleSenseo)
	mux.HandleFunc("/senseo", s.handleSenseo)
	mux.HandleFunc("/coffee/", s.handleCoffee)
	mux.HandleFunc("/coffee", s.handleCoffee)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	log.Info().Str("address", addr).Msg("Starting REST API server")
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSenseo(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/senseo/" && r.URL.Path != "/senseo" {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getStatus(w, r)
	case http.MethodPost:
		s.setPower(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleCoffee(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/coffee/" && r.URL.Path != "/coffee" {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.brew(w, r)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Current status of coffee machine is requested")

	st, err := s.machine.Status(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get machine status")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Unmanaged server error: %v", err))
		return
	}

	datadog.ReportStatus(st)
	if err := s.publisher.PublishState(st, s.now()); err != nil {
		log.Warn().Err(err).Msg("Failed to publish machine state")
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{PoweredOn: st.PoweredOn, Ready: st.Ready})
}

func (s *Server) setPower(w http.ResponseWriter, r *http.Request) {
	var req PowerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	// powering on is the default command
	on := true
	if req.PowerOn != nil {
		on = *req.PowerOn
	}
	log.Info().Bool("power_on", on).Msg("Update of power status of the coffee machine is requested")

	change, err := s.machine.SetPower(r.Context(), on)
	if err != nil {
		log.Error().Err(err).Bool("power_on", on).Msg("Failed to update power status")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Unmanaged server error: %v", err))
		return
	}

	var message string
	switch change {
	case model.PowerChangeOn:
		message = MessagePoweringOn
	case model.PowerChangeOff:
		message = MessagePoweringOff
	default:
		log.Info().Msg("Nothing to do: already at requested state")
		message = MessageNothingToDo
	}

	if event, ok := mqtt.PowerEvent(change); ok {
		datadog.Incr(datadog.MetricPowerPress)
		if err := s.publisher.PublishEvent(mqtt.Event{Timestamp: s.now(), Type: event}); err != nil {
			log.Warn().Err(err).Str("event", event).Msg("Failed to publish power event")
		}
	}

	s.writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

func (s *Server) brew(w http.ResponseWriter, r *http.Request) {
	var req CoffeeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	// one mug unless asked otherwise
	size := 1
	if req.Size != nil {
		size = *req.Size
	}
	log.Info().Int("size", size).Msg("Coffee requested")

	err := s.machine.Brew(r.Context(), size)
	switch senseo.KindOf(err) {
	case senseo.KindNone:
	case senseo.KindInvalidSize:
		log.Warn().Err(err).Int("size", size).Msg("Rejected coffee request")
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case senseo.KindPrecondition:
		log.Warn().Err(err).Int("size", size).Msg("Coffee machine cannot brew")
		var preErr *senseo.PreconditionError
		if errors.As(err, &preErr) {
			datadog.Incr(datadog.MetricPreconditionFailed, "reason:"+strings.ReplaceAll(preErr.Reason, " ", "_"))
		}
		s.writeError(w, http.StatusPreconditionFailed, err.Error())
		return
	default:
		log.Error().Err(err).Int("size", size).Msg("Failed to start coffee")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Unmanaged server error: %v", err))
		return
	}

	message := fmt.Sprintf("Starting coffee with size: %d mug(s)", size)

	datadog.Incr(datadog.MetricBrew, fmt.Sprintf("size:%d", size))
	if err := s.publisher.PublishEvent(mqtt.Event{Timestamp: s.now(), Type: mqtt.EventBrew, Size: size}); err != nil {
		log.Warn().Err(err).Msg("Failed to publish brew event")
	}
	if s.notifier != nil {
		if err := s.notifier.Send("Coffee started", message); err != nil {
			log.Warn().Err(err).Msg("Failed to send brew notification")
		}
	}

	s.writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// decodeBody leaves v untouched for an empty body.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Message: message})
}
