package emergency

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/swasthya/setu/internal/domain/identity"
	"github.com/swasthya/setu/internal/platform/auth"
)

// ContactFinder looks up the emergency contact shown on the SOS screen.
type ContactFinder interface {
	EmergencyContact(ctx context.Context, userID uuid.UUID) (*identity.EmergencyContact, error)
}

type Handler struct {
	store    *Store
	contacts ContactFinder
}

// NewHandler serves the SOS routes. contacts may be nil.
func NewHandler(store *Store, contacts ContactFinder) *Handler {
	return &Handler{store: store, contacts: contacts}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/sos", h.Get)
	api.POST("/sos/start", h.Start)
	api.POST("/sos/cancel", h.Cancel)
	api.POST("/sos/dismiss", h.Dismiss)
}

type sosResponse struct {
	Snapshot
	EmergencyContact *identity.EmergencyContact `json:"emergencyContact,omitempty"`
}

func sessionUser(c echo.Context) (string, error) {
	id := auth.UserIDFromContext(c.Request().Context())
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

// contact resolves the patient's contact; relatives see the patient they
// are linked to.
func (h *Handler) contact(c echo.Context, userID string) *identity.EmergencyContact {
	if h.contacts == nil {
		return nil
	}
	ctx := c.Request().Context()
	owner := auth.PatientIDFromContext(ctx)
	if owner == "" {
		owner = userID
	}
	id, err := uuid.Parse(owner)
	if err != nil {
		return nil
	}
	ec, err := h.contacts.EmergencyContact(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("user_id", owner).Msg("sos: emergency contact unavailable")
		return nil
	}
	return ec
}

func (h *Handler) respond(c echo.Context, userID string, snap Snapshot, err error) error {
	if err != nil {
		if errors.Is(err, ErrAlreadyStarted) || errors.Is(err, ErrAlreadyActive) ||
			errors.Is(err, ErrNotActive) || errors.Is(err, ErrNotCounting) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sosResponse{Snapshot: snap, EmergencyContact: h.contact(c, userID)})
}

func (h *Handler) Get(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	return h.respond(c, userID, h.store.State(userID), nil)
}

func (h *Handler) Start(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	snap, err := h.store.Start(userID)
	return h.respond(c, userID, snap, err)
}

func (h *Handler) Cancel(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	snap, err := h.store.Cancel(userID)
	return h.respond(c, userID, snap, err)
}

func (h *Handler) Dismiss(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return err
	}
	snap, err := h.store.Dismiss(userID)
	return h.respond(c, userID, snap, err)
}
