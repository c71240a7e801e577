package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medicore/clinic-api/internal/cache"
	"github.com/medicore/clinic-api/internal/config"
	"github.com/medicore/clinic-api/internal/services"
	"github.com/medicore/clinic-api/internal/store"
)

// Handler carries every dependency the request handlers need. The stores
// are interfaces so tests can swap in in-memory fakes.
type Handler struct {
	Appointments    store.AppointmentStore
	Users           store.UserStore
	Doctors         store.DoctorStore
	Contacts        store.ContactStore
	NotificationSvc *services.NotificationService
	Cache           *cache.Cache
	Cfg             config.Config
}

func NewHandler(st *store.Store, notificationSvc *services.NotificationService, listingCache *cache.Cache, cfg config.Config) *Handler {
	return &Handler{
		Appointments:    st.Appointments,
		Users:           st.Users,
		Doctors:         st.Doctors,
		Contacts:        st.Contacts,
		NotificationSvc: notificationSvc,
		Cache:           listingCache,
		Cfg:             cfg,
	}
}

// requestCtx bounds all datastore work for one request so a hung datastore
// call surfaces as an error instead of blocking forever.
func (h *Handler) requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.Cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// actingUser returns the authenticated user's id and role, set by the auth
// middleware.
func actingUser(c *gin.Context) (primitive.ObjectID, string, bool) {
	idHex, ok := c.Get("userID")
	if !ok {
		return primitive.NilObjectID, "", false
	}
	role, _ := c.Get("userRole")
	id, err := primitive.ObjectIDFromHex(idHex.(string))
	if err != nil {
		return primitive.NilObjectID, "", false
	}
	roleStr, _ := role.(string)
	return id, roleStr, true
}

// storeError maps store sentinels onto response codes. Anything unexpected
// is logged and hidden behind a generic 500.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, store.ErrSlotClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "This slot has already been booked"})
	case errors.Is(err, store.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
	case errors.Is(err, store.ErrAlreadySettled):
		c.JSON(http.StatusConflict, gin.H{"error": "Payment is already settled"})
	default:
		log.Printf("Datastore error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
