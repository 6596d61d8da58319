package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/catalog"
	"pizza-ordering-api/checkout"
	"pizza-ordering-api/config"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/metrics"
	"pizza-ordering-api/middleware"
	"pizza-ordering-api/orders"
	"pizza-ordering-api/responses"
	"pizza-ordering-api/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	DB       *gorm.DB
	Catalog  *catalog.Store
	Orders   *orders.Store
	Checkout *checkout.Service
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Log      *logger.Logger
	TaxRate  float64
	Admin    config.AdminConfig
	Now      func() time.Time
}

type Handler struct {
	db       *gorm.DB
	catalog  *catalog.Store
	orders   *orders.Store
	checkout *checkout.Service
	sessions *session.Manager
	metrics  *metrics.Metrics
	log      *logger.Logger
	taxRate  float64
	admin    config.AdminConfig
	now      func() time.Time
}

func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{
		db:       d.DB,
		catalog:  d.Catalog,
		orders:   d.Orders,
		checkout: d.Checkout,
		sessions: d.Sessions,
		metrics:  d.Metrics,
		log:      d.Log,
		taxRate:  d.TaxRate,
		admin:    d.Admin,
		now:      d.Now,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	responses.Error(c, h.log, err)
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Validation("Invalid JSON body")
	}
	return nil
}

// session returns the caller's session; the Sessions middleware guarantees one.
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		h.fail(c, apperrors.Internal(errors.New("session middleware not installed"), "Session unavailable"))
		return nil, false
	}
	return sess, true
}

// orderID parses the :id path parameter; anything non-numeric is NotFound.
func (h *Handler) orderID(c *gin.Context) (uint, bool) {
	id, err := orders.ParseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return 0, false
	}
	return id, true
}
