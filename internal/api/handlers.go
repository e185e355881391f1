package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/calendar"
	"github.com/username/aviv-calendar/internal/ledger"
	"github.com/username/aviv-calendar/pkg/dateutil"
)

// DateResolver resolves civil instants at a location
type DateResolver interface {
	Now(ctx context.Context, loc astro.Location) (*calendar.ResolvedDate, error)
	At(ctx context.Context, loc astro.Location, at time.Time) (*calendar.ResolvedDate, error)
}

// LedgerStore exposes the month-start ledger
type LedgerStore interface {
	Snapshot() *ledger.Snapshot
	Refresh(ctx context.Context) (*ledger.Snapshot, error)
	Rebuild(ctx context.Context) (*ledger.Snapshot, error)
}

// Handler holds the dependencies of the HTTP handlers
type Handler struct {
	resolver DateResolver
	store    LedgerStore
	location astro.Location // used when a request names no location
	logger   *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(resolver DateResolver, store LedgerStore, location astro.Location, logger *zap.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		store:    store,
		location: location,
		logger:   logger,
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Snapshot()

	status := map[string]interface{}{
		"status": "healthy",
		"months": snapshot.Ledger.Len(),
		"cached": snapshot.Cached,
	}
	if !snapshot.Modified.IsZero() {
		status["modified"] = snapshot.Modified.Format(time.RFC3339)
	}
	WriteSuccess(w, status)
}

// GetDate handles GET /api/v1/date?location=&lat=&lon=&tz=&at=
func (h *Handler) GetDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	loc, err := h.locationFromQuery(r)
	if err != nil {
		WriteEngineError(w, err)
		return
	}

	var date *calendar.ResolvedDate
	if at := r.URL.Query().Get("at"); at != "" {
		instant, parseErr := dateutil.ParseDateIn(at, loc.TZ)
		if parseErr != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid at parameter: %s. Use YYYY-MM-DDTHH:MM", at))
			return
		}
		date, err = h.resolver.At(ctx, loc, instant)
	} else {
		date, err = h.resolver.Now(ctx, loc)
	}
	if err != nil {
		h.logger.Warn("Failed to resolve date",
			zap.String("location", loc.String()),
			zap.Error(err))
		WriteEngineError(w, err)
		return
	}

	WriteSuccess(w, toDateDTO(date))
}

// ListMonths handles GET /api/v1/months?from=YYYYMM
func (h *Handler) ListMonths(w http.ResponseWriter, r *http.Request) {
	from := ledger.MonthKey{Year: ledger.MinYear, Month: ledger.MinMonth}
	if s := r.URL.Query().Get("from"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid from parameter: %s. Use YYYYMM", s))
			return
		}
		if from, err = ledger.ParseMonthKey(v); err != nil {
			WriteEngineError(w, err)
			return
		}
	}

	WriteSuccess(w, toMonthsDTO(h.store.Snapshot(), from))
}

// RefreshLedger handles POST /api/v1/ledger/refresh?full=true
func (h *Handler) RefreshLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refresh := h.store.Refresh
	if full, _ := strconv.ParseBool(r.URL.Query().Get("full")); full {
		refresh = h.store.Rebuild
	}

	snapshot, err := refresh(ctx)
	if err != nil {
		h.logger.Warn("Ledger refresh failed", zap.Error(err))
		WriteEngineError(w, err)
		return
	}

	h.logger.Info("Ledger refreshed via API",
		zap.Int("months", snapshot.Ledger.Len()),
		zap.Time("modified", snapshot.Modified))

	from := ledger.MonthKey{Year: ledger.MinYear, Month: ledger.MinMonth}
	if latest, ok := snapshot.Ledger.Latest(); ok {
		from = latest.Key
	}
	WriteSuccess(w, toMonthsDTO(snapshot, from))
}

func (h *Handler) locationFromQuery(r *http.Request) (astro.Location, error) {
	q := r.URL.Query()

	if lat, lon := q.Get("lat"), q.Get("lon"); lat != "" || lon != "" {
		latitude, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return astro.Location{}, fmt.Errorf("%w: invalid latitude %q", ledger.ErrInputRange, lat)
		}
		longitude, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return astro.Location{}, fmt.Errorf("%w: invalid longitude %q", ledger.ErrInputRange, lon)
		}
		tz := q.Get("tz")
		if tz == "" {
			tz = "UTC"
		}
		loc, err := astro.NewLocation(q.Get("location"), "", latitude, longitude, tz)
		if err != nil {
			return astro.Location{}, fmt.Errorf("%w: %v", ledger.ErrInputRange, err)
		}
		return loc, nil
	}

	if name := q.Get("location"); name != "" {
		return astro.Lookup(name)
	}
	return h.location, nil
}
