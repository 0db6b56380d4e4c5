package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/document"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/gatekeeper"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/notify"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/payment"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/sample"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
	"github.com/rithbennet/checa-booking-systems-sub004/pkg/config"
)

// New wires repositories, services and handlers onto one router. All state
// lives in Postgres; the handler graph itself is stateless apart from the
// in-process rate limiter.
func New(cfg config.Config, pool *pgxpool.Pool) http.Handler {
	users := user.NewRepository(pool)
	auditRec := audit.NewRecorder(pool)
	outbox := notify.NewOutbox(pool)
	checker := gatekeeper.NewChecker(pool)

	bookingRepo := booking.NewRepository(pool)
	bookingSvc := booking.NewService(bookingRepo, auditRec, outbox)
	bookingH := &booking.Handler{
		Service:  bookingSvc,
		DraftTTL: time.Duration(cfg.DraftTTLDays) * 24 * time.Hour,
	}

	sampleSvc := sample.NewService(sample.NewRepository(pool), bookingRepo, auditRec, outbox)
	sampleH := &sample.Handler{Service: sampleSvc}

	docSvc := document.NewService(
		document.NewRepository(pool),
		&document.DiskStorage{Root: cfg.UploadDir},
		bookingRepo, checker, auditRec, outbox,
	)
	docH := &document.Handler{Service: docSvc}

	paySvc := payment.NewService(payment.NewRepository(pool), bookingRepo, checker, auditRec, outbox)
	payH := &payment.Handler{Service: paySvc}

	rate := api.RateLimit(api.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute))

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: cfg.PortalAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(api.SessionAuth(cfg, users))

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", bookingH.List)
			r.Get("/counts", bookingH.Counts)
			r.With(rate).Post("/", bookingH.CreateDraft)

			r.Route("/{bookingID}", func(r chi.Router) {
				r.Get("/", bookingH.Get)
				r.With(rate).Put("/", bookingH.SaveDraft)
				r.With(rate).Delete("/", bookingH.Delete)
				r.With(rate).Post("/submit", bookingH.Submit)
				r.With(rate).Post("/cancel", bookingH.Cancel)

				r.Get("/samples", sampleH.ListForBooking)

				r.Get("/documents", docH.ListByBooking)
				r.With(rate).Post("/documents", docH.Upload)
				r.Get("/form", docH.DownloadForm)

				gateH := &gateHandler{checker: checker, bookings: bookingRepo}
				r.Get("/verification-state", gateH.VerificationState)
				r.Get("/eligibility", gateH.Eligibility)

				r.Get("/finance", payH.Overview)
				r.Get("/payments", payH.ListForBooking)
				r.With(rate).Post("/payments", payH.SubmitPayment)
			})
		})

		r.Get("/documents/{documentID}/download", docH.Download)
		r.With(rate).Delete("/documents/{documentID}", docH.Delete)

		r.Route("/samples", func(r chi.Router) {
			r.Use(api.RequireStaff)
			r.With(rate).Post("/{sampleID}/advance", sampleH.Advance)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(api.RequireAdmin)

			r.Get("/bookings", bookingH.AdminList)
			r.Get("/bookings/counts", bookingH.Counts)
			r.Post("/bookings/bulk-review", bookingH.BulkReview)
			r.Post("/bookings/bulk-delete", bookingH.BulkDelete)

			r.Route("/bookings/{bookingID}", func(r chi.Router) {
				r.Post("/review", bookingH.AdminReview)
				r.Post("/start", bookingH.AdminStart)
				r.Post("/complete", bookingH.AdminComplete)
				r.Post("/form", docH.GenerateForm)
				r.Post("/invoices", payH.IssueInvoice)
				r.Get("/audit", auditTrail(auditRec, "booking"))
			})

			accountH := &accountHandler{users: users, bookings: bookingRepo, audit: auditRec}
			r.Post("/users/{userID}/verify", accountH.Verify)

			r.Post("/documents/{documentID}/verify", docH.Verify)
			r.Post("/documents/{documentID}/reject", docH.Reject)
			r.Post("/payments/{paymentID}/verify", payH.Verify)
			r.Post("/payments/{paymentID}/reject", payH.Reject)
		})
	})

	r.Route("/internal/cron", func(r chi.Router) {
		r.Use(api.CronKeyAuth(cfg))
		r.Post("/purge-drafts", bookingH.PurgeDrafts)
	})

	return r
}

func auditTrail(rec *audit.Recorder, entity string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := rec.ListByEntity(r.Context(), entity, chi.URLParam(r, "bookingID"))
		if err != nil {
			api.WriteErr(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"entries": rows})
	}
}
