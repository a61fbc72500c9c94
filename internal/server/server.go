package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/kilatlabs/nusabill/internal/catalog/domain"
	"github.com/kilatlabs/nusabill/internal/config"
	invoicedomain "github.com/kilatlabs/nusabill/internal/invoice/domain"
	paymentdomain "github.com/kilatlabs/nusabill/internal/payment/domain"
	registrationdomain "github.com/kilatlabs/nusabill/internal/registration/domain"
	"github.com/kilatlabs/nusabill/internal/scheduler"
	subscriptiondomain "github.com/kilatlabs/nusabill/internal/subscription/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Server struct {
	registrationSvc registrationdomain.Orchestrator
	subscriptionSvc subscriptiondomain.Service
	invoiceSvc      invoicedomain.Service
	paymentSvc      paymentdomain.Service
	catalogSvc      catalogdomain.Service
	reconciler      *scheduler.Reconciler
	log             *zap.Logger
}

// Params collects the handler dependencies.
type Params struct {
	fx.In

	Engine          *gin.Engine
	RegistrationSvc registrationdomain.Orchestrator
	SubscriptionSvc subscriptiondomain.Service
	InvoiceSvc      invoicedomain.Service
	PaymentSvc      paymentdomain.Service
	CatalogSvc      catalogdomain.Service
	Reconciler      *scheduler.Reconciler
	Log             *zap.Logger
}

// NewServer registers every route on the shared engine.
func NewServer(p Params) *Server {
	s := &Server{
		registrationSvc: p.RegistrationSvc,
		subscriptionSvc: p.SubscriptionSvc,
		invoiceSvc:      p.InvoiceSvc,
		paymentSvc:      p.PaymentSvc,
		catalogSvc:      p.CatalogSvc,
		reconciler:      p.Reconciler,
		log:             p.Log.Named("server"),
	}

	v1 := p.Engine.Group("/v1")

	v1.GET("/packages", s.ListPackages)

	v1.POST("/registrations", s.Register)

	v1.GET("/subscriptions/:id", s.GetSubscription)
	v1.POST("/subscriptions/:id/cancel", s.CancelSubscription)

	v1.POST("/invoices", s.GenerateInvoice)
	v1.GET("/invoices/:id", s.GetInvoice)
	v1.GET("/organizations/:id/invoices", s.ListOrgInvoices)
	v1.POST("/invoices/:id/send", s.MarkInvoiceSent)
	v1.POST("/invoices/:id/process", s.MarkInvoiceProcessing)
	v1.POST("/invoices/:id/complete", s.MarkInvoiceCompleted)
	v1.POST("/invoices/:id/fail", s.MarkInvoiceFailed)
	v1.POST("/invoices/:id/cancel", s.CancelInvoice)

	v1.POST("/invoices/:id/payments", s.RecordPayment)
	v1.GET("/invoices/:id/payments", s.ListInvoicePayments)
	v1.GET("/payments/:id", s.GetPayment)
	v1.POST("/payments/:id/complete", s.CompletePayment)
	v1.POST("/payments/:id/fail", s.FailPayment)
	v1.POST("/payments/:id/refunds", s.RefundPayment)
	v1.GET("/payments/:id/refunds", s.ListRefunds)

	v1.POST("/reconciliations", s.RunReconciliation)

	return s
}

// NewEngine builds the shared gin engine with logging, recovery and error
// mapping installed.
func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// Module wires the HTTP surface.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)
