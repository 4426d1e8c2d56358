package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/0xYaper/Portal/internal/core/application"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server exposes the bridging, administrative and query interfaces of a role
// instance over HTTP.
type Server struct {
	port       uint32
	adminToken string

	svc       application.BridgeService
	custodian application.CustodianService
	issuer    application.IssuerService

	httpServer *http.Server
	stopEvents context.CancelFunc
}

func NewServer(
	port uint32, adminToken string, svc application.BridgeService,
) *Server {
	server := &Server{
		port:       port,
		adminToken: adminToken,
		svc:        svc,
	}
	// role-specific routes are only mounted for the matching role
	if custodian, ok := svc.(application.CustodianService); ok {
		server.custodian = custodian
	}
	if issuer, ok := svc.(application.IssuerService); ok {
		server.issuer = issuer
	}
	return server
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/bridge/out", s.bridgeOut)
	v1.GET("/info", s.getInfo)
	v1.GET("/transfers", s.listTransfers)
	if s.custodian != nil {
		v1.GET("/locks/:assetId", s.getLockStatus)
	}
	if s.issuer != nil {
		v1.GET("/royalty", s.getRoyaltyInfo)
	}

	admin := v1.Group("/admin", adminAuth(s.adminToken))
	admin.POST("/pause", s.pause)
	admin.POST("/unpause", s.unpause)
	admin.PUT("/fees", s.setFeeSchedule)
	admin.POST("/fees/withdraw", s.withdrawFees)
	admin.POST("/recover", s.emergencyRecover)
	if s.issuer != nil {
		admin.PUT("/validator", s.setTransferValidator)
		admin.PUT("/royalty", s.setRoyaltyInfo)
	}

	return router
}

func (s *Server) Start() error {
	router := s.router()

	eventsCtx, cancel := context.WithCancel(context.Background())
	s.stopEvents = cancel
	go s.consumeEvents(eventsCtx)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("rest server exited")
		}
	}()

	log.WithField("port", s.port).Info("rest interface started")
	return nil
}

func (s *Server) Stop() {
	if s.stopEvents != nil {
		s.stopEvents()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// nolint:errcheck
		s.httpServer.Shutdown(ctx)
	}
}

func (s *Server) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events, ok := <-s.svc.GetEventsChannel():
			if !ok {
				return
			}
			observeEvents(events)
		}
	}
}
