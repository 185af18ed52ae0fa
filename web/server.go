package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadewadee/google-place-resolver/pkg/monitoring"
	"github.com/sadewadee/google-place-resolver/place"
)

// Resolver is the part of the pipeline the HTTP layer needs.
type Resolver interface {
	Resolve(ctx context.Context, q place.Query) (*place.Place, error)
}

// Server is the HTTP surface: the resolve endpoint, the journal API and a
// small static page.
type Server struct {
	resolver Resolver
	lookup   *place.LookupClient
	svc      *Service
	metrics  *monitoring.Collector
	srv      *http.Server
}

func New(resolver Resolver, lookup *place.LookupClient, svc *Service, addr string) *Server {
	s := &Server{
		resolver: resolver,
		lookup:   lookup,
		svc:      svc,
		metrics:  monitoring.NewCollector(),
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	_ = router.SetTrustedProxies(nil)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/place-from-url", s.placeFromURL)
	api.GET("/place/:place_id", s.placeByID)
	api.GET("/journal", s.journal)
	api.GET("/journal/csv", s.journalCSV)
	api.GET("/records/:id", s.journalRecord)
	api.DELETE("/records/:id", s.journalDelete)
	api.GET("/stats", s.stats)
	api.POST("/export-sheets", s.exportSheets)

	router.StaticFile("/", "./static/index.html")

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)

	go func() {
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.srv.Shutdown(shutdownCtx)
	}
}

type resolveRequest struct {
	URL      string `json:"url"`
	Language string `json:"language"`
}

func (s *Server) placeFromURL(c *gin.Context) {
	var req resolveRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.RecordInvalidInput()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	if req.URL == "" {
		s.metrics.RecordInvalidInput()
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})

		return
	}

	t0 := time.Now()

	p, err := s.resolver.Resolve(c.Request.Context(), place.Query{
		RawURL:   req.URL,
		Language: req.Language,
	})

	s.journalAttempt(c.Request.Context(), req, p, err)

	switch {
	case errors.Is(err, place.ErrInvalidURL):
		s.metrics.RecordInvalidInput()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid google maps url"})

		return
	case errors.Is(err, place.ErrNotFound):
		s.metrics.RecordNotFound()
		s.metrics.RecordResolve("", time.Since(t0), err)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no place found for this url",
			"debug": gin.H{"url": req.URL},
		})

		return
	case err != nil:
		s.metrics.RecordResolve("", time.Since(t0), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to resolve place",
			"details": err.Error(),
		})

		return
	}

	s.metrics.RecordResolve(p.Source, time.Since(t0), nil)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"place":   place.BuildResponse(p),
	})
}

// journalAttempt records the attempt without ever failing the response.
func (s *Server) journalAttempt(ctx context.Context, req resolveRequest, p *place.Place, err error) {
	if s.svc == nil {
		return
	}

	if errors.Is(err, place.ErrInvalidURL) {
		return
	}

	if jerr := s.svc.Record(ctx, req.URL, req.Language, p, err); jerr != nil {
		log.Printf("journal write failed: %v", jerr)
	}
}

func (s *Server) placeByID(c *gin.Context) {
	id := c.Param("place_id")

	if !s.lookup.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "place details lookup requires GOOGLE_MAPS_API_KEY",
			"debug": gin.H{"url": id},
		})

		return
	}

	lang := c.DefaultQuery("language", "en")

	rec := s.lookup.Lookup(c.Request.Context(), []place.Identifier{
		{Kind: place.KindPlaceID, Value: id},
	}, lang)
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no place found for this id",
			"debug": gin.H{"url": id},
		})

		return
	}

	p := place.Reconcile(&place.Metadata{}, rec)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"place":   place.BuildResponse(p),
	})
}

func (s *Server) journal(c *gin.Context) {
	if s.svc == nil {
		c.JSON(http.StatusOK, gin.H{"records": []JournalRecord{}})

		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal read failed", "details": err.Error()})

		return
	}

	if records == nil {
		records = []JournalRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) journalRecord(c *gin.Context) {
	if s.svc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal is disabled"})

		return
	}

	rec, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})

		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) journalDelete(c *gin.Context) {
	if s.svc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal is disabled"})

		return
	}

	if err := s.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed", "details": err.Error()})

		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) journalCSV(c *gin.Context) {
	if s.svc == nil {
		c.Status(http.StatusNoContent)

		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="resolved.csv"`)

	if err := s.svc.WriteCSV(c.Request.Context(), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "csv export failed", "details": err.Error()})
	}
}

func (s *Server) stats(c *gin.Context) {
	out := gin.H{"runtime": s.metrics.Snapshot()}

	if s.svc != nil {
		if stats, err := s.svc.Stats(c.Request.Context()); err == nil {
			out["journal"] = stats
		}
	}

	c.JSON(http.StatusOK, out)
}

type exportRequest struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	Range         string `json:"range"`
	Append        bool   `json:"append"`
}

func (s *Server) exportSheets(c *gin.Context) {
	if s.svc == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "journal is disabled"})

		return
	}

	var req exportRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	n, err := s.svc.ExportToSheets(c.Request.Context(), req.SpreadsheetID, req.Range, req.Append)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sheets export failed", "details": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "exported": n})
}
