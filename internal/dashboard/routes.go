package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	router.GET("/healthz", handleHealth())

	api := router.Group("/api")
	api.GET("/queue", handleQueue(db))
	api.GET("/assignments/overdue", handleOverdue(db))
	api.GET("/artifacts/:kind/:id/history", handleHistory(db))
	api.GET("/phases/:phase", handlePhase(db))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleQueue(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := ReviewQueue(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"queue": entries})
	}
}

func handleOverdue(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := OverdueAssignments(db, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"overdue": entries})
	}
}

func handleHistory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := ArtifactHistory(db, c.Param("kind"), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if view == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func handlePhase(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := PhaseBoard(db, c.Param("phase"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if view == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "phase not found"})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
