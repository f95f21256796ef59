package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/course"
	"rollcall/internal/lesson"
	"rollcall/internal/store"
)

// writeError maps the core's sentinel errors onto HTTP statuses. Unknown
// errors are logged and come back as a generic 500 so internals never leak.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, course.ErrNotFound),
		errors.Is(err, course.ErrStudentNotFound),
		errors.Is(err, lesson.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lesson.ErrInvalidCode):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, course.ErrAlreadyExists),
		errors.Is(err, course.ErrHasActiveLesson),
		errors.Is(err, lesson.ErrAlreadyActive),
		errors.Is(err, lesson.ErrNoActiveLesson),
		errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, course.ErrNotOwner),
		errors.Is(err, attendance.ErrNotSubscribed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, lesson.ErrCodeSpaceExhausted),
		errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
