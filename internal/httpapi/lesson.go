package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/lesson"
	"rollcall/internal/metrics"
)

func lessonJSON(l lesson.Lesson) gin.H {
	out := gin.H{
		"id":         l.ID,
		"course_id":  l.CourseID,
		"started_at": l.StartedAt,
		"active":     l.Active(),
	}
	if l.Active() {
		// The code is only meaningful (and only shown) while check-ins
		// are open.
		out["code"] = l.Code
	} else {
		out["ended_at"] = l.EndedAt
	}
	return out
}

func (s *Server) startLesson(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	l, err := s.lessons.Start(c.Request.Context(), ident.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.LessonsStarted.Inc()
	c.JSON(http.StatusCreated, lessonJSON(l))
}

func (s *Server) terminateLesson(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	l, err := s.lessons.Terminate(c.Request.Context(), ident.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.LessonsTerminated.Inc()
	c.JSON(http.StatusOK, lessonJSON(l))
}

func (s *Server) activeLesson(c *gin.Context) {
	l, ok, err := s.lessons.Active(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": lesson.ErrNoActiveLesson.Error()})
		return
	}
	c.JSON(http.StatusOK, lessonJSON(l))
}

func (s *Server) listLessons(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	lessons, err := s.lessons.ListForCourse(c.Request.Context(), ident.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonJSON(l))
	}
	c.JSON(http.StatusOK, gin.H{"lessons": out})
}

// liveCheckins reads the worker-maintained counter so a professor can watch
// attendance build without polling the ledger.
func (s *Server) liveCheckins(c *gin.Context) {
	lessonID := c.Param("id")
	if _, err := s.lessons.Get(c.Request.Context(), lessonID); err != nil {
		writeError(c, err)
		return
	}
	n, err := s.rds.LessonCheckins(c.Request.Context(), lessonID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "counter unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lesson_id": lessonID, "checkins": n})
}
