package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/metrics"
	"rollcall/internal/queue"
)

func (s *Server) checkIn(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident := auth.IdentityFrom(c)
	rec, created, err := s.ledger.CheckIn(c.Request.Context(), req.Code, ident.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	if created {
		metrics.CheckIns.Inc()
		msg, err := queue.NewCheckinMessage(queue.CheckinEvent{
			LessonID:  rec.LessonID,
			StudentID: rec.StudentID,
		})
		if err == nil {
			err = s.q.Publish(c.Request.Context(), msg)
		}
		if err != nil {
			log.Printf("queue publish failed: %v", err)
		}
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"lesson_id":     rec.LessonID,
		"checked_in_at": rec.CheckedInAt,
	})
}

func (s *Server) listCheckedIn(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	students, err := s.ledger.ListCheckedIn(c.Request.Context(), ident.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(students))
	for _, st := range students {
		out = append(out, gin.H{"id": st.ID, "name": st.Name, "email": st.Email})
	}
	c.JSON(http.StatusOK, gin.H{"students": out})
}

func (s *Server) confirm(c *gin.Context) {
	var req struct {
		StudentIDs []string `json:"student_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident := auth.IdentityFrom(c)
	if err := s.ledger.Confirm(c.Request.Context(), ident.ID, c.Param("id"), req.StudentIDs); err != nil {
		writeError(c, err)
		return
	}
	metrics.Confirmations.Inc()
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (s *Server) listConfirmed(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	records, err := s.ledger.ListConfirmed(c.Request.Context(), ident.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		out = append(out, gin.H{
			"lesson_id":     rec.LessonID,
			"student_id":    rec.StudentID,
			"checked_in_at": rec.CheckedInAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"attendances": out})
}
