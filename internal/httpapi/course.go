package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/course"
)

func courseJSON(c course.Course) gin.H {
	return gin.H{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"created_at":  c.CreatedAt,
	}
}

func (s *Server) createCourse(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident := auth.IdentityFrom(c)
	created, err := s.courses.Create(c.Request.Context(), ident.ID, req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, courseJSON(created))
}

func (s *Server) listCourses(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	courses, err := s.courses.ListByProfessor(c.Request.Context(), ident.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(courses))
	for _, crs := range courses {
		out = append(out, courseJSON(crs))
	}
	c.JSON(http.StatusOK, gin.H{"courses": out})
}

func (s *Server) editCourse(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident := auth.IdentityFrom(c)
	updated, err := s.courses.Edit(c.Request.Context(), ident.ID, c.Param("id"), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, courseJSON(updated))
}

func (s *Server) deleteCourse(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	if err := s.courses.Delete(c.Request.Context(), ident.ID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) listSubscribers(c *gin.Context) {
	courseID := c.Param("id")
	ident := auth.IdentityFrom(c)

	owner, err := s.courses.Owner(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	if owner != ident.ID {
		writeError(c, course.ErrNotOwner)
		return
	}

	students, err := s.courses.Subscribers(c.Request.Context(), courseID)
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

func (s *Server) subscribe(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	if err := s.courses.Subscribe(c.Request.Context(), c.Param("id"), ident.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "subscribed"})
}

func (s *Server) unsubscribe(c *gin.Context) {
	ident := auth.IdentityFrom(c)
	if err := s.courses.Unsubscribe(c.Request.Context(), c.Param("id"), ident.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}
