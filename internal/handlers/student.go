package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"github.com/ArowuTest/class-picker/internal/models"
	"github.com/ArowuTest/class-picker/internal/picker"
)

type createStudentRequest struct {
	Name   string   `json:"name" binding:"required,max=100"`
	Weight *float64 `json:"weight" binding:"omitempty,gte=0"`
}

type updateStudentRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Weight    *float64 `json:"weight" binding:"omitempty,gte=0"`
	DrawCount *int     `json:"draw_count" binding:"omitempty,gte=0"`
}

// csvStudent is one parsed row of an import file.
type csvStudent struct {
	Name   string  `validate:"required,max=100"`
	Weight float64 `validate:"gte=0"`
}

type skippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ListStudents handles GET /api/v1/classrooms/:id/students
func (h *Handler) ListStudents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	students, err := h.picker.ComputeProbabilities(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// CreateStudent handles POST /api/v1/classrooms/:id/students
func (h *Handler) CreateStudent(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetClassroom(ctx, classroomID); err != nil {
		respondError(c, err)
		return
	}

	student := models.Student{
		ClassroomID: classroomID,
		Name:        strings.TrimSpace(req.Name),
		Weight:      models.DefaultWeight,
	}
	if req.Weight != nil {
		student.Weight = *req.Weight
	}
	if err := h.store.CreateStudent(ctx, &student); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// UpdateStudent handles PUT /api/v1/students/:id
func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	student, err := h.store.GetStudent(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
		if student.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: name must not be blank"})
			return
		}
	}
	if req.Weight != nil {
		student.Weight = *req.Weight
	}
	if req.DrawCount != nil {
		student.DrawCount = *req.DrawCount
	}
	if err := h.store.UpdateStudent(ctx, &student); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// DeleteStudent handles DELETE /api/v1/students/:id
func (h *Handler) DeleteStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteStudent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}

// ImportStudents handles POST /api/v1/classrooms/:id/students/import
// with a multipart "file" of name[,weight] rows.
func (h *Handler) ImportStudents(c *gin.Context) {
	classroomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving file: " + err.Error()})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	if _, err := h.store.GetClassroom(ctx, classroomID); err != nil {
		respondError(c, err)
		return
	}

	rows, skipped, err := h.parseStudentsCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading CSV: " + err.Error()})
		return
	}

	students := make([]models.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, models.Student{
			ClassroomID: classroomID,
			Name:        row.Name,
			Weight:      row.Weight,
		})
	}
	if err := h.store.CreateStudents(ctx, students); err != nil {
		respondError(c, err)
		return
	}

	logger.Infof("imported %d student(s) into classroom %s, skipped %d", len(students), classroomID, len(skipped))
	c.JSON(http.StatusCreated, gin.H{
		"imported": len(students),
		"students": picker.WithProbabilities(students),
		"skipped":  skipped,
	})
}

// parseStudentsCSV reads name[,weight] rows. A first row whose first cell is
// "name" is treated as a header. Rows that fail validation are reported in
// skipped, not returned as an error.
func (h *Handler) parseStudentsCSV(r io.Reader) ([]csvStudent, []skippedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows    []csvStudent
		skipped = []skippedRow{}
		line    int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line++

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}

		row := csvStudent{Name: strings.TrimSpace(record[0]), Weight: models.DefaultWeight}
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			w, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
			if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
				skipped = append(skipped, skippedRow{Line: line, Reason: fmt.Sprintf("invalid weight %q", record[1])})
				continue
			}
			row.Weight = w
		}
		if err := h.validate.Struct(row); err != nil {
			skipped = append(skipped, skippedRow{Line: line, Reason: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}
