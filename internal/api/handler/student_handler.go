package handler

import (
	"encoding/json"
	"net/http"

	"student_registry_api/internal/app/service"
	"student_registry_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type StudentHandler struct {
	studentService *service.StudentService
}

func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

func (h *StudentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update) // Full replacement; PATCH is not routed
	r.Delete("/{id}", h.destroy)
}

func (h *StudentHandler) list(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.List(r.Context())
	if err != nil {
		respondFailure(w, err, "Student not found")
		return
	}
	common.RespondSuccess(w, http.StatusOK, "", students)
}

func (h *StudentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	student, err := h.studentService.Create(r.Context(), req)
	if err != nil {
		respondFailure(w, err, "Student not found")
		return
	}
	common.RespondSuccess(w, http.StatusCreated, "Student created successfully", student)
}

func (h *StudentHandler) show(w http.ResponseWriter, r *http.Request) {
	student, err := h.studentService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, err, "Student not found")
		return
	}
	common.RespondSuccess(w, http.StatusOK, "", student)
}

func (h *StudentHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	student, err := h.studentService.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondFailure(w, err, "Student not found")
		return
	}
	common.RespondSuccess(w, http.StatusOK, "Student updated successfully", student)
}

func (h *StudentHandler) destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondFailure(w, err, "Student not found")
		return
	}
	common.RespondSuccess(w, http.StatusOK, "Student deleted successfully", nil)
}
