package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const (
	maxPhotoBytes = 10 << 20
	feedKeepalive = 30 * time.Second
)

type AttendanceHandler interface {
	Clock(w http.ResponseWriter, r *http.Request)
	ToggleLateIgnored(w http.ResponseWriter, r *http.Request)
	UpdateBreak(w http.ResponseWriter, r *http.Request)
	DeleteBreak(w http.ResponseWriter, r *http.Request)
	Repair(w http.ResponseWriter, r *http.Request)
	Feed(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Clock implements AttendanceHandler.
func (h *attendanceHandlerImpl) Clock(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}
	if claims.EmployeeID == nil && !claims.IsAdmin {
		response.HandleError(w, auth.ErrEmployeeClaimMissing)
		return
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	req := attendance.ClockRequest{
		Mode:           attendance.Mode(r.FormValue("mode")),
		AuthEmployeeID: claims.EmployeeID,
	}

	file, _, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// Validate reports the missing photo.
	case err != nil:
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	default:
		defer file.Close()
		req.Image, err = io.ReadAll(io.LimitReader(file, maxPhotoBytes))
		if err != nil {
			slog.Error("Failed to read photo", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
	}

	resp, err := h.attendanceService.RecordFromImage(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, resp.Message, resp)
}

// ToggleLateIgnored implements AttendanceHandler.
func (h *attendanceHandlerImpl) ToggleLateIgnored(w http.ResponseWriter, r *http.Request) {
	event, err := h.attendanceService.ToggleLateIgnored(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Lateness override updated", event)
}

// UpdateBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) UpdateBreak(w http.ResponseWriter, r *http.Request) {
	var req attendance.UpdateBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.attendanceService.UpdateBreak(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break updated", nil)
}

// DeleteBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) DeleteBreak(w http.ResponseWriter, r *http.Request) {
	var req attendance.DeleteBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.attendanceService.DeleteBreak(r.Context(), req.StartEventID, req.EndEventID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break deleted", nil)
}

// Repair implements AttendanceHandler.
func (h *attendanceHandlerImpl) Repair(w http.ResponseWriter, r *http.Request) {
	var req attendance.RepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	report, err := h.attendanceService.RepairRange(r.Context(), req.EmployeeID, req.Start, req.End)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}

// Feed implements AttendanceHandler. It streams clockings as server-sent
// events until the client disconnects.
func (h *attendanceHandlerImpl) Feed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.attendanceService.Subscribe(r.Context())
	defer cleanup()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(feedKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Failed to encode feed event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
