package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/cutdesk/cutdesk/internal/store"
	"github.com/cutdesk/cutdesk/internal/tasks"
)

// TaskResponse is the API shape of a task
type TaskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Notes       string  `json:"notes,omitempty"`
	Status      string  `json:"status"`
	TimerStatus string  `json:"timer_status"`
	LiveSeconds int64   `json:"live_seconds"`
	Version     int64   `json:"version"`
	Deadline    *string `json:"deadline,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	AgencyID    *string `json:"agency_id,omitempty"`
	WageVND     int64   `json:"wage_vnd"`
	JobPriceUSD float64 `json:"job_price_usd"`
	IsPenalized bool    `json:"is_penalized"`
}

// FeedbackResponse is one revision note on a task
type FeedbackResponse struct {
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// StatusResponse is the API shape of the overall pipeline state
type StatusResponse struct {
	Total     int `json:"total"`
	Awaiting  int `json:"awaiting"`
	Active    int `json:"active"`
	InReview  int `json:"in_review"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

func taskToResponse(t *domain.Task, now time.Time) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Notes:       t.Notes,
		Status:      string(t.Status),
		TimerStatus: string(t.TimerStatus),
		LiveSeconds: t.LiveSeconds(now),
		Version:     t.Version,
		AssigneeID:  t.AssigneeID,
		AgencyID:    t.AssignedAgencyID,
		WageVND:     t.WageVND,
		JobPriceUSD: t.JobPriceUSD,
		IsPenalized: t.IsPenalized,
	}
	if t.Deadline != nil {
		d := t.Deadline.Format(time.RFC3339)
		resp.Deadline = &d
	}
	return resp
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		all, err := s.store.ListTasks(store.ListOptions{})
		if err != nil {
			writeInternalError(w, err)
			return
		}

		var status StatusResponse
		status.Total = len(all)
		for _, t := range all {
			switch t.Status {
			case domain.StatusAwaiting:
				status.Awaiting++
			case domain.StatusReview:
				status.InReview++
			case domain.StatusCompleted:
				status.Completed++
			case domain.StatusCancelled:
				status.Cancelled++
			default:
				status.Active++
			}
		}
		writeJSON(w, status)
	}
}

func (s *Server) listTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		opts := store.ListOptions{
			Status:     domain.TaskStatus(r.URL.Query().Get("status")),
			AssigneeID: r.URL.Query().Get("assignee"),
			AgencyID:   r.URL.Query().Get("agency"),
		}
		list, err := s.store.ListTasks(opts)
		if err != nil {
			writeInternalError(w, err)
			return
		}

		now := time.Now()
		responses := make([]TaskResponse, len(list))
		for i, t := range list {
			responses[i] = taskToResponse(t, now)
		}
		writeJSON(w, responses)
	}
}

// taskHandler routes /api/tasks/{id} and its action sub-paths
func (s *Server) taskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
		if path == "" {
			writeError(w, http.StatusBadRequest, "task id required")
			return
		}

		id, action := path, ""
		if idx := strings.IndexByte(path, '/'); idx >= 0 {
			id, action = path[:idx], path[idx+1:]
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			s.getTask(w, r, id)
		case action == "status" && r.Method == http.MethodPost:
			s.updateStatus(w, r, id)
		case action == "assign" && r.Method == http.MethodPost:
			s.assign(w, r, id)
		case action == "financials" && r.Method == http.MethodPost:
			s.updateFinancials(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := s.store.GetTask(id)
	if err != nil {
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeInternalError(w, err)
		return
	}

	feedback, err := s.store.TaskFeedback(id)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	entries := make([]FeedbackResponse, len(feedback))
	for i, f := range feedback {
		entries[i] = FeedbackResponse{
			AuthorID:  f.AuthorID,
			Content:   f.Content,
			CreatedAt: f.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, struct {
		TaskResponse
		Feedback []FeedbackResponse `json:"feedback"`
	}{taskToResponse(task, time.Now()), entries})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	var body struct {
		Status          string  `json:"status"`
		Notes           *string `json:"notes"`
		Feedback        *string `json:"feedback"`
		ExpectedVersion *int64  `json:"expected_version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	result, err := s.tasks.UpdateTaskStatus(*actor, tasks.UpdateStatusRequest{
		TaskID:          id,
		NewStatus:       domain.TaskStatus(body.Status),
		Notes:           body.Notes,
		Feedback:        body.Feedback,
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"status":        body.Status,
		"final_seconds": result.FinalSeconds,
	})
}

func (s *Server) assign(w http.ResponseWriter, r *http.Request, id string) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	var body struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.tasks.AssignTask(*actor, id, body.Target); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) updateFinancials(w http.ResponseWriter, r *http.Request, id string) {
	actor := s.actor(w, r)
	if actor == nil {
		return
	}

	var body struct {
		WageVND     int64   `json:"wage_vnd"`
		JobPriceUSD float64 `json:"job_price_usd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.tasks.UpdateFinancials(*actor, id, body.WageVND, body.JobPriceUSD); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// BonusResponse is the API shape of one bonus award
type BonusResponse struct {
	UserID             string  `json:"user_id"`
	Rank               int     `json:"rank"`
	Revenue            int64   `json:"revenue"`
	ExecutionTimeHours float64 `json:"execution_time_hours"`
	BonusAmount        int64   `json:"bonus_amount"`
}

func (s *Server) lockStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		lock, month, year, err := s.payroll.LockStatus()
		if err != nil {
			writeInternalError(w, err)
			return
		}

		resp := map[string]interface{}{
			"month":  month,
			"year":   year,
			"locked": lock != nil && lock.IsLocked,
		}
		if lock != nil {
			resp["locked_at"] = lock.LockedAt.Format(time.RFC3339)
			resp["locked_by"] = lock.LockedBy
		}
		writeJSON(w, resp)
	}
}

func (s *Server) bonusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bonuses, err := s.payroll.Bonuses()
			if err != nil {
				writeInternalError(w, err)
				return
			}
			writeJSON(w, bonusesToResponse(bonuses))

		case http.MethodPost:
			actor := s.actor(w, r)
			if actor == nil {
				return
			}
			round, err := s.payroll.CalculateMonthlyBonus(*actor)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, map[string]interface{}{
				"month":   round.Month,
				"year":    round.Year,
				"bonuses": bonusesToResponse(round.Bonuses),
			})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) revertBonusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		actor := s.actor(w, r)
		if actor == nil {
			return
		}
		if err := s.payroll.RevertMonthlyBonus(*actor); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "reverted"})
	}
}

func bonusesToResponse(bonuses []domain.MonthlyBonus) []BonusResponse {
	resp := make([]BonusResponse, len(bonuses))
	for i, b := range bonuses {
		resp[i] = BonusResponse{
			UserID:             b.UserID,
			Rank:               b.Rank,
			Revenue:            b.Revenue,
			ExecutionTimeHours: b.ExecutionTimeHours,
			BonusAmount:        b.BonusAmount,
		}
	}
	return resp
}

func (s *Server) notificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		actor := s.actor(w, r)
		if actor == nil {
			return
		}

		list, err := s.store.UnreadNotifications(actor.ID, 50)
		if err != nil {
			writeInternalError(w, err)
			return
		}

		type notificationResponse struct {
			ID        string  `json:"id"`
			TaskID    *string `json:"task_id,omitempty"`
			Kind      string  `json:"kind"`
			Message   string  `json:"message"`
			CreatedAt string  `json:"created_at"`
		}
		resp := make([]notificationResponse, len(list))
		for i, n := range list {
			resp[i] = notificationResponse{
				ID:        n.ID,
				TaskID:    n.TaskID,
				Kind:      string(n.Kind),
				Message:   n.Message,
				CreatedAt: n.CreatedAt.Format(time.RFC3339),
			}
		}
		writeJSON(w, resp)
	}
}

// ScheduleBlockResponse is one calendar entry on a user's schedule
type ScheduleBlockResponse struct {
	ID     string  `json:"id"`
	TaskID *string `json:"task_id,omitempty"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Type   string  `json:"type"`
	Note   string  `json:"note,omitempty"`
}

// userScheduleHandler routes /api/users/{id}/schedule: GET lists the user's
// blocks for a window (default the coming week), POST books a busy block.
// Users manage their own schedule; admins anyone's.
func (s *Server) userScheduleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/users/")
		id := strings.TrimSuffix(path, "/schedule")
		if id == "" || id == path {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		actor := s.actor(w, r)
		if actor == nil {
			return
		}
		if !actor.IsAdmin() && actor.ID != id {
			writeError(w, http.StatusForbidden, "not your schedule")
			return
		}

		switch r.Method {
		case http.MethodGet:
			s.listSchedule(w, r, id)
		case http.MethodPost:
			s.createBusyBlock(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) listSchedule(w http.ResponseWriter, r *http.Request, userID string) {
	now := time.Now()
	from, to := now.Add(-24*time.Hour), now.Add(7*24*time.Hour)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from time")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to time")
			return
		}
		to = t
	}

	blocks, err := s.store.UserBlocks(userID, from, to)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	resp := make([]ScheduleBlockResponse, len(blocks))
	for i, b := range blocks {
		resp[i] = ScheduleBlockResponse{
			ID:     b.ID,
			TaskID: b.TaskID,
			Start:  b.StartTime.Format(time.RFC3339),
			End:    b.EndTime.Format(time.RFC3339),
			Type:   string(b.Type),
			Note:   b.Note,
		}
	}
	writeJSON(w, resp)
}

func (s *Server) createBusyBlock(w http.ResponseWriter, r *http.Request, userID string) {
	var body struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Note  string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.Parse(time.RFC3339, body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start time")
		return
	}
	end, err := time.Parse(time.RFC3339, body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end time")
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end must be after start")
		return
	}

	block := &domain.ScheduleBlock{
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		Type:      domain.BlockBusy,
		Note:      body.Note,
	}
	if err := s.store.CreateBlock(block); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, map[string]string{"id": block.ID})
}

func (s *Server) markReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		actor := s.actor(w, r)
		if actor == nil {
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
		id := strings.TrimSuffix(path, "/read")
		if id == "" || id == path {
			writeError(w, http.StatusBadRequest, "notification id required")
			return
		}

		if err := s.store.MarkNotificationRead(id); err != nil {
			if err == store.ErrNotFound {
				writeError(w, http.StatusNotFound, "notification not found")
				return
			}
			writeInternalError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	}
}
