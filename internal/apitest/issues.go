package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/campusfix/pkg/model"
)

// SeedIssue creates an issue reported by the account with the given email.
func (s *Server) SeedIssue(email string, in model.NewIssue) model.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createIssueLocked(s.byEmail[strings.ToLower(email)], in).Issue
}

// Notify queues a notification for the account with the given email.
func (s *Server) Notify(email, title, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(s.byEmail[strings.ToLower(email)], model.NotifySystem, title, message, nil)
}

func (s *Server) createIssueLocked(reporter int64, in model.NewIssue) *model.IssueDetail {
	s.nextID++
	now := time.Now().UTC().Truncate(time.Second)
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = "public"
	}
	u := s.accounts[reporter].user
	d := &model.IssueDetail{
		Issue: model.Issue{
			ID:          s.nextID,
			Title:       in.Title,
			Description: in.Description,
			Category:    in.Category,
			Status:      model.StatusOpen,
			Priority:    priority,
			Location:    in.Location,
			Visibility:  visibility,
			Reporter:    &u,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Comments:    []model.Comment{},
		Attachments: []model.Attachment{},
	}
	s.issues[d.ID] = d
	return d
}

func (s *Server) notifyLocked(userID int64, kind model.NotificationType, title, message string, issue *int64) {
	s.nextID++
	s.notifications[userID] = append(s.notifications[userID], &model.Notification{
		ID:           s.nextID,
		Title:        title,
		Message:      message,
		Type:         kind,
		RelatedIssue: issue,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *Server) isAdminLocked(id int64) bool {
	u := s.accounts[id].user
	return u.IsStaff || model.ClassifyRole(&u).IsAdmin()
}

// view returns a copy of the issue as seen by viewer.
func (s *Server) viewLocked(d *model.IssueDetail, viewer int64) model.IssueDetail {
	out := *d
	out.UpvoteCount = len(s.upvotes[d.ID])
	out.UpvotedByUser = s.upvotes[d.ID][viewer]
	out.CommentCount = len(d.Comments)
	return out
}

func (s *Server) lookupIssue(w http.ResponseWriter, r *http.Request) (*model.IssueDetail, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}
	d, ok := s.issues[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}
	return d, true
}

func (s *Server) handleIssueList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	viewer := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Issue
	for _, d := range s.issues {
		if q.Get("filter") == "my-issues" && d.Reporter.ID != viewer {
			continue
		}
		if v := q.Get("status"); v != "" && string(d.Status) != v {
			continue
		}
		if v := q.Get("priority"); v != "" && string(d.Priority) != v {
			continue
		}
		if v := q.Get("category"); v != "" && string(d.Category) != v {
			continue
		}
		if v := strings.ToLower(q.Get("search")); v != "" &&
			!strings.Contains(strings.ToLower(d.Title), v) &&
			!strings.Contains(strings.ToLower(d.Description), v) {
			continue
		}
		out = append(out, s.viewLocked(d, viewer).Issue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if out == nil {
		out = []model.Issue{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIssueCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewIssue
	if !decode(r, &in) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	errs := map[string][]string{}
	if in.Title == "" {
		errs["title"] = []string{"This field is required."}
	}
	if in.Category != "" && !in.Category.Valid() {
		errs["category"] = []string{`"` + string(in.Category) + `" is not a valid choice.`}
	}
	if len(errs) > 0 {
		fieldErrors(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.createIssueLocked(userID(r), in)
	writeJSON(w, http.StatusCreated, s.viewLocked(d, userID(r)).Issue)
}

func (s *Server) handleIssueGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookupIssue(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.viewLocked(d, userID(r)))
}

func (s *Server) handleIssueUpdate(w http.ResponseWriter, r *http.Request) {
	var p model.IssuePatch
	if !decode(r, &p) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookupIssue(w, r)
	if !ok {
		return
	}
	viewer := userID(r)
	if d.Reporter.ID != viewer && !s.isAdminLocked(viewer) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.Visibility != nil {
		d.Visibility = *p.Visibility
	}
	if p.Status != nil && *p.Status != d.Status {
		d.Status = *p.Status
		if d.Status == model.StatusResolved {
			now := time.Now().UTC()
			d.ResolvedAt = &now
		}
		if d.Reporter.ID != viewer {
			id := d.ID
			s.notifyLocked(d.Reporter.ID, model.NotifyStatusChange, "Issue status updated",
				`"`+d.Title+`" is now `+string(d.Status), &id)
		}
	}
	d.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, s.viewLocked(d, viewer).Issue)
}

func (s *Server) handleIssueDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookupIssue(w, r)
	if !ok {
		return
	}
	viewer := userID(r)
	if d.Reporter.ID != viewer && !s.isAdminLocked(viewer) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	delete(s.issues, d.ID)
	delete(s.upvotes, d.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpvote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookupIssue(w, r)
	if !ok {
		return
	}
	viewer := userID(r)
	if s.upvotes[d.ID] == nil {
		s.upvotes[d.ID] = make(map[int64]bool)
	}
	res := model.UpvoteResult{}
	if s.upvotes[d.ID][viewer] {
		delete(s.upvotes[d.ID], viewer)
		res.Message = "Upvote removed"
	} else {
		s.upvotes[d.ID][viewer] = true
		res.Message = "Issue upvoted"
		res.Upvoted = true
		if d.Reporter.ID != viewer {
			id := d.ID
			s.notifyLocked(d.Reporter.ID, model.NotifyUpvote, "New upvote", `Someone upvoted "`+d.Title+`"`, &id)
		}
	}
	res.UpvoteCount = len(s.upvotes[d.ID])
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCommentList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookupIssue(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d.Comments)
}

func (s *Server) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	decode(r, &body)
	if strings.TrimSpace(body.Content) == "" {
		fieldErrors(w, map[string][]string{"content": {"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.lookupIssue(w, r)
	if !ok {
		return
	}
	viewer := userID(r)
	u := s.accounts[viewer].user
	s.nextID++
	now := time.Now().UTC().Truncate(time.Second)
	c := model.Comment{ID: s.nextID, Issue: d.ID, User: &u, Content: body.Content, CreatedAt: now, UpdatedAt: now}
	d.Comments = append(d.Comments, c)
	if d.Reporter.ID != viewer {
		id := d.ID
		s.notifyLocked(d.Reporter.ID, model.NotifyComment, "New comment", u.FullName()+` commented on "`+d.Title+`"`, &id)
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	viewer := userID(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	var st model.DashboardStats
	for _, d := range s.issues {
		if d.Reporter.ID != viewer {
			continue
		}
		st.TotalIssues++
		switch d.Status {
		case model.StatusOpen:
			st.OpenIssues++
		case model.StatusInProgress:
			st.InProgressIssues++
		case model.StatusResolved:
			st.ResolvedIssues++
		case model.StatusClosed:
			st.ClosedIssues++
		}
	}
	if st.TotalIssues > 0 {
		st.ResolutionRate = float64(st.ResolvedIssues) / float64(st.TotalIssues) * 100
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRecentIssues(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	viewer := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Issue
	for _, d := range s.issues {
		if d.Reporter.ID == viewer {
			out = append(out, s.viewLocked(d, viewer).Issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []model.Issue{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isAdminLocked(userID(r)) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"})
		return
	}

	var st model.AdminStats
	byCategory := map[model.IssueCategory]int{}
	byPriority := map[model.IssuePriority]int{}
	for _, d := range s.issues {
		st.TotalIssues++
		switch d.Status {
		case model.StatusOpen:
			st.OpenIssues++
		case model.StatusInProgress:
			st.InProgressIssues++
		case model.StatusResolved:
			st.ResolvedIssues++
		case model.StatusClosed:
			st.ClosedIssues++
		}
		byCategory[d.Category]++
		byPriority[d.Priority]++
	}
	if st.TotalIssues > 0 {
		st.ResolutionRate = float64(st.ResolvedIssues) / float64(st.TotalIssues) * 100
	}
	st.CategoryStats = []model.CategoryCount{}
	for _, c := range model.Categories {
		if n := byCategory[c]; n > 0 {
			st.CategoryStats = append(st.CategoryStats, model.CategoryCount{Category: c, Count: n})
		}
	}
	st.PriorityStats = []model.PriorityCount{}
	for _, p := range []model.IssuePriority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityCritical} {
		if n := byPriority[p]; n > 0 {
			st.PriorityStats = append(st.PriorityStats, model.PriorityCount{Priority: p, Count: n})
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[userID(r)]
	out := make([]model.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, *list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[userID(r)] {
		if n.ID == id {
			n.IsRead = true
			writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Notification marked as read"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[userID(r)] {
		n.IsRead = true
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "All notifications marked as read"})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications[userID(r)] {
		if !n.IsRead {
			count++
		}
	}
	writeJSON(w, http.StatusOK, model.UnreadCount{Count: count})
}
