package web

import (
	"encoding/json"
	"net/http"
)

type safetyRuleRequest struct {
	Pattern   string `json:"pattern"`
	MatchType string `json:"match_type"`
	Exclude   bool   `json:"exclude"`
}

func (server *Server) handleListSafetyRules(w http.ResponseWriter, r *http.Request) {
	var rules []safetyRuleRequest
	for _, rule := range server.app.Scope.IncludeRules {
		rules = append(rules, safetyRuleRequest{
			Pattern:   rule.Pattern.String(),
			MatchType: rule.MatchType,
			Exclude:   false,
		})
	}
	for _, rule := range server.app.Scope.ExcludeRules {
		rules = append(rules, safetyRuleRequest{
			Pattern:   rule.Pattern.String(),
			MatchType: rule.MatchType,
			Exclude:   true,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default_allow": server.app.Scope.DefaultAllow,
		"rules":         rules,
	})
}

func (server *Server) handleAddSafetyRule(w http.ResponseWriter, r *http.Request) {
	var req safetyRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := server.app.AddSafetyRule(req.Pattern, req.MatchType, req.Exclude); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (server *Server) handleRemoveSafetyRule(w http.ResponseWriter, r *http.Request) {
	var req safetyRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := server.app.RemoveSafetyRule(req.Pattern, req.MatchType, req.Exclude); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
