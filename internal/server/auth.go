package server

import (
	"net/http"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/token"
	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

// refreshCookie is scoped to the auth path so the refresh token never rides
// along on business requests.
const refreshCookie = "refresh_token"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       rbac.Role `json:"role"`
	SectorID   string    `json:"sectorId,omitempty"`
	GtcPointID string    `json:"gtcPointId,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := s.directory.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if u == nil || s.passwords.Compare(u.PasswordHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	access, err := s.credentials.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	refresh, _, err := s.credentials.IssueRefresh(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setRefreshCookie(w, r, refresh)
	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: access, User: toUserResponse(u)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
		return
	}
	grant, err := s.credentials.VerifyRefresh(r.Context(), c.Value)
	if err != nil {
		s.clearRefreshCookie(w, r)
		writeError(w, err)
		return
	}
	newRefresh, _, err := s.credentials.Rotate(r.Context(), c.Value)
	if err != nil {
		s.clearRefreshCookie(w, r)
		writeError(w, err)
		return
	}
	u, err := s.directory.GetByID(r.Context(), grant.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if u == nil {
		s.clearRefreshCookie(w, r)
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
		return
	}
	access, err := s.credentials.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setRefreshCookie(w, r, newRefresh)
	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: access, User: toUserResponse(u)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(refreshCookie); err == nil {
		if grant, err := s.credentials.VerifyRefresh(r.Context(), c.Value); err == nil {
			_ = s.credentials.Revoke(r.Context(), grant.JTI)
		}
	}
	s.clearRefreshCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(actorFrom(r)))
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   int(token.DefaultRefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func toUserResponse(u *userdomain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		SectorID:   u.SectorID,
		GtcPointID: u.GtcPointID,
	}
}
