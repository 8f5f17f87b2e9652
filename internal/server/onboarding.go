package server

import (
	"net/http"
	"time"

	onboardingdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/domain"
	onboardingservice "github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/service"
)

type onboardingResponse struct {
	ID         string    `json:"id"`
	SectorID   string    `json:"sectorId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Status     string    `json:"status"`
	GtcPointID string    `json:"gtcPointId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toOnboardingResponse(o *onboardingdomain.Onboarding) onboardingResponse {
	return onboardingResponse{
		ID:         o.ID,
		SectorID:   o.SectorID,
		Email:      o.Email,
		Name:       o.Name,
		Phone:      o.Phone,
		Address:    o.Address,
		Status:     string(o.Status),
		GtcPointID: o.GtcPointID,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func (s *Server) handleOnboardingCreateLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectorID   string   `json:"sectorId"`
		Email      string   `json:"email"`
		Name       string   `json:"name"`
		ServiceIDs []string `json:"serviceIds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := s.onboardings.CreateLink(r.Context(), actorFrom(r), onboardingservice.CreateLinkInput{
		SectorID:   req.SectorID,
		Email:      req.Email,
		Name:       req.Name,
		ServiceIDs: req.ServiceIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOnboardingResponse(o))
}

func (s *Server) handleOnboardingList(w http.ResponseWriter, r *http.Request) {
	list, err := s.onboardings.ListForActor(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]onboardingResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOnboardingResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOnboardingGet(w http.ResponseWriter, r *http.Request) {
	o, err := s.onboardings.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOnboardingResponse(o))
}

func (s *Server) handleOnboardingApprove(w http.ResponseWriter, r *http.Request) {
	o, err := s.onboardings.Approve(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOnboardingResponse(o))
}

func (s *Server) handleOnboardingDecline(w http.ResponseWriter, r *http.Request) {
	o, err := s.onboardings.Decline(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOnboardingResponse(o))
}

// handleOnboardingSubmit is token-addressed: applicants have no account.
// Multipart with form fields plus an optional signature file part.
func (s *Server) handleOnboardingSubmit(w http.ResponseWriter, r *http.Request) {
	in := onboardingservice.SubmitInput{}
	data, mime, name, err := readMultipartFile(r, "signature")
	if err == nil {
		in.Signature, in.SignatureMime, in.SignatureName = data, mime, name
	}
	in.Token = r.FormValue("token")
	in.Name = r.FormValue("name")
	in.Phone = r.FormValue("phone")
	in.Address = r.FormValue("address")
	if ids, ok := r.Form["serviceIds"]; ok {
		in.ReplaceServices = true
		in.ServiceIDs = ids
	}

	o, err := s.onboardings.Submit(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOnboardingResponse(o))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := s.onboardings.CompleteRegistration(r.Context(), req.Token, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}
