package server

import (
	"io"
	"net/http"
	"time"

	conventiondomain "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/domain"
	conventionservice "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/service"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
)

// maxUploadBytes bounds multipart uploads (signed PDFs, signatures).
const maxUploadBytes = 20 << 20 // 20MB

type conventionResponse struct {
	ID               string    `json:"id"`
	GtcPointID       string    `json:"gtcPointId"`
	SectorID         string    `json:"sectorId"`
	Status           string    `json:"status"`
	InternalSalesRep string    `json:"internalSalesRep,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type documentResponse struct {
	ID           string    `json:"id"`
	ConventionID string    `json:"conventionId"`
	Kind         string    `json:"kind"`
	StoredName   string    `json:"storedName"`
	Mime         string    `json:"mime"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toConventionResponse(c *conventiondomain.Convention) conventionResponse {
	return conventionResponse{
		ID:               c.ID,
		GtcPointID:       c.GtcPointID,
		SectorID:         c.SectorID,
		Status:           string(c.Status),
		InternalSalesRep: c.InternalSalesRep,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (s *Server) handleConventionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GtcPointID string `json:"gtcPointId"`
		SectorID   string `json:"sectorId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.conventions.Create(r.Context(), actorFrom(r), req.GtcPointID, req.SectorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConventionResponse(c))
}

func (s *Server) handleConventionList(w http.ResponseWriter, r *http.Request) {
	list, err := s.conventions.ListForActor(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]conventionResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toConventionResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConventionGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.conventions.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConventionResponse(c))
}

func (s *Server) handleConventionUpload(w http.ResponseWriter, r *http.Request) {
	data, mime, name, err := readMultipartFile(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := s.conventions.Upload(r.Context(), actorFrom(r), r.PathValue("id"), conventionservice.Upload{
		Data:     data,
		Mime:     mime,
		Filename: name,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse{
		ID:           doc.ID,
		ConventionID: doc.ConventionID,
		Kind:         string(doc.Kind),
		StoredName:   doc.StoredName,
		Mime:         doc.Mime,
		Size:         doc.Size,
		Checksum:     doc.Checksum,
		CreatedAt:    doc.CreatedAt,
	})
}

func (s *Server) handleConventionDecide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision         string `json:"decision"`
		InternalSalesRep string `json:"internalSalesRep"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.conventions.Decide(r.Context(), actorFrom(r), r.PathValue("id"),
		conventionservice.Decision(req.Decision), req.InternalSalesRep)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConventionResponse(c))
}

func (s *Server) handleConventionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.conventions.Delete(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readMultipartFile extracts one named file part, bounded by maxUploadBytes.
func readMultipartFile(r *http.Request, field string) (data []byte, mime, name string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", "", apperr.Validationf("invalid multipart body: %v", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", "", apperr.Validationf("missing file field %q", field)
	}
	defer file.Close()
	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", "", apperr.Validationf("read file: %v", err)
	}
	return data, header.Header.Get("Content-Type"), header.Filename, nil
}
