package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	adoptiondomain "github.com/smallbiznis/adopet/internal/adoption/domain"
	"github.com/smallbiznis/adopet/internal/money"
)

type createAdoptionRequest struct {
	AnimalID        string       `json:"animal_id" binding:"required"`
	AdopterName     string       `json:"adopter_name" binding:"required,max=255"`
	AdopterDocument string       `json:"adopter_document" binding:"max=30"`
	AdopterEmail    string       `json:"adopter_email" binding:"omitempty,email,max=255"`
	AdopterPhone    string       `json:"adopter_phone" binding:"max=30"`
	AdoptionDate    string       `json:"adoption_date"`
	AdoptionFee     *money.Cents `json:"adoption_fee"`
	ContractURL     string       `json:"contract_url" binding:"omitempty,url,max=2048"`
	VolunteerName   string       `json:"volunteer_name" binding:"max=255"`
	Notes           string       `json:"notes"`
}

type closeAdoptionRequest struct {
	ClosedAt string `json:"closed_at"`
	Reason   string `json:"reason" binding:"max=500"`
}

func (s *Server) CreateAdoption(c *gin.Context) {
	var req createAdoptionRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	adoptionDate, err := parseOptionalTime(req.AdoptionDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("adoption_date", "invalid_adoption_date", "invalid adoption_date"))
		return
	}

	resp, err := s.adoptionSvc.Create(c.Request.Context(), adoptiondomain.CreateAdoptionRequest{
		AnimalID:        strings.TrimSpace(req.AnimalID),
		AdopterName:     strings.TrimSpace(req.AdopterName),
		AdopterDocument: strings.TrimSpace(req.AdopterDocument),
		AdopterEmail:    strings.TrimSpace(req.AdopterEmail),
		AdopterPhone:    strings.TrimSpace(req.AdopterPhone),
		AdoptionDate:    adoptionDate,
		AdoptionFee:     req.AdoptionFee,
		ContractURL:     strings.TrimSpace(req.ContractURL),
		VolunteerName:   strings.TrimSpace(req.VolunteerName),
		Notes:           strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) CloseAdoption(c *gin.Context) {
	var req closeAdoptionRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	closedAt, err := parseOptionalTime(req.ClosedAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("closed_at", "invalid_closed_at", "invalid closed_at"))
		return
	}

	resp, err := s.adoptionSvc.Close(c.Request.Context(), strings.TrimSpace(c.Param("id")), adoptiondomain.CloseAdoptionRequest{
		ClosedAt: closedAt,
		Reason:   strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAnimalAdoptions(c *gin.Context) {
	items, err := s.adoptionSvc.ListByAnimal(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
