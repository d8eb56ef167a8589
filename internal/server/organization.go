package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/adopet/internal/organization/domain"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
)

type registerOrganizationRequest struct {
	Name         string   `json:"name" binding:"required,max=255"`
	CNPJ         string   `json:"cnpj" binding:"required,cnpj"`
	Address      string   `json:"address" binding:"max=255"`
	City         string   `json:"city" binding:"max=100"`
	State        string   `json:"state" binding:"omitempty,uf"`
	Phone        string   `json:"phone" binding:"max=20"`
	Email        string   `json:"email" binding:"required,email,max=255"`
	Password     string   `json:"password" binding:"required,min=8,max=128"`
	Website      string   `json:"website" binding:"omitempty,url,max=255"`
	Instagram    string   `json:"instagram" binding:"max=255"`
	Mission      string   `json:"mission"`
	LogoURL      string   `json:"logo_url" binding:"omitempty,url,max=255"`
	HelpTypes    []string `json:"help_types" binding:"dive,catalogkey"`
	AcceptsTerms bool     `json:"accepts_terms"`
	Latitude     *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" binding:"omitempty,longitude"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

type searchOrganizationsQuery struct {
	pagination.Page
	Name      string   `form:"name"`
	HelpTypes []string `form:"help_types"`
	Latitude  *float64 `form:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `form:"longitude" binding:"omitempty,longitude"`
	RadiusKm  *float64 `form:"radius_km"`
}

func (s *Server) RegisterOrganization(c *gin.Context) {
	var req registerOrganizationRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.organizationSvc.Register(c.Request.Context(), organizationdomain.RegisterRequest{
		Name:         strings.TrimSpace(req.Name),
		CNPJ:         strings.TrimSpace(req.CNPJ),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        strings.ToUpper(strings.TrimSpace(req.State)),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		Password:     req.Password,
		Website:      strings.TrimSpace(req.Website),
		Instagram:    strings.TrimSpace(req.Instagram),
		Mission:      strings.TrimSpace(req.Mission),
		LogoURL:      strings.TrimSpace(req.LogoURL),
		HelpTypes:    req.HelpTypes,
		AcceptsTerms: req.AcceptsTerms,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) SearchOrganizations(c *gin.Context) {
	var query searchOrganizationsQuery
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.organizationSvc.Search(c.Request.Context(), organizationdomain.SearchRequest{
		Name:      strings.TrimSpace(query.Name),
		HelpTypes: splitValues(query.HelpTypes),
		Latitude:  query.Latitude,
		Longitude: query.Longitude,
		RadiusKm:  query.RadiusKm,
		Page:      query.Page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListHelpTypes(c *gin.Context) {
	items, err := s.organizationSvc.ListHelpTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetOrganization(c *gin.Context) {
	resp, err := s.organizationSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateOrganizationLocation(c *gin.Context) {
	var req updateLocationRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.organizationSvc.UpdateLocation(c.Request.Context(), organizationdomain.UpdateLocationRequest{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	org, err := s.organizationSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	issued, err := s.tokens.Issue(org.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": issued})
}

// Logout is stateless; the client drops its token.
func (s *Server) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
