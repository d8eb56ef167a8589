package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	animaldomain "github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
)

type searchAnimalsQuery struct {
	pagination.Page
	Latitude  *float64 `form:"latitude" binding:"required,latitude"`
	Longitude *float64 `form:"longitude" binding:"required,longitude"`
	RadiusKm  *float64 `form:"radius_km"`
	SpeciesID *int64   `form:"species_id"`
	Size      string   `form:"size"`
	Sex       string   `form:"sex"`
	AgeYears  *int     `form:"age_years"`
	Traits    []string `form:"temperament_traits"`
}

type listMyAnimalsQuery struct {
	pagination.Page
	Name   string `form:"name"`
	Status string `form:"status"`
}

type animalPhotoRequest struct {
	URL      string `json:"url" binding:"required,url,max=2048"`
	Position *int   `json:"position" binding:"omitempty,min=0"`
}

type createAnimalRequest struct {
	Name                   string               `json:"name" binding:"required,max=100"`
	SpeciesID              int64                `json:"species_id" binding:"required"`
	Sex                    string               `json:"sex"`
	AgeYears               *int                 `json:"age_years" binding:"omitempty,min=0"`
	WeightKg               *float64             `json:"weight_kg" binding:"omitempty,gt=0"`
	Size                   string               `json:"size"`
	TemperamentTraits      []string             `json:"temperament_traits" binding:"dive,catalogkey"`
	EnvironmentPreferences []string             `json:"environment_preferences" binding:"dive,catalogkey"`
	SociableWith           []string             `json:"sociable_with" binding:"dive,catalogkey"`
	Vaccinated             bool                 `json:"vaccinated"`
	Neutered               bool                 `json:"neutered"`
	Dewormed               bool                 `json:"dewormed"`
	RescueDate             string               `json:"rescue_date"`
	Microchip              string               `json:"microchip"`
	Description            string               `json:"description"`
	AdoptionRequirements   string               `json:"adoption_requirements"`
	Status                 string               `json:"status"`
	Photos                 []animalPhotoRequest `json:"photos" binding:"dive"`
}

type updateAnimalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) SearchAnimals(c *gin.Context) {
	var query searchAnimalsQuery
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.animalSvc.Search(c.Request.Context(), animaldomain.SearchRequest{
		Latitude:  query.Latitude,
		Longitude: query.Longitude,
		RadiusKm:  query.RadiusKm,
		SpeciesID: query.SpeciesID,
		Size:      strings.TrimSpace(query.Size),
		Sex:       strings.TrimSpace(query.Sex),
		AgeYears:  query.AgeYears,
		Traits:    splitValues(query.Traits),
		Page:      query.Page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSpecies(c *gin.Context) {
	items, err := s.animalSvc.ListSpecies(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetCharacteristics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.animalSvc.Characteristics()})
}

func (s *Server) ListMyAnimals(c *gin.Context) {
	var query listMyAnimalsQuery
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.animalSvc.ListMine(c.Request.Context(), animaldomain.ListMineRequest{
		Name:   strings.TrimSpace(query.Name),
		Status: strings.TrimSpace(query.Status),
		Page:   query.Page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateAnimal(c *gin.Context) {
	var req createAnimalRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	rescueDate, err := parseOptionalTime(req.RescueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("rescue_date", "invalid_rescue_date", "invalid rescue_date"))
		return
	}

	photos := make([]animaldomain.PhotoRequest, 0, len(req.Photos))
	for _, photo := range req.Photos {
		photos = append(photos, animaldomain.PhotoRequest{
			URL:      strings.TrimSpace(photo.URL),
			Position: photo.Position,
		})
	}

	resp, err := s.animalSvc.Create(c.Request.Context(), animaldomain.CreateAnimalRequest{
		Name:                   strings.TrimSpace(req.Name),
		SpeciesID:              req.SpeciesID,
		Sex:                    strings.TrimSpace(req.Sex),
		AgeYears:               req.AgeYears,
		WeightKg:               req.WeightKg,
		Size:                   strings.TrimSpace(req.Size),
		TemperamentTraits:      req.TemperamentTraits,
		EnvironmentPreferences: req.EnvironmentPreferences,
		SociableWith:           req.SociableWith,
		Vaccinated:             req.Vaccinated,
		Neutered:               req.Neutered,
		Dewormed:               req.Dewormed,
		RescueDate:             rescueDate,
		Microchip:              strings.TrimSpace(req.Microchip),
		Description:            strings.TrimSpace(req.Description),
		AdoptionRequirements:   strings.TrimSpace(req.AdoptionRequirements),
		Status:                 strings.TrimSpace(req.Status),
		Photos:                 photos,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetAnimal(c *gin.Context) {
	resp, err := s.animalSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAnimalStatus(c *gin.Context) {
	var req updateAnimalStatusRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.animalSvc.UpdateStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
