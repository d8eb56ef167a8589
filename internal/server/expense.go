package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	expensedomain "github.com/smallbiznis/adopet/internal/expense/domain"
	categorydomain "github.com/smallbiznis/adopet/internal/expensecategory/domain"
	"github.com/smallbiznis/adopet/internal/money"
	"github.com/smallbiznis/adopet/pkg/db/pagination"
)

type createExpenseCategoryRequest struct {
	Key  string `json:"key"`
	Name string `json:"name" binding:"required,max=100"`
	Icon string `json:"icon" binding:"max=50"`
}

type expenseAttachmentRequest struct {
	URL      string `json:"url" binding:"required,url,max=2048"`
	FileName string `json:"file_name" binding:"max=255"`
}

type createExpenseRequest struct {
	CategoryID  string                     `json:"category_id" binding:"required"`
	AnimalID    string                     `json:"animal_id"`
	Description string                     `json:"description" binding:"max=500"`
	Amount      money.Cents                `json:"amount"`
	ExpenseDate string                     `json:"expense_date" binding:"required"`
	CostCenter  string                     `json:"cost_center" binding:"max=100"`
	ReceiptURL  string                     `json:"receipt_url" binding:"omitempty,url,max=2048"`
	Attachments []expenseAttachmentRequest `json:"attachments" binding:"dive"`
}

type listExpensesQuery struct {
	pagination.Page
	CategoryID string `form:"category_id"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
}

type expenseTotalsQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

func (s *Server) ListExpenseCategories(c *gin.Context) {
	items, err := s.categorySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateExpenseCategory(c *gin.Context) {
	var req createExpenseCategoryRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	key := req.Key
	if strings.TrimSpace(key) == "" {
		key = req.Name
	}

	resp, err := s.categorySvc.Create(c.Request.Context(), categorydomain.CreateCategoryRequest{
		Key:  key,
		Name: strings.TrimSpace(req.Name),
		Icon: strings.TrimSpace(req.Icon),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) DeleteExpenseCategory(c *gin.Context) {
	if err := s.categorySvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	expenseDate, err := parseDate(req.ExpenseDate)
	if err != nil {
		AbortWithError(c, expensedomain.ErrInvalidDate)
		return
	}

	attachments := make([]expensedomain.AttachmentRequest, 0, len(req.Attachments))
	for _, attachment := range req.Attachments {
		attachments = append(attachments, expensedomain.AttachmentRequest{
			URL:      strings.TrimSpace(attachment.URL),
			FileName: strings.TrimSpace(attachment.FileName),
		})
	}

	resp, err := s.expenseSvc.Create(c.Request.Context(), expensedomain.CreateExpenseRequest{
		CategoryID:  strings.TrimSpace(req.CategoryID),
		AnimalID:    strings.TrimSpace(req.AnimalID),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		ExpenseDate: expenseDate,
		CostCenter:  strings.TrimSpace(req.CostCenter),
		ReceiptURL:  strings.TrimSpace(req.ReceiptURL),
		Attachments: attachments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListExpenses(c *gin.Context) {
	var query listExpensesQuery
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	start, end, err := dateRangeQuery(query.StartDate, query.EndDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.expenseSvc.List(c.Request.Context(), expensedomain.ListExpensesRequest{
		CategoryID: strings.TrimSpace(query.CategoryID),
		Start:      start,
		End:        end,
		Page:       query.Page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExpenseTotalsByCategory(c *gin.Context) {
	var query expenseTotalsQuery
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	start, end, err := dateRangeQuery(query.StartDate, query.EndDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.expenseSvc.TotalsByCategory(c.Request.Context(), expensedomain.TotalsRequest{
		Start: start,
		End:   end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetExpense(c *gin.Context) {
	resp, err := s.expenseSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func dateRangeQuery(rawStart, rawEnd string) (*time.Time, *time.Time, error) {
	start, err := parseOptionalTime(rawStart, false)
	if err != nil {
		return nil, nil, newValidationError("start_date", "invalid_start_date", "invalid start_date")
	}
	end, err := parseOptionalTime(rawEnd, false)
	if err != nil {
		return nil, nil, newValidationError("end_date", "invalid_end_date", "invalid end_date")
	}
	return start, end, nil
}
