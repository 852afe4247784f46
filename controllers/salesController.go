package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesbackend/models"
	"salesbackend/services"
)

type SalesController struct {
	sales *services.SalesService
}

func NewSalesController(sales *services.SalesService) *SalesController {
	return &SalesController{sales: sales}
}

func (s *SalesController) RecordSale(c *gin.Context) {
	var req models.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product or quantity"})
		return
	}

	recorded, err := s.sales.RecordSale(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recorded)
}

func (s *SalesController) ListSales(c *gin.Context) {
	sales, err := s.sales.ListSales(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

func (s *SalesController) SalesSummary(c *gin.Context) {
	summary, err := s.sales.SummarizeSales(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
