package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salesbackend/models"
	"salesbackend/services"
)

type ProductController struct {
	inventory *services.InventoryService
}

func NewProductController(inventory *services.InventoryService) *ProductController {
	return &ProductController{inventory: inventory}
}

func (p *ProductController) AddProduct(c *gin.Context) {
	var input models.CreateProduct
	if !bindJSON(c, &input) {
		return
	}

	id, err := p.inventory.AddProduct(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added", "id": id})
}

func (p *ProductController) ListProducts(c *gin.Context) {
	inventory, err := p.inventory.ListInventory(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inventory)
}

func (p *ProductController) GetProduct(c *gin.Context) {
	product, err := p.inventory.GetProduct(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (p *ProductController) UpdateProduct(c *gin.Context) {
	var update models.UpdateProduct
	if !bindJSON(c, &update) {
		return
	}

	if _, err := p.inventory.UpdateProduct(c.Request.Context(), currentUser(c), c.Param("id"), update); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "updates": update.Fields()})
}

func (p *ProductController) DeleteProduct(c *gin.Context) {
	if err := p.inventory.DeleteProduct(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
