package handlers

import (
	"net/http"
	"strconv"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/catalog"
	"pizza-ordering-api/models"

	"github.com/gin-gonic/gin"
)

func presetID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound("Menu item not found")
	}
	return uint(id), nil
}

// AdminGetCatalog returns every builder component, unavailable ones included,
// and which price field each category edits.
func (h *Handler) AdminGetCatalog(c *gin.Context) {
	snap := h.catalog.All(c.Request.Context())
	priceKeys := make(map[models.Category]string, len(models.Categories))
	for _, category := range models.Categories {
		priceKeys[category] = category.PriceKey()
	}
	c.JSON(http.StatusOK, gin.H{
		"sizes":     snap.Sizes,
		"bases":     snap.Bases,
		"sauces":    snap.Sauces,
		"cheeses":   snap.Cheeses,
		"toppings":  snap.Toppings,
		"rules":     snap.Rules,
		"priceKeys": priceKeys,
	})
}

// AdminUpsertComponent creates or updates one builder component.
func (h *Handler) AdminUpsertComponent(c *gin.Context) {
	var in catalog.ComponentInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	item, created, err := h.catalog.UpsertComponent(c.Request.Context(), c.Param("category"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"message": "Menu item saved", "item": item})
}

// AdminDeleteComponent removes one builder component.
func (h *Handler) AdminDeleteComponent(c *gin.Context) {
	if err := h.catalog.DeleteComponent(c.Request.Context(), c.Param("category"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AdminListPresets returns every preset, unavailable ones included.
func (h *Handler) AdminListPresets(c *gin.Context) {
	items, err := h.catalog.ListPresets(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) AdminGetPreset(c *gin.Context) {
	id, err := presetID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.catalog.GetPreset(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handler) AdminCreatePreset(c *gin.Context) {
	var in catalog.PresetInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.catalog.CreatePreset(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *Handler) AdminUpdatePreset(c *gin.Context) {
	id, err := presetID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var in catalog.PresetInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.catalog.UpdatePreset(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handler) AdminDeletePreset(c *gin.Context) {
	id, err := presetID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.catalog.DeletePreset(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
